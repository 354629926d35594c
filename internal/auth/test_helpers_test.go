package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/solarpool-core/internal/infrastructure/database"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/logging"
	"github.com/nerrad567/solarpool-core/internal/nvs"
	_ "github.com/nerrad567/solarpool-core/migrations"
)

var errInjected = errors.New("injected storage failure")

// fakeNamespace is an in-memory nvs.Namespace with staged writes and
// per-operation fault injection.
type fakeNamespace struct {
	mu        sync.Mutex
	committed map[string]any
	staged    map[string]any // nil value marks a removal
	failSet   map[string]error
	failGet   map[string]error
	failCmt   error
	commits   int
}

func newFakeNamespace() *fakeNamespace {
	return &fakeNamespace{
		committed: make(map[string]any),
		staged:    make(map[string]any),
		failSet:   make(map[string]error),
		failGet:   make(map[string]error),
	}
}

func (f *fakeNamespace) get(key string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failGet[key]; err != nil {
		return nil, err
	}
	if v, ok := f.staged[key]; ok {
		if v == nil {
			return nil, nvs.ErrNotFound
		}
		return v, nil
	}
	if v, ok := f.committed[key]; ok {
		return v, nil
	}
	return nil, nvs.ErrNotFound
}

func (f *fakeNamespace) set(key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSet[key]; err != nil {
		return err
	}
	f.staged[key] = v
	return nil
}

func (f *fakeNamespace) GetString(_ context.Context, key string) (string, error) {
	v, err := f.get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", nvs.ErrTypeMismatch
	}
	return s, nil
}

func (f *fakeNamespace) GetU8(_ context.Context, key string) (uint8, error) {
	v, err := f.get(key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint8)
	if !ok {
		return 0, nvs.ErrTypeMismatch
	}
	return n, nil
}

func (f *fakeNamespace) SetString(_ context.Context, key, value string) error {
	return f.set(key, value)
}

func (f *fakeNamespace) SetU8(_ context.Context, key string, value uint8) error {
	return f.set(key, value)
}

func (f *fakeNamespace) Remove(_ context.Context, key string) error {
	if _, err := f.get(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged[key] = nil
	return nil
}

func (f *fakeNamespace) Commit(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCmt != nil {
		return f.failCmt
	}
	for k, v := range f.staged {
		if v == nil {
			delete(f.committed, k)
		} else {
			f.committed[k] = v
		}
	}
	clear(f.staged)
	f.commits++
	return nil
}

func (f *fakeNamespace) Discard() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.staged)
}

func (f *fakeNamespace) committedValue(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.committed[key]
	return v, ok
}

func (f *fakeNamespace) setFailCommit(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCmt = err
}

// testClock is a settable clock for idle-expiry tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestStore returns a Store over a fresh fake namespace.
func newTestStore(t *testing.T) (*Store, *fakeNamespace, *testClock) {
	t.Helper()
	ns := newFakeNamespace()
	clock := newTestClock()
	store := NewStore(context.Background(), NewGateway(ns), StoreOptions{
		Now:    clock.Now,
		Logger: logging.Discard().Logger,
	})
	return store, ns, clock
}

// provisionedStore returns a Store already provisioned as op/poolwater1.
func provisionedStore(t *testing.T) (*Store, *fakeNamespace, *testClock, string) {
	t.Helper()
	store, ns, clock := newTestStore(t)
	sess, err := store.Provision(context.Background(), "op", "poolwater1")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	return store, ns, clock, sess.Token
}

// testNamespace opens the controller namespace on a migrated SQLite file.
func testNamespace(t *testing.T) (*nvs.Partition, *nvs.Handle) {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	part := nvs.NewPartition(db)
	h, err := part.Open(NVSNamespace)
	if err != nil {
		t.Fatalf("opening namespace: %v", err)
	}
	return part, h
}
