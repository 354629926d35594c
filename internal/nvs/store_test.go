package nvs

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/solarpool-core/internal/infrastructure/database"
	_ "github.com/nerrad567/solarpool-core/migrations"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "nvs.db"),
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
	return db
}

func openHandle(t *testing.T, db *database.DB, namespace string) *Handle {
	t.Helper()
	h, err := NewPartition(db).Open(namespace)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", namespace, err)
	}
	return h
}

func TestHandle_StringRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	h := openHandle(t, db, "controller")

	if err := h.SetString(ctx, "user", "admin"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := h.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// A fresh handle only sees committed data.
	fresh := openHandle(t, db, "controller")
	got, err := fresh.GetString(ctx, "user")
	if err != nil {
		t.Fatalf("GetString() error = %v", err)
	}
	if got != "admin" {
		t.Errorf("GetString() = %q, want admin", got)
	}
}

func TestHandle_U8RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	h := openHandle(t, db, "controller")

	for _, v := range []uint8{0, 1, 255} {
		if err := h.SetU8(ctx, "prov", v); err != nil {
			t.Fatalf("SetU8(%d) error = %v", v, err)
		}
		if err := h.Commit(ctx); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		got, err := openHandle(t, db, "controller").GetU8(ctx, "prov")
		if err != nil {
			t.Fatalf("GetU8() error = %v", err)
		}
		if got != v {
			t.Errorf("GetU8() = %d, want %d", got, v)
		}
	}
}

func TestHandle_UncommittedWritesAreStaged(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	h := openHandle(t, db, "controller")

	if err := h.SetString(ctx, "user", "staged"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}

	got, err := h.GetString(ctx, "user")
	if err != nil || got != "staged" {
		t.Errorf("same handle GetString() = %q, %v; want staged value", got, err)
	}

	_, err = openHandle(t, db, "controller").GetString(ctx, "user")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("other handle GetString() error = %v, want ErrNotFound", err)
	}

	h.Discard()
	if _, err := h.GetString(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after Discard GetString() error = %v, want ErrNotFound", err)
	}
}

func TestHandle_Remove(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	h := openHandle(t, db, "controller")

	if err := h.Remove(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() of absent key error = %v, want ErrNotFound", err)
	}

	if err := h.SetString(ctx, "user", "admin"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := h.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if err := h.Remove(ctx, "user"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := h.GetString(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetString() after staged Remove error = %v, want ErrNotFound", err)
	}
	if err := h.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := openHandle(t, db, "controller").GetString(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetString() after committed Remove error = %v, want ErrNotFound", err)
	}
}

func TestHandle_NamespacesAreIsolated(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := openHandle(t, db, "controller")
	b := openHandle(t, db, "wifi")

	if err := a.SetString(ctx, "user", "admin"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := a.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := b.GetString(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other namespace GetString() error = %v, want ErrNotFound", err)
	}
}

func TestHandle_TypeMismatch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	h := openHandle(t, db, "controller")

	if err := h.SetU8(ctx, "prov", 1); err != nil {
		t.Fatalf("SetU8() error = %v", err)
	}
	if _, err := h.GetString(ctx, "prov"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("GetString() on u8 error = %v, want ErrTypeMismatch", err)
	}

	if err := h.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if _, err := openHandle(t, db, "controller").GetString(ctx, "prov"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("committed GetString() on u8 error = %v, want ErrTypeMismatch", err)
	}
}

func TestHandle_Limits(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	h := openHandle(t, db, "controller")

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"max key length", strings.Repeat("k", MaxKeyLength), "v", nil},
		{"key too long", strings.Repeat("k", MaxKeyLength+1), "v", ErrKeyTooLong},
		{"empty key", "", "v", ErrInvalidKey},
		{"max value length", "user", strings.Repeat("v", MaxStringLength), nil},
		{"value too long", "user", strings.Repeat("v", MaxStringLength+1), ErrValueTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.SetString(ctx, tt.key, tt.value)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("SetString() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetString() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// 64-char hex hash must fit.
	if err := h.SetString(ctx, "pwd_hash", strings.Repeat("ab", 32)); err != nil {
		t.Errorf("SetString() of 64-char hash error = %v", err)
	}
}

func TestPartition_OpenRejectsBadNamespace(t *testing.T) {
	db := testDB(t)
	part := NewPartition(db)

	if _, err := part.Open(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Open(\"\") error = %v, want ErrInvalidKey", err)
	}
	if _, err := part.Open(strings.Repeat("n", MaxKeyLength+1)); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("Open(long) error = %v, want ErrKeyTooLong", err)
	}
}

func TestHandle_CommitFailureKeepsStagedChanges(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	h := openHandle(t, db, "controller")

	if err := h.SetString(ctx, "user", "admin"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := h.Commit(cancelled); err == nil {
		t.Fatal("Commit() with cancelled context should fail")
	}

	if got, err := h.GetString(ctx, "user"); err != nil || got != "admin" {
		t.Errorf("staged value after failed Commit = %q, %v", got, err)
	}
	if err := h.Commit(ctx); err != nil {
		t.Fatalf("retry Commit() error = %v", err)
	}
}
