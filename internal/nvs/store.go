package nvs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/solarpool-core/internal/infrastructure/database"
)

const (
	// MaxKeyLength is the longest key or namespace name, in bytes.
	MaxKeyLength = 15

	// MaxStringLength is the longest storable string, in bytes.
	MaxStringLength = 127
)

type kind string

const (
	kindString kind = "str"
	kindU8     kind = "u8"
)

// Namespace is the set of operations on one opened namespace.
// Handle implements it; tests substitute fakes.
type Namespace interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	GetU8(ctx context.Context, key string) (uint8, error)
	SetU8(ctx context.Context, key string, value uint8) error
	Remove(ctx context.Context, key string) error
	Commit(ctx context.Context) error
}

// Partition is the SQLite-backed store holding every namespace.
type Partition struct {
	db *database.DB
}

// NewPartition returns a Partition over db. The nvs_entries migration must
// have been applied.
func NewPartition(db *database.DB) *Partition {
	return &Partition{db: db}
}

// Open returns a Handle on the named namespace. The namespace need not exist.
func (p *Partition) Open(namespace string) (*Handle, error) {
	if err := validateKey(namespace); err != nil {
		return nil, fmt.Errorf("opening namespace %q: %w", namespace, err)
	}
	return &Handle{
		db:        p.db,
		namespace: namespace,
		pending:   make(map[string]change),
	}, nil
}

// change is a staged write or, with isDel set, a staged removal.
type change struct {
	kind  kind
	str   string
	u8    uint8
	isDel bool
}

// Handle reads and writes one namespace.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Handle struct {
	db        *database.DB
	namespace string

	mu      sync.Mutex
	pending map[string]change
}

// Namespace returns the namespace this handle was opened on.
func (h *Handle) Namespace() string {
	return h.namespace
}

// GetString returns the string stored under key.
func (h *Handle) GetString(ctx context.Context, key string) (string, error) {
	c, err := h.lookup(ctx, key)
	if err != nil {
		return "", err
	}
	if c.kind != kindString {
		return "", fmt.Errorf("reading %s/%s: %w", h.namespace, key, ErrTypeMismatch)
	}
	return c.str, nil
}

// SetString stages value under key.
func (h *Handle) SetString(_ context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(value) > MaxStringLength {
		return fmt.Errorf("writing %s/%s: %w", h.namespace, key, ErrValueTooLong)
	}
	h.stage(key, change{kind: kindString, str: value})
	return nil
}

// GetU8 returns the integer stored under key.
func (h *Handle) GetU8(ctx context.Context, key string) (uint8, error) {
	c, err := h.lookup(ctx, key)
	if err != nil {
		return 0, err
	}
	if c.kind != kindU8 {
		return 0, fmt.Errorf("reading %s/%s: %w", h.namespace, key, ErrTypeMismatch)
	}
	return c.u8, nil
}

// SetU8 stages value under key.
func (h *Handle) SetU8(_ context.Context, key string, value uint8) error {
	if err := validateKey(key); err != nil {
		return err
	}
	h.stage(key, change{kind: kindU8, u8: value})
	return nil
}

// Remove stages deletion of key. It returns ErrNotFound if the key is
// absent both from staged changes and from storage.
func (h *Handle) Remove(ctx context.Context, key string) error {
	if _, err := h.lookup(ctx, key); err != nil {
		return err
	}
	h.stage(key, change{isDel: true})
	return nil
}

// Commit makes every staged change durable in one transaction. On failure
// staged changes are kept so the caller may retry or Discard.
func (h *Handle) Commit(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.pending) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := h.db.WithTx(ctx, func(tx *sql.Tx) error {
		for key, c := range h.pending {
			if err := applyChange(ctx, tx, h.namespace, key, c, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("committing namespace %s: %w", h.namespace, err)
	}

	clear(h.pending)
	return nil
}

// Discard drops staged changes.
func (h *Handle) Discard() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.pending)
}

func (h *Handle) stage(key string, c change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[key] = c
}

func (h *Handle) lookup(ctx context.Context, key string) (change, error) {
	if err := validateKey(key); err != nil {
		return change{}, err
	}

	h.mu.Lock()
	c, staged := h.pending[key]
	h.mu.Unlock()

	if staged {
		if c.isDel {
			return change{}, fmt.Errorf("reading %s/%s: %w", h.namespace, key, ErrNotFound)
		}
		return c, nil
	}

	var (
		k   string
		str sql.NullString
		u8  sql.NullInt64
	)
	err := h.db.QueryRowContext(ctx,
		"SELECT kind, str_value, u8_value FROM nvs_entries WHERE namespace = ? AND key = ?",
		h.namespace, key,
	).Scan(&k, &str, &u8)
	if errors.Is(err, sql.ErrNoRows) {
		return change{}, fmt.Errorf("reading %s/%s: %w", h.namespace, key, ErrNotFound)
	}
	if err != nil {
		return change{}, fmt.Errorf("reading %s/%s: %w", h.namespace, key, err)
	}

	return change{kind: kind(k), str: str.String, u8: uint8(u8.Int64)}, nil //nolint:gosec // column CHECK bounds u8_value to 0..255
}

func applyChange(ctx context.Context, tx *sql.Tx, namespace, key string, c change, now string) error {
	if c.isDel {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM nvs_entries WHERE namespace = ? AND key = ?",
			namespace, key,
		)
		if err != nil {
			return fmt.Errorf("removing %s/%s: %w", namespace, key, err)
		}
		return nil
	}

	var str, u8 any
	switch c.kind {
	case kindString:
		str = c.str
	case kindU8:
		u8 = int64(c.u8)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO nvs_entries (namespace, key, kind, str_value, u8_value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			kind = excluded.kind,
			str_value = excluded.str_value,
			u8_value = excluded.u8_value,
			updated_at = excluded.updated_at`,
		namespace, key, string(c.kind), str, u8, now,
	)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", namespace, key, err)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%q: %w", key, ErrKeyTooLong)
	}
	return nil
}
