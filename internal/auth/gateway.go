package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/solarpool-core/internal/nvs"
)

// Namespace and keys of the durable credential record.
const (
	NVSNamespace = "controller"

	keyUsername     = "user"
	keyPasswordHash = "pwd_hash"
	keySalt         = "pwd_salt"
	keyProvisioned  = "prov"
)

// discarder is implemented by stores that can drop staged writes after a
// failed commit.
type discarder interface {
	Discard()
}

// Gateway is the only component that reads or writes the durable
// credential record.
//
// Thread Safety:
//   - All methods are serialised by an internal mutex.
type Gateway struct {
	mu sync.Mutex
	ns nvs.Namespace
}

// NewGateway returns a Gateway over ns, normally the "controller" namespace.
func NewGateway(ns nvs.Namespace) *Gateway {
	return &Gateway{ns: ns}
}

// Load returns the stored record, or nil if the device is not provisioned.
//
// A missing or zero provisioned marker, or any missing string field, reads
// as not provisioned: a partly written record never yields credentials.
func (g *Gateway) Load(ctx context.Context) (*PersistentRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prov, err := g.ns.GetU8(ctx, keyProvisioned)
	if errors.Is(err, nvs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", keyProvisioned, err)
	}
	if prov == 0 {
		return nil, nil
	}

	rec := &PersistentRecord{Provisioned: true}
	fields := []struct {
		key string
		dst *string
	}{
		{keyUsername, &rec.Username},
		{keyPasswordHash, &rec.PasswordHash},
		{keySalt, &rec.SaltHex},
	}
	for _, f := range fields {
		v, err := g.ns.GetString(ctx, f.key)
		if errors.Is(err, nvs.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.key, err)
		}
		*f.dst = v
	}

	return rec, nil
}

// Store writes every field of rec and commits. On error the caller must
// treat the durable state as unchanged.
func (g *Gateway) Store(ctx context.Context, rec PersistentRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var prov uint8
	if rec.Provisioned {
		prov = 1
	}

	if err := g.write(ctx, func() error {
		if err := g.ns.SetString(ctx, keyUsername, rec.Username); err != nil {
			return fmt.Errorf("writing %s: %w", keyUsername, err)
		}
		if err := g.ns.SetString(ctx, keyPasswordHash, rec.PasswordHash); err != nil {
			return fmt.Errorf("writing %s: %w", keyPasswordHash, err)
		}
		if err := g.ns.SetString(ctx, keySalt, rec.SaltHex); err != nil {
			return fmt.Errorf("writing %s: %w", keySalt, err)
		}
		if err := g.ns.SetU8(ctx, keyProvisioned, prov); err != nil {
			return fmt.Errorf("writing %s: %w", keyProvisioned, err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("storing credentials: %w", err)
	}
	return nil
}

// Clear removes the credential strings and marks the device unprovisioned.
// Keys that were never written are ignored.
func (g *Gateway) Clear(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.write(ctx, func() error {
		for _, key := range []string{keyUsername, keyPasswordHash, keySalt} {
			if err := g.ns.Remove(ctx, key); err != nil && !errors.Is(err, nvs.ErrNotFound) {
				return fmt.Errorf("removing %s: %w", key, err)
			}
		}
		if err := g.ns.SetU8(ctx, keyProvisioned, 0); err != nil {
			return fmt.Errorf("writing %s: %w", keyProvisioned, err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// write stages changes via fn and commits them. Staged changes are dropped
// on any failure so a later operation does not commit them by accident.
func (g *Gateway) write(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		err = g.ns.Commit(ctx)
	}
	if err != nil {
		if d, ok := g.ns.(discarder); ok {
			d.Discard()
		}
		return err
	}
	return nil
}
