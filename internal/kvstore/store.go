// Package kvstore is the durable key-value store the assessment runner keeps
// its progress in. Values are JSON encoded.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt is returned by Load when a stored value cannot be decoded.
var ErrCorrupt = errors.New("kvstore: corrupt value")

// Store is the raw byte-level backend. A nil Store means durable storage is
// unavailable: Load yields defaults and Save/Clear do nothing.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Load returns the decoded value under key, or def when the key is absent or
// storage is unavailable. A value that fails to decode yields def and an error
// wrapping ErrCorrupt, so callers can fall back to first-run state.
func Load[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	if s == nil {
		return def, nil
	}
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, fmt.Errorf("%w: key %q: %v", ErrCorrupt, key, err)
	}
	return v, nil
}

// Save encodes v and stores it under key.
func Save(ctx context.Context, s Store, key string, v any) error {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	return nil
}

// Clear removes keys. Missing keys are not an error.
func Clear(ctx context.Context, s Store, keys ...string) error {
	if s == nil || len(keys) == 0 {
		return nil
	}
	if err := s.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("kvstore: delete %v: %w", keys, err)
	}
	return nil
}
