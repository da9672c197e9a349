// Package store is the device-local durable key/value store. Values are JSON documents; the
// backend decides where the bytes live (SQLite file, Redis, or memory).
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/victornm/quizkeep/internal/telemetry"
)

// ErrNotFound is returned by backends when a key has no value.
var ErrNotFound = stderrors.New("store: key not found")

// Backend persists raw values by key.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Store serializes values on top of a Backend.
type Store struct {
	b Backend
}

func New(b Backend) *Store {
	return &Store{b: b}
}

// Get decodes the value stored at key into v. It reports false without an error when the key is
// absent.
func (s *Store) Get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.b.Load(ctx, key)
	if stderrors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		telemetry.StoreFailures.WithLabelValues("get").Inc()
		return false, fmt.Errorf("store: get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		telemetry.StoreFailures.WithLabelValues("decode").Inc()
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}

	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}

	if err := s.b.Save(ctx, key, raw); err != nil {
		telemetry.StoreFailures.WithLabelValues("set").Inc()
		return fmt.Errorf("store: set %s: %w", key, err)
	}

	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.b.Delete(ctx, key)
	if err != nil && !stderrors.Is(err, ErrNotFound) {
		telemetry.StoreFailures.WithLabelValues("remove").Inc()
		return fmt.Errorf("store: remove %s: %w", key, err)
	}

	return nil
}

// GetOrEmpty is the fail-soft read used by secondary data: any failure is logged and reported as
// an absent value.
func (s *Store) GetOrEmpty(ctx context.Context, key string, v any) bool {
	ok, err := s.Get(ctx, key, v)
	if err != nil {
		slog.WarnContext(ctx, "store: read failed, using empty value", "key", key, "error", err)
		return false
	}

	return ok
}

func (s *Store) Close() error {
	return s.b.Close()
}
