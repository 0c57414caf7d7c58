// Package kv is the persistence boundary of the rewards core. Every
// collection (users, sessions, ledgers, the id sequence) lives under a
// single string key and is rewritten whole on every mutation. That
// read-modify-write model is inherited from the browser-storage design
// this service replaces and is only safe with a single writer per store;
// backends serialize writes within one process but make no multi-process
// guarantee.
package kv

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Store keys. The names mirror the original browser-storage layout so a
// dump from either side reads the same.
const (
	KeyUsers       = "er.auth.users"
	KeySession     = "er.auth.session"
	KeyCurrentUser = "er.auth.currentUser"
	KeyToken       = "token"
	KeyTransacts   = "er.data.transactions"
	KeySequence    = "er.data.transactionSequence"
)

type Store interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ReadJSON reads key and unmarshals it into T. Absence, backend errors
// and corrupt payloads all resolve to fallback: a broken local cache
// heals itself instead of failing the caller. Corruption is logged.
func ReadJSON[T any](ctx context.Context, s Store, log *zap.Logger, key string, fallback T) T {
	if s == nil {
		return fallback
	}
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		if log != nil {
			log.Warn("kv read failed", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	if !ok || raw == "" {
		return fallback
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		if log != nil {
			log.Warn("kv value corrupt, using fallback", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	return out
}

// WriteJSON marshals v under key. A nil store is the "no storage in this
// context" case and the write is silently dropped.
func WriteJSON(ctx context.Context, s Store, log *zap.Logger, key string, v any) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.Set(ctx, key, string(b)); err != nil {
		if log != nil {
			log.Warn("kv write failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	return nil
}
