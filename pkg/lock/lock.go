// Package lock serializes short critical sections keyed by a string.
//
// Acquisition is a single attempt: a held key yields ErrBusy at once rather
// than blocking. Every lease carries a TTL so a crashed holder cannot keep
// a key forever, and the critical section runs under a context that expires
// with the lease.
package lock

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	ErrBusy        = errors.New("lock is held by another owner")
	ErrUnavailable = errors.New("lock backend unavailable")
)

type Coordinator interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type failOpen struct {
	inner      Coordinator
	onFallback func(key string)
}

// FailOpen runs fn unlocked when the backend is unreachable. Callers that
// use it must not rely on the lock for correctness. onFallback, if not nil,
// is called for every unlocked run.
func FailOpen(inner Coordinator, onFallback func(key string)) Coordinator {
	return &failOpen{inner: inner, onFallback: onFallback}
}

func (f *failOpen) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	ran := false
	err := f.inner.WithLock(ctx, key, ttl, func(ctx context.Context) error {
		ran = true
		return fn(ctx)
	})
	if ran || !errors.Is(err, ErrUnavailable) {
		return err
	}

	zap.L().Warn("lock backend unavailable, running unlocked", zap.String("key", key), zap.Error(err))
	if f.onFallback != nil {
		f.onFallback(key)
	}
	ctx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return fn(ctx)
}
