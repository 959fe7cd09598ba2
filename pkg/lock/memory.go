package lock

import (
	"context"
	"sync"
	"time"
)

type lease struct {
	token   uint64
	expires time.Time
}

// Memory is an in-process Coordinator for single-instance deployments.
type Memory struct {
	mu     sync.Mutex
	leases map[string]lease
	next   uint64
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

func (m *Memory) acquire(key string, ttl time.Duration) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if l, ok := m.leases[key]; ok && now.Before(l.expires) {
		return 0, false
	}
	m.next++
	m.leases[key] = lease{token: m.next, expires: now.Add(ttl)}
	return m.next, true
}

func (m *Memory) release(key string, token uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.leases[key]; ok && l.token == token {
		delete(m.leases, key)
	}
}

func (m *Memory) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	token, ok := m.acquire(key, ttl)
	if !ok {
		return ErrBusy
	}
	defer m.release(key, token)

	ctx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return fn(ctx)
}
