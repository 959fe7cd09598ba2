package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemory_WithLock(t *testing.T) {
	m := NewMemory()

	called := false
	err := m.WithLock(context.Background(), "task:1", time.Second, func(ctx context.Context) error {
		called = true
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)

		inner := m.WithLock(ctx, "task:1", time.Second, func(context.Context) error {
			t.Error("nested acquisition must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrBusy)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// released after fn returns
	err = m.WithLock(context.Background(), "task:1", time.Second, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestMemory_ReleasesOnError(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")

	err := m.WithLock(context.Background(), "task:2", time.Second, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = m.WithLock(context.Background(), "task:2", time.Second, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestMemory_ExpiredLeaseIsReclaimed(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	token, ok := m.acquire("task:3", time.Second)
	require.True(t, ok)

	_, ok = m.acquire("task:3", time.Second)
	assert.False(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = m.acquire("task:3", time.Second)
	assert.True(t, ok)

	// the crashed holder's late release must not free the new lease
	m.release("task:3", token)
	_, ok = m.acquire("task:3", time.Second)
	assert.False(t, ok)
}

func TestMemory_ConcurrentCallersExactlyOneEnters(t *testing.T) {
	m := NewMemory()
	const callers = 32

	var entered, busy atomic.Int32
	start := make(chan struct{})
	hold := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := m.WithLock(context.Background(), "task:4", time.Second, func(context.Context) error {
				entered.Add(1)
				<-hold
				return nil
			})
			if errors.Is(err, ErrBusy) {
				if busy.Add(1) == callers-1 {
					close(hold)
				}
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), entered.Load())
	assert.Equal(t, int32(callers-1), busy.Load())
}

func TestRedis_WithLock(t *testing.T) {
	tests := []struct {
		name        string
		prepareMock func(client *MockRedisClient)
		expectRun   bool
		expectedErr error
	}{
		{
			name: "acquires and releases",
			prepareMock: func(client *MockRedisClient) {
				client.EXPECT().
					SetNX(gomock.Any(), keyPrefix+"task:1", gomock.Any(), 3*time.Second).
					Return(redis.NewBoolResult(true, nil))
				client.EXPECT().
					Eval(gomock.Any(), releaseScript, []string{keyPrefix + "task:1"}, gomock.Any()).
					Return(redis.NewCmdResult(int64(1), nil))
			},
			expectRun: true,
		},
		{
			name: "held by another owner",
			prepareMock: func(client *MockRedisClient) {
				client.EXPECT().
					SetNX(gomock.Any(), keyPrefix+"task:1", gomock.Any(), 3*time.Second).
					Return(redis.NewBoolResult(false, nil))
			},
			expectedErr: ErrBusy,
		},
		{
			name: "backend down",
			prepareMock: func(client *MockRedisClient) {
				client.EXPECT().
					SetNX(gomock.Any(), keyPrefix+"task:1", gomock.Any(), 3*time.Second).
					Return(redis.NewBoolResult(false, errors.New("dial tcp: connection refused")))
			},
			expectedErr: ErrUnavailable,
		},
		{
			name: "release failure is not reported",
			prepareMock: func(client *MockRedisClient) {
				client.EXPECT().
					SetNX(gomock.Any(), keyPrefix+"task:1", gomock.Any(), 3*time.Second).
					Return(redis.NewBoolResult(true, nil))
				client.EXPECT().
					Eval(gomock.Any(), releaseScript, []string{keyPrefix + "task:1"}, gomock.Any()).
					Return(redis.NewCmdResult(nil, errors.New("i/o timeout")))
			},
			expectRun: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := NewMockRedisClient(ctrl)
			tt.prepareMock(client)

			ran := false
			err := NewRedis(client).WithLock(context.Background(), "task:1", 3*time.Second, func(context.Context) error {
				ran = true
				return nil
			})

			assert.Equal(t, tt.expectRun, ran)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type stubCoordinator struct {
	err error
	run bool
}

func (s *stubCoordinator) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(ctx context.Context) error) error {
	if s.run {
		return fn(ctx)
	}
	return s.err
}

func TestFailOpen(t *testing.T) {
	fnErr := errors.New("no material")
	tests := []struct {
		name        string
		inner       *stubCoordinator
		fnResult    error
		expectRun   bool
		expectedErr error
	}{
		{name: "backend unavailable runs unlocked", inner: &stubCoordinator{err: ErrUnavailable}, expectRun: true},
		{name: "busy is reported", inner: &stubCoordinator{err: ErrBusy}, expectedErr: ErrBusy},
		{name: "fn error passes through", inner: &stubCoordinator{run: true}, fnResult: fnErr, expectRun: true, expectedErr: fnErr},
		{name: "fn wrapping unavailable is not run twice", inner: &stubCoordinator{run: true}, fnResult: ErrUnavailable, expectRun: true, expectedErr: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, fallbacks := 0, 0
			err := FailOpen(tt.inner, func(string) { fallbacks++ }).WithLock(context.Background(), "task:1", time.Second, func(context.Context) error {
				runs++
				return tt.fnResult
			})

			if tt.expectRun {
				assert.Equal(t, 1, runs)
			} else {
				assert.Zero(t, runs)
			}
			if errors.Is(tt.inner.err, ErrUnavailable) {
				assert.Equal(t, 1, fallbacks)
			} else {
				assert.Zero(t, fallbacks)
			}
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
