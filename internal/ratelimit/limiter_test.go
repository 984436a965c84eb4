package ratelimit

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestAdmit_RejectsOverLimit(t *testing.T) {
	l := New(3, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Admit("10.0.0.1", now.Add(time.Duration(i)*time.Second)))
	}

	err := l.Admit("10.0.0.1", now.Add(3*time.Second))
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	// другие клиенты не затронуты
	assert.NoError(t, l.Admit("10.0.0.2", now.Add(3*time.Second)))
}

func TestAdmit_WindowSlides(t *testing.T) {
	l := New(3, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Admit("client", now))
	}
	require.ErrorIs(t, l.Admit("client", now.Add(59*time.Second)), ErrRateLimitExceeded)

	assert.NoError(t, l.Admit("client", now.Add(61*time.Second)))
}

func TestAdmit_BoundaryIsExclusive(t *testing.T) {
	l := New(1, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Admit("client", now))
	require.ErrorIs(t, l.Admit("client", now.Add(time.Minute-time.Nanosecond)), ErrRateLimitExceeded)
	// отметка ровно window назад уже вне окна
	assert.NoError(t, l.Admit("client", now.Add(time.Minute)))
}

func TestAdmit_RejectedRequestsAreNotRecorded(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Admit("client", now))
	require.NoError(t, l.Admit("client", now.Add(10*time.Second)))
	for i := 0; i < 5; i++ {
		require.ErrorIs(t, l.Admit("client", now.Add(30*time.Second)), ErrRateLimitExceeded)
	}

	// первая отметка вышла из окна, отклоненные не учитывались
	assert.NoError(t, l.Admit("client", now.Add(61*time.Second)))
	assert.ErrorIs(t, l.Admit("client", now.Add(62*time.Second)), ErrRateLimitExceeded)
}

func TestAdmit_Disabled(t *testing.T) {
	for _, limit := range []int{0, -1} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			l := New(limit, time.Minute)
			assert.False(t, l.Enabled())

			now := time.Now()
			for i := 0; i < 1000; i++ {
				require.NoError(t, l.Admit("client", now))
			}
			assert.Zero(t, l.Clients())
		})
	}
}

func TestAllow_UsesClock(t *testing.T) {
	mock := clock.NewMock()
	l := New(3, time.Minute, WithClock(mock))

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow("client"))
	}
	require.ErrorIs(t, l.Allow("client"), ErrRateLimitExceeded)

	mock.Add(61 * time.Second)
	assert.NoError(t, l.Allow("client"))
}

func TestAllow_Concurrent(t *testing.T) {
	l := New(50, time.Minute)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("client") == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, accepted)
}

func TestSweep_RemovesExpiredWindows(t *testing.T) {
	mock := clock.NewMock()
	l := New(5, time.Minute, WithClock(mock))

	require.NoError(t, l.Allow("old"))
	mock.Add(30 * time.Second)
	require.NoError(t, l.Allow("recent"))
	require.Equal(t, 2, l.Clients())

	mock.Add(45 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Clients())

	mock.Add(time.Minute)
	assert.Equal(t, 1, l.Sweep())
	assert.Zero(t, l.Clients())
}

func TestStart_SweepsInBackground(t *testing.T) {
	mock := clock.NewMock()
	l := New(5, time.Minute,
		WithClock(mock),
		WithLogger(quietLogger()),
		WithSweepInterval(10*time.Second),
	)

	require.NoError(t, l.Allow("client"))

	l.Start(context.Background())
	defer l.Stop()

	mock.Add(70 * time.Second)

	assert.Eventually(t, func() bool { return l.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStop_Idempotent(t *testing.T) {
	l := New(5, time.Minute, WithLogger(quietLogger()))

	l.Stop()
	l.Start(context.Background())
	l.Start(context.Background())
	l.Stop()
	l.Stop()
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	l := New(5, time.Minute, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not stop")
	}
}
