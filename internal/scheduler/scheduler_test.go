package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (m *mockRunner) RunBatch(_ context.Context) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.block != nil {
		<-m.block
	}
	return m.err
}

func (m *mockRunner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewScheduler_InvalidCron(t *testing.T) {
	_, err := NewScheduler("not a cron", &mockRunner{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse cron expression")
}

func TestNextRun(t *testing.T) {
	s, err := NewScheduler("0 3 * * *", &mockRunner{}, testLogger())
	require.NoError(t, err)

	from := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	next := s.NextRun(from)
	assert.Equal(t, time.Date(2026, 1, 16, 3, 0, 0, 0, time.UTC), next)
}

func TestStartTwice(t *testing.T) {
	s, err := NewScheduler("* * * * *", &mockRunner{}, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx))
	require.NoError(t, s.Stop())
}

func TestStopWithoutStart(t *testing.T) {
	s, err := NewScheduler("* * * * *", &mockRunner{}, testLogger())
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}

func TestStartStopRestart(t *testing.T) {
	s, err := NewScheduler("* * * * *", &mockRunner{}, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop())
}

func TestFire(t *testing.T) {
	r := &mockRunner{}
	s, err := NewScheduler("* * * * *", r, testLogger())
	require.NoError(t, err)

	s.fire(context.Background())
	assert.Equal(t, 1, r.callCount())
}

func TestFire_RunnerErrorDoesNotPanic(t *testing.T) {
	r := &mockRunner{err: errors.New("dataset unreadable")}
	s, err := NewScheduler("* * * * *", r, testLogger())
	require.NoError(t, err)

	s.fire(context.Background())
	assert.Equal(t, 1, r.callCount())
}

func TestFire_SkipsOverlappingRun(t *testing.T) {
	r := &mockRunner{block: make(chan struct{})}
	s, err := NewScheduler("* * * * *", r, testLogger())
	require.NoError(t, err)

	started := make(chan struct{})
	go func() {
		close(started)
		s.fire(context.Background())
	}()
	<-started

	// Wait until the first run has acquired the in-flight flag.
	require.Eventually(t, func() bool { return r.callCount() == 1 }, time.Second, 5*time.Millisecond)

	s.fire(context.Background())
	assert.Equal(t, 1, r.callCount())

	close(r.block)
}
