package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spboyer/evaldash/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetch hands out results in call order; each call blocks until its
// gate is released.
type gatedFetch struct {
	mu    sync.Mutex
	gates []chan result
	calls atomic.Int32
}

type result struct {
	value string
	err   error
}

func newGatedFetch(n int) *gatedFetch {
	g := &gatedFetch{}
	for i := 0; i < n; i++ {
		g.gates = append(g.gates, make(chan result, 1))
	}
	return g
}

func (g *gatedFetch) fetch(ctx context.Context) (string, error) {
	i := int(g.calls.Add(1)) - 1
	g.mu.Lock()
	gate := g.gates[i]
	g.mu.Unlock()
	select {
	case r := <-gate:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedFetch) release(i int, value string, err error) {
	g.gates[i] <- result{value, err}
}

func TestFetchAppliesResult(t *testing.T) {
	p := New(func(context.Context) (string, error) { return "run-1", nil }, Options[string]{})

	require.NoError(t, p.Fetch(context.Background()))

	s := p.Snapshot()
	assert.Equal(t, "run-1", s.Data)
	assert.True(t, s.HasData)
	assert.False(t, s.Loading)
	assert.NoError(t, s.Err)
	assert.Equal(t, uint64(1), s.Seq)
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestFetchErrorKeepsData(t *testing.T) {
	boom := errors.New("HTTP 500 - Internal Server Error")
	fail := false
	p := New(func(context.Context) (string, error) {
		if fail {
			return "", boom
		}
		return "run-1", nil
	}, Options[string]{})

	require.NoError(t, p.Fetch(context.Background()))
	fail = true
	assert.ErrorIs(t, p.Fetch(context.Background()), boom)

	s := p.Snapshot()
	assert.Equal(t, "run-1", s.Data, "previous data stays")
	assert.ErrorIs(t, s.Err, boom)
	assert.False(t, s.Loading)

	fail = false
	require.NoError(t, p.Fetch(context.Background()))
	assert.NoError(t, p.Snapshot().Err, "a success clears the error")
}

func TestInitialState(t *testing.T) {
	p := New(func(context.Context) (string, error) { return "", nil }, Options[string]{})
	s := p.Snapshot()
	assert.False(t, s.HasData)
	assert.False(t, s.Loading)

	seeded := New(func(context.Context) (string, error) { return "", nil }, Options[string]{Initial: "empty page", HasInitial: true})
	assert.Equal(t, "empty page", seeded.Snapshot().Data)
	assert.True(t, seeded.Snapshot().HasData)
}

func TestOnlyLatestFetchIsApplied(t *testing.T) {
	g := newGatedFetch(2)
	tel := telemetry.New(nil)
	p := New(g.fetch, Options[string]{Telemetry: tel})

	firstDone := make(chan error, 1)
	go func() { firstDone <- p.Fetch(context.Background()) }()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan error, 1)
	go func() { secondDone <- p.Fetch(context.Background()) }()
	require.Eventually(t, func() bool { return g.calls.Load() == 2 }, time.Second, time.Millisecond)

	// The newer request finishes first, then the older one arrives late.
	g.release(1, "new", nil)
	require.NoError(t, <-secondDone)
	g.release(0, "old", nil)
	assert.ErrorIs(t, <-firstDone, ErrSuperseded)

	s := p.Snapshot()
	assert.Equal(t, "new", s.Data)
	assert.Equal(t, uint64(2), s.Seq)
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.Polls().WithLabelValues(telemetry.OutcomeStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.Polls().WithLabelValues(telemetry.OutcomeApplied)))
}

func TestStaleErrorDoesNotSurface(t *testing.T) {
	g := newGatedFetch(2)
	p := New(g.fetch, Options[string]{})

	firstDone := make(chan error, 1)
	go func() { firstDone <- p.Fetch(context.Background()) }()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	secondDone := make(chan error, 1)
	go func() { secondDone <- p.Fetch(context.Background()) }()
	require.Eventually(t, func() bool { return g.calls.Load() == 2 }, time.Second, time.Millisecond)

	g.release(1, "ok", nil)
	require.NoError(t, <-secondDone)
	g.release(0, "", errors.New("timeout"))
	assert.ErrorIs(t, <-firstDone, ErrSuperseded)

	assert.NoError(t, p.Snapshot().Err)
}

func TestLoadingWhileInFlight(t *testing.T) {
	g := newGatedFetch(1)
	p := New(g.fetch, Options[string]{})

	done := make(chan error, 1)
	go func() { done <- p.Fetch(context.Background()) }()
	require.Eventually(t, func() bool { return p.Snapshot().Loading }, time.Second, time.Millisecond)

	g.release(0, "x", nil)
	require.NoError(t, <-done)
	assert.False(t, p.Snapshot().Loading)
}

func TestRunPollsOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := New(func(context.Context) (string, error) {
		calls.Add(1)
		return "tick", nil
	}, Options[string]{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no fetches after unmount")
	assert.ErrorIs(t, p.Fetch(context.Background()), ErrStopped)
	assert.ErrorIs(t, p.Run(context.Background()), ErrStopped)
}

func TestRunWithoutIntervalFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	p := New(func(context.Context) (string, error) {
		calls.Add(1)
		return "once", nil
	}, Options[string]{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Snapshot().HasData }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestSetIntervalRestartsPolling(t *testing.T) {
	var calls atomic.Int32
	p := New(func(context.Context) (string, error) {
		calls.Add(1)
		return "x", nil
	}, Options[string]{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	p.SetInterval(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, p.Interval())
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	p.SetInterval(0)
	time.Sleep(20 * time.Millisecond)
	paused := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, paused, calls.Load())
}

func TestRunTwice(t *testing.T) {
	p := New(func(ctx context.Context) (string, error) { return "", nil }, Options[string]{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()
	require.Eventually(t, func() bool { return p.Snapshot().HasData }, time.Second, time.Millisecond)

	assert.ErrorIs(t, p.Run(ctx), ErrRunning)
}

func TestUnmountDiscardsLateResult(t *testing.T) {
	tel := telemetry.New(nil)
	started := make(chan struct{})
	p := New(func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		// A backend that ignores cancellation still answers late.
		return "late", nil
	}, Options[string]{Telemetry: tel})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	<-started
	cancel()
	require.NoError(t, <-done)

	s := p.Snapshot()
	assert.False(t, s.HasData)
	assert.False(t, s.Loading)
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.Polls().WithLabelValues(telemetry.OutcomeDiscarded)))
}

func TestUnmountCancelsManualFetch(t *testing.T) {
	g := newGatedFetch(2)
	p := New(g.fetch, Options[string]{})

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)

	manual := make(chan error, 1)
	go func() { manual <- p.Fetch(context.Background()) }()
	require.Eventually(t, func() bool { return g.calls.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-runDone)
	assert.ErrorIs(t, <-manual, ErrStopped)
}

func TestSubscribe(t *testing.T) {
	g := newGatedFetch(1)
	p := New(g.fetch, Options[string]{})

	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	initial := <-ch
	assert.False(t, initial.HasData)

	done := make(chan error, 1)
	go func() { done <- p.Fetch(context.Background()) }()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	g.release(0, "value", nil)
	require.NoError(t, <-done)

	// The loading state may have been overwritten; the latest one must be there.
	var last State[string]
	require.Eventually(t, func() bool {
		select {
		case s := <-ch:
			last = s
		default:
		}
		return last.HasData
	}, time.Second, time.Millisecond)
	assert.Equal(t, "value", last.Data)
	assert.False(t, last.Loading)
}

func TestSubscribeClosedOnStop(t *testing.T) {
	p := New(func(context.Context) (string, error) { return "x", nil }, Options[string]{})
	ch, unsubscribe := p.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	assert.NotPanics(t, unsubscribe)

	late, _ := p.Subscribe()
	_, ok := <-late
	assert.False(t, ok)
}

func TestUnsubscribe(t *testing.T) {
	p := New(func(context.Context) (string, error) { return "x", nil }, Options[string]{})
	ch, unsubscribe := p.Subscribe()
	<-ch
	unsubscribe()
	unsubscribe()

	require.NoError(t, p.Fetch(context.Background()))
	_, ok := <-ch
	assert.False(t, ok)
}
