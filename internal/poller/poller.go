// Package poller keeps the latest result of a repeatedly fetched resource.
//
// A Poller tracks {data, loading, error} for one fetch function. Every fetch
// gets a sequence number; when it completes, its result is applied only if no
// newer fetch has been issued since, so a slow response never overwrites a
// fresher one. Run mounts the poller: it fetches once, then again on every
// tick, until its context is cancelled.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spboyer/evaldash/internal/telemetry"
)

var (
	// ErrSuperseded is returned by Fetch when a newer fetch was issued before
	// this one completed. Its result was dropped.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	// ErrStopped is returned once the poller has been unmounted.
	ErrStopped = errors.New("poller stopped")
	// ErrRunning is returned when Run is called on a mounted poller.
	ErrRunning = errors.New("poller already running")
)

// FetchFunc loads one value of the polled resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is a snapshot of the poller.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	// Err is the error of the most recent applied fetch, nil after a success.
	Err       error
	Seq       uint64
	UpdatedAt time.Time
}

// Options configures a Poller.
type Options[T any] struct {
	// Name labels log lines, e.g. "latest".
	Name string
	// Interval between fetches while running. Zero disables polling after
	// the initial fetch.
	Interval time.Duration
	// Initial seeds Data when HasInitial is set.
	Initial    T
	HasInitial bool
	Logger     *slog.Logger
	Telemetry  *telemetry.Recorder
}

// Poller is safe for concurrent use.
type Poller[T any] struct {
	fetch  FetchFunc[T]
	name   string
	logger *slog.Logger
	tel    *telemetry.Recorder

	mu       sync.Mutex
	state    State[T]
	seq      uint64
	interval time.Duration
	running  bool
	stopped  bool
	runCtx   context.Context
	reset    chan time.Duration
	subs     map[int]chan State[T]
	nextSub  int
}

// New creates a Poller around fetch. It does nothing until Fetch or Run is called.
func New[T any](fetch FetchFunc[T], opts Options[T]) *Poller[T] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p := &Poller[T]{
		fetch:    fetch,
		name:     opts.Name,
		logger:   opts.Logger,
		tel:      opts.Telemetry,
		interval: opts.Interval,
		reset:    make(chan time.Duration, 1),
		subs:     map[int]chan State[T]{},
	}
	if opts.HasInitial {
		p.state.Data = opts.Initial
		p.state.HasData = true
	}
	return p
}

// Snapshot returns the current state.
func (p *Poller[T]) Snapshot() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Interval returns the current polling interval.
func (p *Poller[T]) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Fetch issues a new request and waits for it. The returned error is the
// fetch error when the result was applied, ErrSuperseded when a newer fetch
// won, or ErrStopped when the poller was unmounted.
func (p *Poller[T]) Fetch(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	p.seq++
	seq := p.seq
	p.state.Loading = true
	p.state.Err = nil
	p.state.Seq = seq
	p.publishLocked()
	runCtx := p.runCtx
	p.mu.Unlock()

	// Unmounting cancels every in-flight fetch, including manual ones.
	if runCtx != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(runCtx, cancel)
		defer stop()
	}

	data, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || (runCtx != nil && runCtx.Err() != nil) {
		p.tel.ObservePoll(telemetry.OutcomeDiscarded)
		p.logger.Debug("discarding fetch result after stop", "poller", p.name, "seq", seq)
		return ErrStopped
	}
	if seq != p.seq {
		p.tel.ObservePoll(telemetry.OutcomeStale)
		p.logger.Debug("dropping stale fetch result", "poller", p.name, "seq", seq, "latest", p.seq)
		return ErrSuperseded
	}

	p.state.Loading = false
	p.state.UpdatedAt = time.Now()
	if err != nil {
		p.state.Err = err
		p.tel.ObservePoll(telemetry.OutcomeError)
		p.logger.Debug("fetch failed", "poller", p.name, "seq", seq, "error", err)
	} else {
		p.state.Data = data
		p.state.HasData = true
		p.tel.ObservePoll(telemetry.OutcomeApplied)
	}
	p.publishLocked()
	return err
}

// SetInterval changes the polling interval. A value <= 0 stops polling
// without unmounting; a later positive value resumes it.
func (p *Poller[T]) SetInterval(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = d
	select {
	case <-p.reset:
	default:
	}
	p.reset <- d
}

// Run mounts the poller: it fetches immediately, then on every tick of the
// interval. It blocks until ctx is cancelled, which unmounts the poller.
// In-flight fetches are cancelled and their late results discarded, and
// subscriber channels are closed.
func (p *Poller[T]) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.running {
		p.mu.Unlock()
		return ErrRunning
	}
	p.running = true
	p.runCtx = ctx
	interval := p.interval
	select {
	case <-p.reset:
	default:
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	launch := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Fetch(ctx)
		}()
	}

	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	setTicker := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tick = ticker.C
		}
	}

	launch()
	setTicker(interval)

	for {
		select {
		case <-ctx.Done():
			setTicker(0)
			p.stop()
			wg.Wait()
			return nil
		case d := <-p.reset:
			p.logger.Debug("poll interval changed", "poller", p.name, "interval", d)
			setTicker(d)
		case <-tick:
			launch()
		}
	}
}

func (p *Poller[T]) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.running = false
	p.state.Loading = false
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

// Subscribe returns a channel receiving every state change and a function
// that cancels the subscription. A slow reader only sees the most recent
// state. The channel is closed when the poller stops.
func (p *Poller[T]) Subscribe() (<-chan State[T], func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan State[T], 1)
	if p.stopped {
		close(ch)
		return ch, func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	ch <- p.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if c, ok := p.subs[id]; ok {
				close(c)
				delete(p.subs, id)
			}
		})
	}
}

func (p *Poller[T]) publishLocked() {
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- p.state
	}
}
