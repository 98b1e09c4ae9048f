// Package ratelimit throttles outbound OpenDota requests so that a per-second
// budget, a per-minute budget and a minimum spacing all hold at once.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"dota-draft-helper/internal/config"

	"github.com/rs/zerolog"
)

const (
	secondWindow = time.Second
	minuteWindow = time.Minute
)

type Options struct {
	PerSecond int
	PerMinute int
	MinGap    time.Duration

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(time.Duration)
}

type Status struct {
	RequestsLastSecond int `json:"requests_last_second"`
	RequestsLastMinute int `json:"requests_last_minute"`
	QueueLength        int `json:"queue_length"`
}

type waiter struct {
	ready     chan struct{}
	cancelled bool
}

// Limiter hands out request slots in FIFO order. A single drain goroutine
// runs while the queue is non-empty.
type Limiter struct {
	opts   Options
	logger zerolog.Logger

	mu         sync.Mutex
	queue      []*waiter
	stamps     []time.Time
	last       time.Time
	processing bool

	onGrant func(time.Time)
}

func New(opts Options, logger zerolog.Logger) *Limiter {
	if opts.PerSecond <= 0 {
		opts.PerSecond = 15
	}
	if opts.PerMinute <= 0 {
		opts.PerMinute = 200
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Limiter{opts: opts, logger: logger}
}

func NewFromConfig(cfg *config.Config, logger zerolog.Logger) *Limiter {
	return New(Options{
		PerSecond: cfg.RateLimit.PerSecond,
		PerMinute: cfg.RateLimit.PerMinute,
		MinGap:    cfg.RateLimit.MinGap,
	}, logger)
}

// Throttle blocks until the caller may issue one request. A caller whose
// context ends while queued gives up its place; a slot already granted is
// still counted against the budget.
func (l *Limiter) Throttle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w := &waiter{ready: make(chan struct{})}

	l.mu.Lock()
	l.queue = append(l.queue, w)
	if !l.processing {
		l.processing = true
		go l.drain()
	}
	l.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		defer l.mu.Unlock()
		select {
		case <-w.ready:
			return nil
		default:
		}
		w.cancelled = true
		return ctx.Err()
	}
}

func (l *Limiter) drain() {
	for {
		l.mu.Lock()
		for len(l.queue) > 0 && l.queue[0].cancelled {
			l.queue = l.queue[1:]
		}
		if len(l.queue) == 0 {
			l.processing = false
			l.mu.Unlock()
			return
		}

		now := l.opts.Now()
		l.prune(now)
		wait := l.waitFor(now)
		if wait > 0 {
			queued := len(l.queue)
			l.mu.Unlock()
			l.logger.Debug().Dur("wait", wait).Int("queued", queued).Msg("rate limit reached, waiting")
			l.opts.Sleep(wait)
			continue
		}

		l.stamps = append(l.stamps, now)
		l.last = now
		head := l.queue[0]
		l.queue = l.queue[1:]
		close(head.ready)
		if l.onGrant != nil {
			l.onGrant(now)
		}
		l.mu.Unlock()
	}
}

// prune drops grants that have left the minute window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	i := 0
	for i < len(l.stamps) && now.Sub(l.stamps[i]) >= minuteWindow {
		i++
	}
	l.stamps = l.stamps[i:]
}

// waitFor returns how long the queue head must wait at now. Caller holds mu.
func (l *Limiter) waitFor(now time.Time) time.Duration {
	var wait time.Duration

	if !l.last.IsZero() {
		if gap := l.opts.MinGap - now.Sub(l.last); gap > wait {
			wait = gap
		}
	}

	if len(l.stamps) >= l.opts.PerMinute {
		oldest := l.stamps[len(l.stamps)-l.opts.PerMinute]
		if d := minuteWindow - now.Sub(oldest); d > wait {
			wait = d
		}
	}

	if inSecond := l.countSince(now, secondWindow); inSecond >= l.opts.PerSecond {
		oldest := l.stamps[len(l.stamps)-l.opts.PerSecond]
		if d := secondWindow - now.Sub(oldest); d > wait {
			wait = d
		}
	}

	return wait
}

func (l *Limiter) countSince(now time.Time, window time.Duration) int {
	n := 0
	for i := len(l.stamps) - 1; i >= 0; i-- {
		if now.Sub(l.stamps[i]) >= window {
			break
		}
		n++
	}
	return n
}

func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.opts.Now()
	return Status{
		RequestsLastSecond: l.countSince(now, secondWindow),
		RequestsLastMinute: l.countSince(now, minuteWindow),
		QueueLength:        len(l.queue),
	}
}
