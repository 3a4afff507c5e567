// Package refresh decides when a subscribed query is refetched: on mount, on
// pull-to-refresh, on a periodic timer and when the view regains focus.
package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ganot/lrms-client/internal/metrics"
	"github.com/ganot/lrms-client/internal/query"
)

const (
	DefaultInterval      = 10 * time.Second
	DefaultFocusDebounce = 2 * time.Second
)

var (
	// ErrNotMounted is returned by triggers used before Mount or after Unmount.
	ErrNotMounted = errors.New("refresh scheduler not mounted")
	// ErrAlreadyMounted is returned by a second Mount.
	ErrAlreadyMounted = errors.New("refresh scheduler already mounted")
)

// Config configures a Scheduler.
type Config struct {
	Interval      time.Duration
	FocusDebounce time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

// Scheduler drives the refetches of one subscribed query. Every trigger goes
// through a single in-flight guard so refreshes never overlap.
type Scheduler struct {
	name      string
	subscribe func() *query.Subscription
	interval  time.Duration
	debounce  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	inflight atomic.Bool

	mu        sync.Mutex
	sub       *query.Subscription
	ctx       context.Context
	stopTimer context.CancelFunc
	timerDone chan struct{}
}

// New creates a scheduler. subscribe is called once on Mount.
func New(name string, subscribe func() *query.Subscription, cfg Config) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	debounce := cfg.FocusDebounce
	if debounce <= 0 {
		debounce = DefaultFocusDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		name:      name,
		subscribe: subscribe,
		interval:  interval,
		debounce:  debounce,
		logger:    logger.With("query", name),
		now:       now,
	}
}

// Mount subscribes to the query, which loads it if needed, and starts the
// periodic timer. The timer stops when ctx is done.
func (s *Scheduler) Mount(ctx context.Context) (*query.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return nil, ErrAlreadyMounted
	}
	s.ctx = ctx
	s.sub = s.subscribe()
	metrics.RefreshTriggers.WithLabelValues("mount", "run").Inc()
	s.startTimerLocked()
	return s.sub, nil
}

// Updates returns the entry snapshots of the mounted query.
func (s *Scheduler) Updates() <-chan query.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return nil
	}
	return s.sub.Updates()
}

// Current returns the latest snapshot.
func (s *Scheduler) Current() query.Entry {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub == nil {
		return query.Entry{}
	}
	return sub.Current()
}

// Refreshing reports whether a scheduled or manual refresh is in flight.
func (s *Scheduler) Refreshing() bool {
	return s.inflight.Load()
}

// PullToRefresh refetches and waits for the result. The previous value stays
// visible meanwhile. If another refresh is already in flight the call waits
// for that request instead of issuing a new one.
func (s *Scheduler) PullToRefresh(ctx context.Context) (query.Entry, error) {
	sub, err := s.mounted()
	if err != nil {
		return query.Entry{}, err
	}
	if s.inflight.CompareAndSwap(false, true) {
		defer s.inflight.Store(false)
		metrics.RefreshTriggers.WithLabelValues("pull", "run").Inc()
	} else {
		metrics.RefreshTriggers.WithLabelValues("pull", "joined").Inc()
	}
	return sub.Reload(ctx)
}

// Tick runs one periodic refresh. It is skipped while any other refresh is in
// flight and reports whether a refetch happened.
func (s *Scheduler) Tick(ctx context.Context) bool {
	return s.guarded(ctx, "timer")
}

// Focus restarts the timer and refetches unless the data was fetched within
// the debounce window and nothing invalidated it since.
func (s *Scheduler) Focus(ctx context.Context) bool {
	s.mu.Lock()
	if s.sub == nil {
		s.mu.Unlock()
		return false
	}
	s.startTimerLocked()
	cur := s.sub.Current()
	s.mu.Unlock()

	if cur.FreshSince(s.now(), s.debounce) {
		metrics.RefreshTriggers.WithLabelValues("focus", "fresh").Inc()
		s.logger.Debug("focus refresh skipped, data is fresh", "fetched_at", cur.FetchedAt)
		return false
	}
	if cur.Status == query.StatusLoading {
		metrics.RefreshTriggers.WithLabelValues("focus", "skipped").Inc()
		return false
	}
	return s.guarded(ctx, "focus")
}

// Blur stops the periodic timer. In-flight requests complete normally.
func (s *Scheduler) Blur() {
	s.mu.Lock()
	done := s.stopTimerLocked()
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Unmount stops the timer and drops the subscription. Results that arrive
// afterwards are not delivered.
func (s *Scheduler) Unmount() {
	s.mu.Lock()
	done := s.stopTimerLocked()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	if sub != nil {
		sub.Close()
	}
}

func (s *Scheduler) guarded(ctx context.Context, trigger string) bool {
	sub, err := s.mounted()
	if err != nil {
		return false
	}
	if !s.inflight.CompareAndSwap(false, true) {
		metrics.RefreshTriggers.WithLabelValues(trigger, "skipped").Inc()
		s.logger.Debug("refresh skipped, another refresh in flight", "trigger", trigger)
		return false
	}
	defer s.inflight.Store(false)

	metrics.RefreshTriggers.WithLabelValues(trigger, "run").Inc()
	e, err := sub.Reload(ctx)
	if err != nil {
		s.logger.Debug("refresh interrupted", "trigger", trigger, "error", err)
		return true
	}
	if e.Status == query.StatusError {
		s.logger.Warn("refresh failed", "trigger", trigger, "error", e.Err)
	}
	return true
}

func (s *Scheduler) mounted() (*query.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return nil, ErrNotMounted
	}
	return s.sub, nil
}

func (s *Scheduler) startTimerLocked() {
	if s.stopTimer != nil {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	s.stopTimer = cancel
	s.timerDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) stopTimerLocked() chan struct{} {
	if s.stopTimer == nil {
		return nil
	}
	s.stopTimer()
	done := s.timerDone
	s.stopTimer = nil
	s.timerDone = nil
	return done
}
