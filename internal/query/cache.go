package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrNotCached is returned when refetching a key that was never queried.
var ErrNotCached = errors.New("query not cached")

// FetchFunc loads the value for one cache key.
type FetchFunc func(ctx context.Context) (any, error)

// Executor runs a single API call and returns the envelope data.
type Executor interface {
	Execute(ctx context.Context, call api.Call) (json.RawMessage, error)
}

// Config configures a Cache.
type Config struct {
	Executor Executor
	Logger   *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Cache is a tag-indexed store of query results. Every entry change happens
// under one mutex, so subscribers only ever observe whole snapshots.
type Cache struct {
	exec    Executor
	logger  *slog.Logger
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	flights singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry
}

type entry struct {
	snap      Entry
	tags      []Tag
	extra     []Tag
	fetch     FetchFunc
	inflight  bool
	flightKey string
	run       func() (any, error)
	subs      map[string]*Subscription
}

// New creates an empty cache. Fetches run on a context owned by the cache and
// are cancelled by Close, never by an individual subscriber.
func New(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		exec:    cfg.Executor,
		logger:  logger,
		now:     now,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[Key]*entry),
	}
}

// Close cancels in-flight fetches.
func (c *Cache) Close() {
	c.cancel()
}

// Executor returns the executor used by typed endpoints.
func (c *Cache) Executor() Executor {
	return c.exec
}

// Subscribe attaches to key, starting a fetch only if the entry has never been
// loaded. The current snapshot is delivered immediately.
func (c *Cache) Subscribe(key Key, tags []Tag, fetch FetchFunc) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key, tags, fetch)
	sub := &Subscription{
		id:      uuid.NewString(),
		cache:   c,
		key:     key,
		updates: make(chan Entry, 1),
	}
	e.subs[sub.id] = sub

	switch {
	case e.inflight:
		metrics.CacheJoins.WithLabelValues(key.Operation).Inc()
	case e.snap.Status == StatusUninitialized:
		c.startLocked(e, "mount")
	}

	sub.deliverLocked(e.snap)
	return sub
}

// Fetch returns the cached value for key, loading it if needed. Concurrent
// callers share one in-flight request.
func (c *Cache) Fetch(ctx context.Context, key Key, tags []Tag, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key, tags, fetch)
	var ch <-chan singleflight.Result
	switch {
	case e.inflight:
		metrics.CacheJoins.WithLabelValues(key.Operation).Inc()
		ch = c.joinLocked(e)
	case e.snap.Status == StatusSuccess:
		data := e.snap.Data
		c.mu.Unlock()
		return data, nil
	default:
		ch = c.startLocked(e, "fetch")
	}
	gen := e.snap.Generation
	c.mu.Unlock()

	return c.await(ctx, e, gen, ch)
}

// Refetch re-runs the query for key and waits for its result. If a request is
// already in flight the caller joins it instead of issuing a second one.
// Repeated calls are never throttled.
func (c *Cache) Refetch(ctx context.Context, key Key) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotCached, key)
	}
	ch := c.refetchLocked(e)
	gen := e.snap.Generation
	c.mu.Unlock()

	return c.await(ctx, e, gen, ch)
}

// Invalidate marks every entry overlapping tags as stale. Subscribed entries
// are refetched, superseding any request already in flight; unsubscribed
// entries are evicted. It returns the number of entries touched.
func (c *Cache) Invalidate(reason string, tags ...Tag) int {
	if len(tags) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	touched := 0
	for key, e := range c.entries {
		if !overlapsAny(e.snap.Tags, tags) {
			continue
		}
		touched++
		c.invalidateLocked(key, e, reason, now)
	}
	return touched
}

// InvalidateAll marks every entry as stale, as when the signed-in user
// changes. It returns the number of entries touched.
func (c *Cache) InvalidateAll(reason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	touched := 0
	for key, e := range c.entries {
		touched++
		c.invalidateLocked(key, e, reason, now)
	}
	return touched
}

// Expire handles the end of a session. Unsubscribed entries are evicted.
// Subscribed entries keep their snapshot, including a request in flight, and
// are marked stale so the next trigger refetches them. It returns the number
// of entries touched.
func (c *Cache) Expire(reason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	touched := 0
	for key, e := range c.entries {
		touched++
		if len(e.subs) == 0 {
			c.invalidateLocked(key, e, reason, now)
			continue
		}
		e.snap.InvalidatedAt = now
		metrics.CacheInvalidations.WithLabelValues(reason, "stale").Inc()
		c.broadcastLocked(e)
	}
	return touched
}

// Mutate runs fn and, only if it succeeds, invalidates the given tags.
// A failed mutation leaves the cache untouched.
func (c *Cache) Mutate(ctx context.Context, name string, invalidates []Tag, fn FetchFunc) (any, error) {
	v, err := safeCall(ctx, fn)
	if err != nil {
		c.logger.Debug("mutation failed", "operation", name, "error", err)
		return nil, err
	}
	c.Invalidate(name, invalidates...)
	return v, nil
}

// Entry returns the current snapshot for key.
func (c *Cache) Entry(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{Key: key}, false
	}
	return e.snap, true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) entryLocked(key Key, tags []Tag, fetch FetchFunc) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			snap: Entry{Key: key, Status: StatusUninitialized},
			subs: make(map[string]*Subscription),
		}
		c.entries[key] = e
	}
	if tags != nil {
		e.tags = append([]Tag(nil), tags...)
		e.snap.Tags = joinTags(e.tags, e.extra)
	}
	if fetch != nil {
		e.fetch = fetch
	}
	return e
}

func (c *Cache) invalidateLocked(key Key, e *entry, reason string, now time.Time) {
	if len(e.subs) == 0 {
		delete(c.entries, key)
		metrics.CacheInvalidations.WithLabelValues(reason, "evict").Inc()
		c.logger.Debug("cache entry evicted", "key", key.String(), "reason", reason)
		return
	}
	e.snap.InvalidatedAt = now
	c.startLocked(e, "invalidate")
	metrics.CacheInvalidations.WithLabelValues(reason, "refetch").Inc()
	c.broadcastLocked(e)
}

func (c *Cache) refetchLocked(e *entry) <-chan singleflight.Result {
	if e.inflight {
		metrics.CacheJoins.WithLabelValues(e.snap.Key.Operation).Inc()
		return c.joinLocked(e)
	}
	ch := c.startLocked(e, "refetch")
	c.broadcastLocked(e)
	return ch
}

// startLocked begins a new generation for e. A previous in-flight request, if
// any, is superseded and its result will be discarded.
func (c *Cache) startLocked(e *entry, reason string) <-chan singleflight.Result {
	e.snap.Generation++
	gen := e.snap.Generation
	key := e.snap.Key
	fetch := e.fetch

	e.inflight = true
	e.snap.Status = StatusLoading
	e.flightKey = key.String() + "#" + strconv.FormatUint(gen, 10)
	e.run = func() (any, error) {
		v, err := safeCall(c.ctx, fetch)
		var extra []Tag
		if rt, ok := v.(resultTags); ok {
			v, extra = rt.value, rt.tags
		}
		c.settle(e, gen, v, extra, err)
		return v, err
	}

	metrics.CacheFetches.WithLabelValues(key.Operation, reason).Inc()
	c.logger.Debug("cache fetch", "key", key.String(), "generation", gen, "reason", reason)

	return c.flights.DoChan(e.flightKey, e.run)
}

// joinLocked attaches to the in-flight request of e. The flight cannot have
// finished: settle needs c.mu before the flight function returns.
func (c *Cache) joinLocked(e *entry) <-chan singleflight.Result {
	return c.flights.DoChan(e.flightKey, e.run)
}

// safeCall runs fetch, turning a panic in a response transform into a parse
// failure.
func safeCall(ctx context.Context, fetch FetchFunc) (v any, err error) {
	if fetch == nil {
		return nil, errors.New("query has no fetch function")
	}
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &api.Error{Kind: api.KindParse, Message: "transform failed", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fetch(ctx)
}

func (c *Cache) settle(e *entry, gen uint64, v any, extra []Tag, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := e.snap.Key
	if cur, ok := c.entries[key]; !ok || cur != e {
		metrics.DiscardedResults.WithLabelValues(key.Operation, "orphaned").Inc()
		c.logger.Debug("discarding result for evicted entry", "key", key.String(), "generation", gen)
		return
	}
	if gen != e.snap.Generation {
		metrics.DiscardedResults.WithLabelValues(key.Operation, "superseded").Inc()
		c.logger.Debug("discarding superseded result", "key", key.String(), "generation", gen, "current", e.snap.Generation)
		return
	}

	e.inflight = false
	e.run = nil
	e.snap.FetchedAt = c.now()
	if err != nil {
		e.snap.Status = StatusError
		e.snap.Err = err
		e.extra = nil
		c.logger.Debug("cache fetch failed", "key", key.String(), "error", err)
	} else {
		e.snap.Status = StatusSuccess
		e.snap.Data = v
		e.snap.Err = nil
		e.extra = extra
	}
	e.snap.Tags = joinTags(e.tags, e.extra)
	c.broadcastLocked(e)
}

// resultTags carries tags derived from a fetched value to settle.
type resultTags struct {
	value any
	tags  []Tag
}

func joinTags(base, extra []Tag) []Tag {
	if len(extra) == 0 {
		return base
	}
	out := make([]Tag, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

func (c *Cache) broadcastLocked(e *entry) {
	for _, sub := range e.subs {
		sub.deliverLocked(e.snap)
	}
}

// await waits for the flight of generation gen. If that generation was
// superseded meanwhile, the caller follows the newest request instead, so the
// value returned is always the most recently initiated one.
func (c *Cache) await(ctx context.Context, e *entry, gen uint64, ch <-chan singleflight.Result) (any, error) {
	for {
		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}

		c.mu.Lock()
		cur, ok := c.entries[e.snap.Key]
		if !ok || cur != e || e.snap.Generation == gen {
			c.mu.Unlock()
			return res.Val, res.Err
		}
		if e.inflight {
			ch = c.joinLocked(e)
			gen = e.snap.Generation
			c.mu.Unlock()
			continue
		}
		snap := e.snap
		c.mu.Unlock()
		if snap.Status == StatusError {
			return nil, snap.Err
		}
		return snap.Data, nil
	}
}

func (c *Cache) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	e, ok := c.entries[sub.key]
	if !ok {
		return
	}
	delete(e.subs, sub.id)
	if len(e.subs) == 0 && e.inflight && !e.snap.HasData() {
		// Nobody is left to receive the first result of this entry.
		delete(c.entries, sub.key)
	}
}
