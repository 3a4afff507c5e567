package query

import (
	"context"
	"errors"
)

// ErrSubscriptionClosed is returned when reloading a closed subscription.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Subscription follows one cache entry. Updates carries the latest snapshot;
// intermediate snapshots may be skipped but the most recent one is never lost.
type Subscription struct {
	id      string
	cache   *Cache
	key     Key
	updates chan Entry
	closed  bool
}

// Key returns the subscribed key.
func (s *Subscription) Key() Key {
	return s.key
}

// Updates returns the channel receiving entry snapshots.
func (s *Subscription) Updates() <-chan Entry {
	return s.updates
}

// Current returns the entry as it is now.
func (s *Subscription) Current() Entry {
	e, _ := s.cache.Entry(s.key)
	return e
}

// Refetch starts a new fetch for the subscribed key, or joins the one in
// flight. It does not wait for the result.
func (s *Subscription) Refetch() {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.closed {
		return
	}
	e, ok := c.entries[s.key]
	if !ok || e.fetch == nil {
		return
	}
	c.refetchLocked(e)
}

// Reload refetches the subscribed key and waits for the result. A request
// already in flight is joined. Fetch failures are reported through the
// entry's Error state; the returned error is only for cancellation or a
// closed subscription.
func (s *Subscription) Reload(ctx context.Context) (Entry, error) {
	s.cache.mu.Lock()
	closed := s.closed
	s.cache.mu.Unlock()
	if closed {
		return Entry{Key: s.key}, ErrSubscriptionClosed
	}
	_, err := s.cache.Refetch(ctx, s.key)
	if err != nil && (ctx.Err() != nil || errors.Is(err, ErrNotCached)) {
		return s.Current(), err
	}
	return s.Current(), nil
}

// Wait blocks until the entry settles and returns that snapshot.
func (s *Subscription) Wait(ctx context.Context) (Entry, error) {
	if cur := s.Current(); cur.Settled() {
		return cur, nil
	}
	for {
		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case e := <-s.updates:
			if e.Settled() {
				return e, nil
			}
		}
	}
}

// Close detaches the subscription. The entry stays cached until a mutation
// invalidates it.
func (s *Subscription) Close() {
	s.cache.unsubscribe(s)
}

// deliverLocked replaces any undelivered snapshot with e.
func (s *Subscription) deliverLocked(e Entry) {
	if s.closed {
		return
	}
	select {
	case <-s.updates:
	default:
	}
	s.updates <- e
}
