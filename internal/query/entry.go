package query

import "time"

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "uninitialized"
	}
}

// Entry is an immutable snapshot of one cached query.
type Entry struct {
	Key    Key
	Tags   []Tag
	Status Status
	// Data keeps the last successful value, also while Loading or Error.
	Data          any
	Err           error
	Generation    uint64
	FetchedAt     time.Time
	InvalidatedAt time.Time
}

// HasData reports whether a successful value has been received.
func (e Entry) HasData() bool {
	return !e.FetchedAt.IsZero() && e.Data != nil
}

// Refreshing reports a background refetch while a previous value stays visible.
func (e Entry) Refreshing() bool {
	return e.Status == StatusLoading && e.HasData()
}

// Settled reports whether the entry holds a final result.
func (e Entry) Settled() bool {
	return e.Status == StatusSuccess || e.Status == StatusError
}

// FreshSince reports whether the entry settled within window of now and was
// not invalidated afterwards.
func (e Entry) FreshSince(now time.Time, window time.Duration) bool {
	if e.Status != StatusSuccess || e.FetchedAt.IsZero() {
		return false
	}
	if e.InvalidatedAt.After(e.FetchedAt) {
		return false
	}
	return now.Sub(e.FetchedAt) < window
}
