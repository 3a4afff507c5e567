package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/lrms-client/internal/api"
)

// Endpoint is a cached read operation with typed argument and result.
type Endpoint[A, R any] struct {
	Name string
	Call func(A) api.Call
	// Transform converts envelope data into R. Nil decodes JSON directly.
	Transform func(json.RawMessage) (R, error)
	// Provides lists the tags attached to the cached result.
	Provides func(A) []Tag
	// ProvidesResult adds tags derived from a successful result. They are
	// dropped again when a later fetch fails.
	ProvidesResult func(A, R) []Tag
}

// Key returns the cache key for arg.
func (ep Endpoint[A, R]) Key(arg A) Key {
	return NewKey(ep.Name, arg)
}

// Fetch returns the cached result for arg, loading it if needed.
func (ep Endpoint[A, R]) Fetch(ctx context.Context, c *Cache, arg A) (R, error) {
	v, err := c.Fetch(ctx, ep.Key(arg), ep.tags(arg), ep.fetcher(c, arg))
	return typed[R](v, err)
}

// Subscribe attaches to the cached result for arg.
func (ep Endpoint[A, R]) Subscribe(c *Cache, arg A) *Subscription {
	return c.Subscribe(ep.Key(arg), ep.tags(arg), ep.fetcher(c, arg))
}

// Refetch reloads arg and waits for the result.
func (ep Endpoint[A, R]) Refetch(ctx context.Context, c *Cache, arg A) (R, error) {
	v, err := c.Refetch(ctx, ep.Key(arg))
	if errors.Is(err, ErrNotCached) {
		return ep.Fetch(ctx, c, arg)
	}
	return typed[R](v, err)
}

func (ep Endpoint[A, R]) tags(arg A) []Tag {
	if ep.Provides == nil {
		return nil
	}
	return ep.Provides(arg)
}

func (ep Endpoint[A, R]) fetcher(c *Cache, arg A) FetchFunc {
	call := ep.Call(arg)
	if call.Name == "" {
		call.Name = ep.Name
	}
	return func(ctx context.Context) (any, error) {
		data, err := c.Executor().Execute(ctx, call)
		if err != nil {
			return nil, err
		}
		v, err := transform(data, ep.Transform)
		if err != nil || ep.ProvidesResult == nil {
			return v, err
		}
		r, _ := v.(R)
		return resultTags{value: v, tags: ep.ProvidesResult(arg, r)}, nil
	}
}

// Mutation is a write operation that invalidates tags on success.
type Mutation[A, R any] struct {
	Name        string
	Call        func(A) api.Call
	Transform   func(json.RawMessage) (R, error)
	Invalidates func(A) []Tag
}

// Do executes the mutation. The cache is invalidated only when it succeeds.
func (m Mutation[A, R]) Do(ctx context.Context, c *Cache, arg A) (R, error) {
	call := m.Call(arg)
	if call.Name == "" {
		call.Name = m.Name
	}
	var tags []Tag
	if m.Invalidates != nil {
		tags = m.Invalidates(arg)
	}
	v, err := c.Mutate(ctx, m.Name, tags, func(ctx context.Context) (any, error) {
		data, err := c.Executor().Execute(ctx, call)
		if err != nil {
			return nil, err
		}
		return transform(data, m.Transform)
	})
	return typed[R](v, err)
}

// Value extracts the typed data of a snapshot, if any.
func Value[R any](e Entry) (R, bool) {
	v, ok := e.Data.(R)
	return v, ok
}

func transform[R any](data json.RawMessage, fn func(json.RawMessage) (R, error)) (any, error) {
	if fn != nil {
		v, err := fn(data)
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) {
				return nil, err
			}
			return nil, &api.Error{Kind: api.KindParse, Message: "transform failed", Err: err}
		}
		return v, nil
	}
	var v R
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &api.Error{Kind: api.KindParse, Message: "failed to decode response data", Err: err}
	}
	return v, nil
}

func typed[R any](v any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	r, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("unexpected cached value type %T", v)
	}
	return r, nil
}
