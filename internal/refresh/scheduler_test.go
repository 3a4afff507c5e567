package refresh

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/query"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingExecutor answers with an increasing version number. While gated,
// calls block until the gate is released.
type countingExecutor struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (e *countingExecutor) Execute(ctx context.Context, _ api.Call) (json.RawMessage, error) {
	e.mu.Lock()
	e.calls++
	n := e.calls
	gate := e.gate
	e.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return json.RawMessage(`{"version":` + itoa(n) + `}`), nil
}

func (e *countingExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *countingExecutor) Gate() chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate = make(chan struct{})
	return e.gate
}

func (e *countingExecutor) Ungate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate = nil
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

var versionQuery = query.Endpoint[struct{}, map[string]int]{
	Name:     "test.version",
	Call:     func(struct{}) api.Call { return api.Call{Path: "/version"} },
	Provides: func(struct{}) []query.Tag { return []query.Tag{query.Coarse("Version")} },
}

type fixture struct {
	exec  *countingExecutor
	cache *query.Cache
	clock *clock
	sched *Scheduler
}

func newFixture(t *testing.T, interval time.Duration) *fixture {
	t.Helper()
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	exec := &countingExecutor{}
	cache := query.New(query.Config{Executor: exec, Now: clk.Now})
	t.Cleanup(cache.Close)
	sched := New(versionQuery.Name, func() *query.Subscription {
		return versionQuery.Subscribe(cache, struct{}{})
	}, Config{Interval: interval, FocusDebounce: 5 * time.Second, Now: clk.Now})
	t.Cleanup(sched.Unmount)
	return &fixture{exec: exec, cache: cache, clock: clk, sched: sched}
}

func (f *fixture) mount(t *testing.T) *query.Subscription {
	t.Helper()
	sub, err := f.sched.Mount(context.Background())
	require.NoError(t, err)
	_, err = sub.Wait(testCtx(t))
	require.NoError(t, err)
	return sub
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func version(t *testing.T, e query.Entry) int {
	t.Helper()
	data, ok := query.Value[map[string]int](e)
	require.True(t, ok)
	return data["version"]
}

const longInterval = time.Hour

func TestScheduler_MountLoadsOnce(t *testing.T) {
	f := newFixture(t, longInterval)
	f.mount(t)

	require.Equal(t, 1, f.exec.Calls())
	_, err := f.sched.Mount(context.Background())
	require.ErrorIs(t, err, ErrAlreadyMounted)
}

func TestScheduler_PullToRefreshKeepsPreviousValue(t *testing.T) {
	f := newFixture(t, longInterval)
	f.mount(t)
	gate := f.exec.Gate()

	done := make(chan query.Entry, 1)
	go func() {
		e, _ := f.sched.PullToRefresh(testCtx(t))
		done <- e
	}()

	require.Eventually(t, func() bool { return f.exec.Calls() == 2 }, time.Second, 5*time.Millisecond)
	require.True(t, f.sched.Refreshing())
	cur := f.sched.Current()
	require.True(t, cur.Refreshing(), "refresh must not blank the previous value")
	require.Equal(t, 1, version(t, cur))

	close(gate)
	e := <-done
	require.Equal(t, query.StatusSuccess, e.Status)
	require.Equal(t, 2, version(t, e))
	require.False(t, f.sched.Refreshing())
}

func TestScheduler_TickSkippedWhileManualRefreshInFlight(t *testing.T) {
	f := newFixture(t, longInterval)
	f.mount(t)
	gate := f.exec.Gate()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.sched.PullToRefresh(testCtx(t))
	}()
	require.Eventually(t, f.sched.Refreshing, time.Second, 5*time.Millisecond)

	require.False(t, f.sched.Tick(testCtx(t)))
	require.False(t, f.sched.Focus(testCtx(t)))

	close(gate)
	<-done
	require.Equal(t, 2, f.exec.Calls())

	f.exec.Ungate()
	require.True(t, f.sched.Tick(testCtx(t)))
	require.Equal(t, 3, f.exec.Calls())
}

func TestScheduler_ConcurrentPullsShareOneRequest(t *testing.T) {
	f := newFixture(t, longInterval)
	f.mount(t)
	gate := f.exec.Gate()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.sched.PullToRefresh(testCtx(t))
		}()
	}
	require.Eventually(t, func() bool { return f.exec.Calls() == 2 }, time.Second, 5*time.Millisecond)
	close(gate)
	wg.Wait()

	require.Equal(t, 2, f.exec.Calls())
}

func TestScheduler_FocusDebounce(t *testing.T) {
	f := newFixture(t, longInterval)
	f.mount(t)

	f.clock.Advance(time.Second)
	require.False(t, f.sched.Focus(testCtx(t)), "fresh data must not be refetched")
	require.Equal(t, 1, f.exec.Calls())

	f.clock.Advance(10 * time.Second)
	require.True(t, f.sched.Focus(testCtx(t)))
	require.Equal(t, 2, f.exec.Calls())
	require.Equal(t, 2, version(t, f.sched.Current()))
}

func TestScheduler_FocusWhileInvalidationRefetchInFlight(t *testing.T) {
	f := newFixture(t, longInterval)
	sub := f.mount(t)
	gate := f.exec.Gate()

	f.cache.Invalidate("test", query.Coarse("Version"))
	require.Eventually(t, func() bool { return f.exec.Calls() == 2 }, time.Second, 5*time.Millisecond)

	cur := f.sched.Current()
	require.False(t, cur.FreshSince(f.clock.Now(), 5*time.Second), "invalidated data is not fresh")
	require.False(t, f.sched.Focus(testCtx(t)))
	require.Equal(t, 2, f.exec.Calls())

	close(gate)
	e, err := sub.Wait(testCtx(t))
	require.NoError(t, err)
	require.Equal(t, 2, version(t, e))
	require.True(t, e.FreshSince(f.clock.Now(), 5*time.Second))
}

func TestScheduler_TimerRefreshesUntilBlur(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.mount(t)

	require.Eventually(t, func() bool { return f.exec.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)

	f.sched.Blur()
	stopped := f.exec.Calls()
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, stopped, f.exec.Calls())

	f.clock.Advance(time.Minute)
	require.True(t, f.sched.Focus(testCtx(t)))
	require.Eventually(t, func() bool { return f.exec.Calls() >= stopped+3 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_UnmountDiscardsLateResult(t *testing.T) {
	f := newFixture(t, longInterval)
	gate := f.exec.Gate()

	sub, err := f.sched.Mount(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.exec.Calls() == 1 }, time.Second, 5*time.Millisecond)

	f.sched.Unmount()
	close(gate)

	require.Never(t, func() bool {
		select {
		case e := <-sub.Updates():
			return e.Status == query.StatusSuccess
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, 0, f.cache.Len())

	_, err = f.sched.PullToRefresh(testCtx(t))
	require.ErrorIs(t, err, ErrNotMounted)
	require.False(t, f.sched.Tick(testCtx(t)))
	require.False(t, f.sched.Focus(testCtx(t)))
}
