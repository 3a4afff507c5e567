package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTag_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Tag
		want bool
	}{
		{"coarse vs coarse", Coarse("Projects"), Coarse("Projects"), true},
		{"coarse vs tagged", Coarse("Projects"), Tagged("Projects", 5), true},
		{"same id", Tagged("UserProfile", 7), Tagged("UserProfile", 7), true},
		{"different id", Tagged("UserProfile", 7), Tagged("UserProfile", 8), false},
		{"different type", Coarse("Projects"), Coarse("Notifications"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			require.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestNewKey_EqualArgsEqualKeys(t *testing.T) {
	type args struct {
		ID   int64
		Page int
	}
	require.Equal(t, NewKey("op", args{1, 2}), NewKey("op", args{1, 2}))
	require.NotEqual(t, NewKey("op", args{1, 2}), NewKey("op", args{1, 3}))
	require.NotEqual(t, NewKey("a", 1), NewKey("b", 1))
	require.Equal(t, "op(7)", NewKey("op", 7).String())
}

func TestEntry_FreshSince(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	fetched := now.Add(-time.Second)

	e := Entry{Status: StatusSuccess, Data: 1, FetchedAt: fetched}
	require.True(t, e.HasData())
	require.True(t, e.FreshSince(now, 2*time.Second))
	require.False(t, e.FreshSince(now, time.Second))

	e.InvalidatedAt = now.Add(-500 * time.Millisecond)
	require.False(t, e.FreshSince(now, 2*time.Second))

	loading := Entry{Status: StatusLoading, Data: 1, FetchedAt: fetched}
	require.True(t, loading.Refreshing())
	require.False(t, loading.Settled())
	require.False(t, loading.FreshSince(now, time.Minute))

	require.False(t, Entry{Status: StatusLoading}.Refreshing())
}
