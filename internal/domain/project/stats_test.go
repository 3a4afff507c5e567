package project_test

import (
	"testing"

	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name     string
		statuses []project.Status
		want     project.Stats
	}{
		{
			name: "empty",
			want: project.Stats{},
		},
		{
			name:     "mixed",
			statuses: []project.Status{0, 1, 1, 2, 0},
			want:     project.Stats{Total: 5, Pending: 2, Approved: 2, Rejected: 1},
		},
		{
			name:     "all approved",
			statuses: []project.Status{1, 1, 1},
			want:     project.Stats{Total: 3, Approved: 3},
		},
		{
			name:     "unknown statuses counted separately",
			statuses: []project.Status{0, 3, -1, 2},
			want:     project.Stats{Total: 4, Pending: 1, Rejected: 1, Unknown: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects := make([]project.Project, len(tt.statuses))
			for i, s := range tt.statuses {
				projects[i] = project.Project{ProjectID: int64(i + 1), Status: s}
			}
			got := project.ComputeStats(projects)
			require.Equal(t, tt.want, got)
			require.Equal(t, got.Total, got.Pending+got.Approved+got.Rejected+got.Unknown)
		})
	}
}

func TestLabels(t *testing.T) {
	require.Equal(t, "Pending", project.StatusPending.Label())
	require.Equal(t, "Approved", project.StatusApproved.Label())
	require.Equal(t, "Rejected", project.StatusRejected.Label())
	require.Equal(t, "Unknown", project.Status(9).Label())

	require.Equal(t, "Research", project.TypeResearch.Label())
	require.Equal(t, "Development", project.TypeDevelopment.Label())
	require.Equal(t, "Other", project.TypeOther.Label())
	require.Equal(t, "Unknown", project.Type(-1).Label())
}

func TestParseLabels(t *testing.T) {
	st, ok := project.ParseStatus(" approved ")
	require.True(t, ok)
	require.Equal(t, project.StatusApproved, st)
	_, ok = project.ParseStatus("done")
	require.False(t, ok)

	typ, ok := project.ParseType("Development")
	require.True(t, ok)
	require.Equal(t, project.TypeDevelopment, typ)
	_, ok = project.ParseType("unknown")
	require.False(t, ok)
}
