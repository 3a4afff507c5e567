package project_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/endpoints"
	"github.com/ganot/lrms-client/internal/query"
	"github.com/ganot/lrms-client/internal/testserver"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*project.Service, *testserver.Server) {
	t.Helper()
	srv := testserver.New(t)
	cache := query.New(query.Config{Executor: srv.Client()})
	t.Cleanup(cache.Close)
	return project.NewService(cache, nil), srv
}

func seedProjects(srv *testserver.Server) {
	srv.SetProjects(
		testserver.Project{ProjectID: 1, ProjectName: "Corpus", Status: 0},
		testserver.Project{ProjectID: 2, ProjectName: "Parser", Status: 1, Documents: []testserver.Document{
			{DocumentID: 10, FileName: "proposal.pdf", DocumentType: 0},
		}},
		testserver.Project{ProjectID: 3, ProjectName: "Survey", Status: 2},
	)
}

func TestProjectService_MyProjectsIsCached(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	list, err := svc.MyProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	_, err = svc.MyProjects(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, srv.Count(http.MethodGet, endpoints.MyProjects()))
}

func TestProjectService_MyProjectsEmpty(t *testing.T) {
	svc, _ := newService(t)

	list, err := svc.MyProjects(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, project.Stats{}, stats)
}

func TestProjectService_StatsFollowRefresh(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, project.Stats{Total: 3, Pending: 1, Approved: 1, Rejected: 1}, stats)

	srv.SetProjectStatus(1, 1)
	_, err = svc.RefreshProjects(ctx)
	require.NoError(t, err)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, project.Stats{Total: 3, Approved: 2, Rejected: 1}, stats)
}

func TestProjectService_Detail(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	d, err := svc.Detail(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Parser", d.ProjectName)
	require.Equal(t, project.StatusApproved, d.Status)
	require.Len(t, d.Documents, 1)
	require.Equal(t, "proposal.pdf", d.Documents[0].FileName)

	d, err = svc.Detail(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, d.Documents)
	require.Empty(t, d.Documents)

	_, err = svc.Detail(ctx, 99)
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	_, err = svc.Detail(ctx, 0)
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_CreateInvalidatesList(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	sub := svc.SubscribeProjects()
	defer sub.Close()
	_, err := sub.Wait(ctx)
	require.NoError(t, err)

	created, err := svc.Create(ctx, project.CreateRequest{ProjectName: "  New  ", ProjectType: project.TypeDevelopment})
	require.NoError(t, err)
	require.Equal(t, "New", created.ProjectName)

	require.Eventually(t, func() bool {
		e := sub.Current()
		list, ok := query.Value[[]project.Project](e)
		return e.Status == query.StatusSuccess && ok && len(list) == 4
	}, waitFor, tick)
	require.Equal(t, 2, srv.Count(http.MethodGet, endpoints.MyProjects()))
}

func TestProjectService_CreateValidation(t *testing.T) {
	svc, srv := newService(t)
	_, err := svc.Create(context.Background(), project.CreateRequest{ProjectName: " "})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	require.Empty(t, srv.Requests())
}

func TestProjectService_DeleteInvalidatesListAndDetail(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	_, err := svc.MyProjects(ctx)
	require.NoError(t, err)
	_, err = svc.Detail(ctx, 3)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 3))

	list, err := svc.MyProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	_, err = svc.Detail(ctx, 3)
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_DeleteFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	_, err := svc.MyProjects(ctx)
	require.NoError(t, err)

	err = svc.Delete(ctx, 42)
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	_, err = svc.MyProjects(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, srv.Count(http.MethodGet, endpoints.MyProjects()))
}

func TestProjectService_UpdateRefreshesListAndDetail(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	sub := svc.SubscribeProjects()
	defer sub.Close()
	_, err := sub.Wait(ctx)
	require.NoError(t, err)
	_, err = svc.Detail(ctx, 1)
	require.NoError(t, err)

	approved := project.StatusApproved
	name := " Corpus v2 "
	updated, err := svc.Update(ctx, 1, project.UpdateRequest{ProjectName: &name, Status: &approved})
	require.NoError(t, err)
	require.Equal(t, "Corpus v2", updated.ProjectName)
	require.Equal(t, project.StatusApproved, updated.Status)

	require.Eventually(t, func() bool {
		e := sub.Current()
		list, ok := query.Value[[]project.Project](e)
		return e.Status == query.StatusSuccess && ok && list[0].Status == project.StatusApproved
	}, waitFor, tick)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, project.Stats{Total: 3, Approved: 2, Rejected: 1}, stats)

	d, err := svc.Detail(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Corpus v2", d.ProjectName)
	require.Equal(t, 2, srv.Count(http.MethodGet, endpoints.ProjectDetail(1)))
}

func TestProjectService_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	_, err := svc.Update(ctx, 1, project.UpdateRequest{})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	blank := "  "
	_, err = svc.Update(ctx, 1, project.UpdateRequest{ProjectName: &blank})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	require.Empty(t, srv.Requests())

	desc := "x"
	_, err = svc.Update(ctx, 99, project.UpdateRequest{Description: &desc})
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProject_DocumentsDecodeOnListEntries(t *testing.T) {
	ctx := context.Background()
	svc, srv := newService(t)
	seedProjects(srv)

	list, err := svc.MyProjects(ctx)
	require.NoError(t, err)
	require.Empty(t, list[0].Documents)
	require.Len(t, list[1].Documents, 1)
	require.Equal(t, "proposal.pdf", list[1].Documents[0].FileName)
}
