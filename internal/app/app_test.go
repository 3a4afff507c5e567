package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/config"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/ganot/lrms-client/internal/endpoints"
	"github.com/ganot/lrms-client/internal/query"
	"github.com/ganot/lrms-client/internal/sqlite"
	"github.com/ganot/lrms-client/internal/testserver"
	"github.com/stretchr/testify/require"
)

func testConfig(srv *testserver.Server, dbPath string) config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.DB.Path = dbPath
	return cfg
}

func TestApp_SessionChangeResetsCache(t *testing.T) {
	ctx := context.Background()
	srv := testserver.New(t)
	srv.SetProjects(testserver.Project{ProjectID: 1, ProjectName: "Corpus"})

	a, err := New(ctx, testConfig(srv, ":memory:"), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = a.Auth.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)
	_, err = a.Projects.MyProjects(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, a.Cache.Len())

	require.NoError(t, a.Auth.Logout(ctx))
	require.Equal(t, 0, a.Cache.Len())

	_, err = a.Auth.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)
	_, err = a.Projects.MyProjects(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, srv.Count(http.MethodGet, endpoints.MyProjects()))
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	srv := testserver.New(t)
	dbPath := filepath.Join(t.TempDir(), "state", "lrms.db")

	a, err := New(ctx, testConfig(srv, dbPath), nil, Options{})
	require.NoError(t, err)
	_, err = a.Auth.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := New(ctx, testConfig(srv, dbPath), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	id, err := b.UserID(ctx)
	require.NoError(t, err)
	require.Equal(t, testserver.DefaultUserID, id)
}

func TestApp_ProjectsScheduler(t *testing.T) {
	ctx := context.Background()
	srv := testserver.New(t)
	srv.SetProjects(testserver.Project{ProjectID: 1, ProjectName: "Corpus"})

	a, err := New(ctx, testConfig(srv, ":memory:"), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	_, err = a.Auth.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)

	sched := a.ProjectsScheduler()
	sub, err := sched.Mount(ctx)
	require.NoError(t, err)
	t.Cleanup(sched.Unmount)

	e, err := sub.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, e.Err)

	_, err = sched.PullToRefresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, srv.Count(http.MethodGet, endpoints.MyProjects()))
}

func TestApp_ServerRejectionEndsSession(t *testing.T) {
	ctx := context.Background()
	srv := testserver.New(t)
	srv.SetProjects(testserver.Project{ProjectID: 1, ProjectName: "Corpus"})

	a, err := New(ctx, testConfig(srv, ":memory:"), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	_, err = a.Auth.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)

	srv.ExpireSessions()
	_, err = a.Projects.MyProjects(ctx)
	require.ErrorIs(t, err, api.ErrSessionExpired)

	_, err = a.Auth.WhoAmI(ctx)
	require.ErrorIs(t, err, session.ErrNotLoggedIn)
	_, ok := a.Provider.CurrentToken(ctx)
	require.False(t, ok)

	// The next call fails locally instead of reusing the rejected token.
	_, err = a.Projects.MyProjects(ctx)
	require.ErrorIs(t, err, api.ErrAuthRequired)
	require.Equal(t, 1, srv.Count(http.MethodGet, endpoints.MyProjects()))
}

func TestApp_SubscribedEntryKeepsDataOnSessionExpiry(t *testing.T) {
	ctx := context.Background()
	srv := testserver.New(t)
	srv.SetProjects(testserver.Project{ProjectID: 1, ProjectName: "Corpus"})

	a, err := New(ctx, testConfig(srv, ":memory:"), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	_, err = a.Auth.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)

	sub := a.Projects.SubscribeProjects()
	t.Cleanup(sub.Close)
	e, err := sub.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, e.Err)

	srv.ExpireSessions()
	_, err = sub.Reload(ctx)
	require.NoError(t, err)

	e, err = sub.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, query.StatusError, e.Status)
	require.Equal(t, api.KindSessionExpired, api.KindOf(e.Err))
	list, ok := query.Value[[]project.Project](e)
	require.True(t, ok)
	require.Len(t, list, 1)

	_, err = a.Auth.WhoAmI(ctx)
	require.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestApp_CorruptStoredSessionStartsSignedOut(t *testing.T) {
	ctx := context.Background()
	srv := testserver.New(t)
	dbPath := filepath.Join(t.TempDir(), "lrms.db")

	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	require.NoError(t, sqlite.NewStateStore(db).Put(ctx, sqlite.SessionKey, "{not json"))
	require.NoError(t, db.Close())

	a, err := New(ctx, testConfig(srv, dbPath), nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = a.Auth.WhoAmI(ctx)
	require.ErrorIs(t, err, session.ErrNotLoggedIn)
	_, err = a.Auth.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)
}
