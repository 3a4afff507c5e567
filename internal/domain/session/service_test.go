package session_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/ganot/lrms-client/internal/endpoints"
	"github.com/ganot/lrms-client/internal/sqlite"
	"github.com/ganot/lrms-client/internal/testserver"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv      *testserver.Server
	store    *sqlite.SessionStore
	provider *session.Provider
	client   *api.Client
	svc      *session.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := testserver.New(t)
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewSessionStore(db)
	provider := session.NewProvider(store, nil)
	require.NoError(t, provider.Init(context.Background()))
	client := api.NewClient(api.Config{BaseURL: srv.URL, Tokens: provider})
	return &harness{
		srv:      srv,
		store:    store,
		provider: provider,
		client:   client,
		svc:      session.NewService(client, provider, nil),
	}
}

func TestService_LoginPersistsTokenAndAuthorizesRequests(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.svc.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)
	require.Equal(t, testserver.DefaultUserID, sess.UserID)
	require.Equal(t, testserver.DefaultToken, sess.AccessToken)

	stored, err := h.store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, testserver.DefaultToken, stored.AccessToken)

	_, err = h.client.Execute(ctx, api.Call{
		Name:   endpoints.OpMyProjects,
		Method: http.MethodGet,
		Path:   endpoints.MyProjects(),
		Auth:   true,
	})
	require.NoError(t, err)

	reqs := h.srv.Requests()
	require.Equal(t, "Bearer "+testserver.DefaultToken, reqs[len(reqs)-1].Authorization)
	require.Empty(t, reqs[0].Authorization, "login must not send a token")
}

func TestService_SessionSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)

	restarted := session.NewProvider(h.store, nil)
	require.NoError(t, restarted.Init(ctx))
	token, ok := restarted.CurrentToken(ctx)
	require.True(t, ok)
	require.Equal(t, testserver.DefaultToken, token)
}

func TestService_LoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Login(ctx, testserver.DefaultEmail, "wrong")
	require.Error(t, err)
	require.Equal(t, api.KindHTTP, api.KindOf(err))
	require.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	require.Contains(t, err.Error(), "Invalid email or password")

	_, ok := h.provider.CurrentToken(ctx)
	require.False(t, ok)
}

func TestService_LoginValidatesInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Login(context.Background(), " ", "secret")
	require.ErrorIs(t, err, session.ErrInvalidInput)
	_, err = h.svc.Login(context.Background(), testserver.DefaultEmail, "")
	require.ErrorIs(t, err, session.ErrInvalidInput)
	require.Empty(t, h.srv.Requests())
}

func TestService_AuthenticatedCallWithoutSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Execute(context.Background(), api.Call{
		Method: http.MethodGet,
		Path:   endpoints.MyProjects(),
		Auth:   true,
	})
	require.ErrorIs(t, err, api.ErrAuthRequired)
	require.Empty(t, h.srv.Requests())
}

func TestService_ExpiredSessionOnServer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)

	h.srv.ExpireSessions()
	_, err = h.client.Execute(ctx, api.Call{Method: http.MethodGet, Path: endpoints.MyProjects(), Auth: true})
	require.ErrorIs(t, err, api.ErrSessionExpired)
}

func TestService_RegisterThenLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	acct, err := h.svc.Register(ctx, session.RegisterRequest{
		Email:    "new@b.com",
		Password: "pw",
		FullName: "New User",
	})
	require.NoError(t, err)
	require.NotZero(t, acct.UserID)

	_, ok := h.provider.CurrentToken(ctx)
	require.False(t, ok, "register must not sign in")

	sess, err := h.svc.Login(ctx, "new@b.com", "pw")
	require.NoError(t, err)
	require.Equal(t, acct.UserID, sess.UserID)

	_, err = h.svc.Register(ctx, session.RegisterRequest{Email: "new@b.com", Password: "pw", FullName: "Again"})
	require.Equal(t, http.StatusConflict, api.StatusOf(err))
}

func TestService_LogoutAndWhoAmI(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.WhoAmI(ctx)
	require.ErrorIs(t, err, session.ErrNotLoggedIn)

	_, err = h.svc.Login(ctx, testserver.DefaultEmail, testserver.DefaultPassword)
	require.NoError(t, err)
	me, err := h.svc.WhoAmI(ctx)
	require.NoError(t, err)
	require.Equal(t, testserver.DefaultFullName, me.FullName)

	require.NoError(t, h.svc.Logout(ctx))
	_, err = h.svc.WhoAmI(ctx)
	require.ErrorIs(t, err, session.ErrNotLoggedIn)
	_, err = h.store.Load(ctx)
	require.Error(t, err)
}
