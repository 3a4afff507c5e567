package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/ganot/lrms-client/internal/repository"
	"github.com/ganot/lrms-client/internal/repository/mocks"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestProvider_NoSessionFailsSilently(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(nil, repository.ErrNotFound)

	p := session.NewProvider(store, nil)
	require.NoError(t, p.Init(ctx))

	token, ok := p.CurrentToken(ctx)
	require.False(t, ok)
	require.Empty(t, token)
	store.AssertExpectations(t)
}

func TestProvider_InitLoadsStoredSession(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(&session.Session{UserID: 7, AccessToken: "tok123"}, nil)

	p := session.NewProvider(store, nil)
	require.NoError(t, p.Init(ctx))

	token, ok := p.CurrentToken(ctx)
	require.True(t, ok)
	require.Equal(t, "tok123", token)
}

func TestProvider_LazyLoadWithoutInit(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(&session.Session{UserID: 7, AccessToken: "tok123"}, nil).Once()

	p := session.NewProvider(store, nil)
	_, ok := p.CurrentToken(ctx)
	require.True(t, ok)
	_, ok = p.CurrentToken(ctx)
	require.True(t, ok)
	store.AssertExpectations(t)
}

func TestProvider_InitDiscardsTokenlessSession(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(&session.Session{UserID: 7}, nil)
	store.On("Delete", ctx).Return(nil)

	p := session.NewProvider(store, nil)
	require.NoError(t, p.Init(ctx))

	_, ok := p.CurrentToken(ctx)
	require.False(t, ok)
	store.AssertCalled(t, "Delete", ctx)
}

func TestProvider_InitDiscardsCorruptSession(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(nil, fmt.Errorf("%w: decoding stored session: bad json", repository.ErrCorrupt))
	store.On("Delete", ctx).Return(nil)

	p := session.NewProvider(store, nil)
	require.NoError(t, p.Init(ctx))

	_, ok := p.CurrentToken(ctx)
	require.False(t, ok)
	store.AssertCalled(t, "Delete", ctx)
}

func TestProvider_InitStoreError(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(nil, errors.New("disk full"))

	p := session.NewProvider(store, nil)
	err := p.Init(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "loading session")
}

func TestProvider_SetSessionRejectsEmptyToken(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}

	p := session.NewProvider(store, nil)
	require.ErrorIs(t, p.SetSession(ctx, &session.Session{UserID: 7}), session.ErrInvalidSession)
	require.ErrorIs(t, p.SetSession(ctx, &session.Session{UserID: 7, AccessToken: "  "}), session.ErrInvalidSession)
	require.ErrorIs(t, p.SetSession(ctx, nil), session.ErrInvalidSession)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProvider_SetAndClearNotifyListeners(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Save", ctx, mock.AnythingOfType("*session.Session")).Return(nil)
	store.On("Delete", ctx).Return(nil)

	p := session.NewProvider(store, nil)
	var changes []bool
	p.OnChange(func(signedIn bool) { changes = append(changes, signedIn) })

	require.NoError(t, p.SetSession(ctx, &session.Session{UserID: 7, AccessToken: "tok123"}))
	token, ok := p.CurrentToken(ctx)
	require.True(t, ok)
	require.Equal(t, "tok123", token)

	require.NoError(t, p.ClearSession(ctx))
	_, ok = p.CurrentToken(ctx)
	require.False(t, ok)
	require.Equal(t, []bool{true, false}, changes)
}

func TestProvider_SaveFailureKeepsPreviousSession(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Save", ctx, mock.Anything).Return(nil).Once()
	store.On("Save", ctx, mock.Anything).Return(errors.New("readonly")).Once()

	p := session.NewProvider(store, nil)
	require.NoError(t, p.SetSession(ctx, &session.Session{UserID: 7, AccessToken: "first"}))
	require.Error(t, p.SetSession(ctx, &session.Session{UserID: 7, AccessToken: "second"}))

	token, ok := p.CurrentToken(ctx)
	require.True(t, ok)
	require.Equal(t, "first", token)
}

func TestProvider_ExpiredJWTIsCleared(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(&session.Session{
		UserID:      7,
		AccessToken: signedToken(t, time.Now().Add(-time.Minute)),
	}, nil)
	store.On("Delete", ctx).Return(nil)

	p := session.NewProvider(store, nil)
	require.NoError(t, p.Init(ctx))
	var changes []bool
	p.OnChange(func(signedIn bool) { changes = append(changes, signedIn) })

	_, ok := p.CurrentToken(ctx)
	require.False(t, ok)
	require.Equal(t, []bool{false}, changes)
	store.AssertCalled(t, "Delete", ctx)
}

func TestProvider_UnexpiredJWTIsUsed(t *testing.T) {
	ctx := context.Background()
	token := signedToken(t, time.Now().Add(time.Hour))
	store := &mocks.SessionStore{}
	store.On("Load", ctx).Return(&session.Session{UserID: 7, AccessToken: token}, nil)

	p := session.NewProvider(store, nil)
	require.NoError(t, p.Init(ctx))

	got, ok := p.CurrentToken(ctx)
	require.True(t, ok)
	require.Equal(t, token, got)
	store.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestProvider_EndSessionMatchesToken(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Save", ctx, mock.Anything).Return(nil)
	store.On("Delete", ctx).Return(nil)

	p := session.NewProvider(store, nil)
	var changes []bool
	p.OnChange(func(signedIn bool) { changes = append(changes, signedIn) })
	require.NoError(t, p.SetSession(ctx, &session.Session{UserID: 7, AccessToken: "new"}))

	p.EndSession(ctx, "old")
	token, ok := p.CurrentToken(ctx)
	require.True(t, ok)
	require.Equal(t, "new", token)
	store.AssertNotCalled(t, "Delete", mock.Anything)

	p.EndSession(ctx, "new")
	_, ok = p.CurrentToken(ctx)
	require.False(t, ok)
	store.AssertCalled(t, "Delete", ctx)
	require.Equal(t, []bool{true, false}, changes)
}
