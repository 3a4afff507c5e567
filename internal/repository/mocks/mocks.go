package mocks

import (
	"context"

	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// SessionStore is a mock for session.Store.
type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) Load(ctx context.Context) (*session.Session, error) {
	args := m.Called(ctx)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionStore) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
