package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/ganot/lrms-client/internal/repository"
)

// SessionKey is the state key holding the signed-in session.
const SessionKey = "userData"

// SessionStore implements session.Store on top of the local state table
type SessionStore struct {
	state *StateStore
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{state: NewStateStore(db)}
}

// Load returns the stored session, repository.ErrNotFound when nothing is
// stored or repository.ErrCorrupt when the value cannot be decoded.
func (s *SessionStore) Load(ctx context.Context) (*session.Session, error) {
	raw, err := s.state.Get(ctx, SessionKey)
	if err != nil {
		return nil, err
	}
	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("%w: decoding stored session: %w", repository.ErrCorrupt, err)
	}
	return &sess, nil
}

// Save replaces the stored session.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return repository.ErrInvalidInput
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.state.Put(ctx, SessionKey, string(data))
}

// Delete removes the stored session.
func (s *SessionStore) Delete(ctx context.Context) error {
	return s.state.Delete(ctx, SessionKey)
}
