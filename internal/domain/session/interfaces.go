package session

import (
	"context"
	"encoding/json"

	"github.com/ganot/lrms-client/internal/api"
)

// Store persists the single signed-in session.
// Load returns repository.ErrNotFound when nothing is stored.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context) error
}

// Executor runs an API call and returns the envelope data.
type Executor interface {
	Execute(ctx context.Context, call api.Call) (json.RawMessage, error)
}
