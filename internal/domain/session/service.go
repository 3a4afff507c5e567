package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/endpoints"
)

// Service handles sign-in and sign-out.
type Service struct {
	exec     Executor
	provider *Provider
	logger   *slog.Logger
}

// NewService creates a new session service.
func NewService(exec Executor, provider *Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		exec:     exec,
		provider: provider,
		logger:   logger,
	}
}

// Login authenticates and persists the returned session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	data, err := s.exec.Execute(ctx, api.Call{
		Name:   endpoints.OpLogin,
		Method: http.MethodPost,
		Path:   endpoints.Login(),
		Body:   Credentials{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &api.Error{Kind: api.KindParse, Message: "failed to decode login response", Err: err}
	}
	if err := s.provider.SetSession(ctx, &sess); err != nil {
		return nil, err
	}

	s.logger.Info("logged in", "user_id", sess.UserID)
	current, _ := s.provider.Current(ctx)
	return current, nil
}

// Register creates an account. The caller still has to log in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, ErrInvalidInput
	}

	data, err := s.exec.Execute(ctx, api.Call{
		Name:   endpoints.OpRegister,
		Method: http.MethodPost,
		Path:   endpoints.Register(),
		Body:   req,
	})
	if err != nil {
		return nil, err
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, &api.Error{Kind: api.KindParse, Message: "failed to decode register response", Err: err}
	}
	return &acct, nil
}

// Logout clears the local session. The backend keeps no logout state.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.provider.ClearSession(ctx); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// WhoAmI returns the current session.
func (s *Service) WhoAmI(ctx context.Context) (*Session, error) {
	sess, ok := s.provider.Current(ctx)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return sess, nil
}

// Provider returns the token provider backing this service.
func (s *Service) Provider() *Provider {
	return s.provider
}
