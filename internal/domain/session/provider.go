package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ganot/lrms-client/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// Provider holds the current session and hands its token to the API client.
type Provider struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	loaded    bool
	current   *Session
	listeners []func(signedIn bool)
}

// NewProvider creates a provider backed by store.
func NewProvider(store Store, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Provider{store: store, logger: logger, now: time.Now}
}

// OnChange registers fn to run after the session is set, cleared or ends.
// signedIn reports whether a session exists afterwards.
func (p *Provider) OnChange(fn func(signedIn bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Init loads the persisted session. A stored session that is undecodable or
// has no token is discarded; only store I/O failures are returned.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked(ctx)
}

func (p *Provider) loadLocked(ctx context.Context) error {
	p.loaded = true
	sess, err := p.store.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			p.current = nil
			return nil
		case errors.Is(err, repository.ErrCorrupt):
			p.logger.Warn("discarding undecodable stored session", "error", err)
			return p.discardLocked(ctx)
		}
		return fmt.Errorf("loading session: %w", err)
	}
	if sess == nil || strings.TrimSpace(sess.AccessToken) == "" {
		p.logger.Warn("discarding stored session without access token")
		return p.discardLocked(ctx)
	}
	p.current = sess
	return nil
}

func (p *Provider) discardLocked(ctx context.Context) error {
	p.current = nil
	if err := p.store.Delete(ctx); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CurrentToken returns the access token of the current session. It reports
// false when nobody is signed in or the token has expired.
func (p *Provider) CurrentToken(ctx context.Context) (string, bool) {
	sess, ok := p.Current(ctx)
	if !ok {
		return "", false
	}
	return sess.AccessToken, true
}

// Current returns a copy of the current session.
func (p *Provider) Current(ctx context.Context) (*Session, bool) {
	p.mu.Lock()
	if !p.loaded {
		if err := p.loadLocked(ctx); err != nil {
			p.logger.Warn("failed to load session", "error", err)
		}
	}
	sess := p.current
	if sess == nil {
		p.mu.Unlock()
		return nil, false
	}
	if exp, ok := tokenExpiry(sess.AccessToken); ok && !p.now().Before(exp) {
		p.logger.Info("session token expired", "user_id", sess.UserID, "expired_at", exp)
		p.current = nil
		if err := p.store.Delete(ctx); err != nil {
			p.logger.Warn("failed to delete expired session", "error", err)
		}
		listeners := p.listeners
		p.mu.Unlock()
		notify(listeners, false)
		return nil, false
	}
	cp := *sess
	p.mu.Unlock()
	return &cp, true
}

// SetSession stores sess as the current session.
func (p *Provider) SetSession(ctx context.Context, sess *Session) error {
	if sess == nil || strings.TrimSpace(sess.AccessToken) == "" {
		return ErrInvalidSession
	}
	cp := *sess
	cp.SavedAt = p.now().UTC()

	p.mu.Lock()
	if err := p.store.Save(ctx, &cp); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("saving session: %w", err)
	}
	p.current = &cp
	p.loaded = true
	listeners := p.listeners
	p.mu.Unlock()

	notify(listeners, true)
	return nil
}

// ClearSession signs out locally.
func (p *Provider) ClearSession(ctx context.Context) error {
	p.mu.Lock()
	if err := p.store.Delete(ctx); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("deleting session: %w", err)
	}
	p.current = nil
	p.loaded = true
	listeners := p.listeners
	p.mu.Unlock()

	notify(listeners, false)
	return nil
}

// EndSession drops the session whose token the server rejected. A session
// set since then, with a different token, is kept.
func (p *Provider) EndSession(ctx context.Context, token string) {
	p.mu.Lock()
	if p.current == nil || p.current.AccessToken != token {
		p.mu.Unlock()
		return
	}
	p.logger.Info("session rejected by server", "user_id", p.current.UserID)
	p.current = nil
	if err := p.store.Delete(ctx); err != nil {
		p.logger.Warn("failed to delete rejected session", "error", err)
	}
	listeners := p.listeners
	p.mu.Unlock()

	notify(listeners, false)
}

func notify(listeners []func(bool), signedIn bool) {
	for _, fn := range listeners {
		fn(signedIn)
	}
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens have no local expiry.
func tokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
