// Package app wires configuration, local storage, the API client, the query
// cache and the domain services into one value shared by every surface.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/config"
	"github.com/ganot/lrms-client/internal/domain/notification"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/ganot/lrms-client/internal/domain/user"
	"github.com/ganot/lrms-client/internal/endpoints"
	"github.com/ganot/lrms-client/internal/query"
	"github.com/ganot/lrms-client/internal/refresh"
	"github.com/ganot/lrms-client/internal/sqlite"
)

// App holds the wired client core.
type App struct {
	Config config.Config
	Logger *slog.Logger

	DB       *sqlite.DB
	Provider *session.Provider
	Client   *api.Client
	Cache    *query.Cache

	Auth          *session.Service
	Projects      *project.Service
	Notifications *notification.Service
	Users         *user.Service
}

// Options overrides parts of the wiring, mostly for tests.
type Options struct {
	HTTPClient *http.Client
}

// New opens the local database, restores the persisted session and builds the
// services. The caller must Close the returned App.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	provider := session.NewProvider(sqlite.NewSessionStore(db), logger.With("component", "session"))
	if err := provider.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	client := api.NewClient(api.Config{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		PreviewLength: cfg.API.PreviewLength,
		HTTPClient:    opts.HTTPClient,
		Tokens:        provider,
		Logger:        logger.With("component", "api"),
	})
	cache := query.New(query.Config{Executor: client, Logger: logger.With("component", "cache")})

	// Data cached for one account must never be shown to the next. A new
	// session refetches what is on screen; a session that ended only drops
	// what nobody watches, so a view keeps its last value and the 401.
	provider.OnChange(func(signedIn bool) {
		var n int
		if signedIn {
			n = cache.InvalidateAll("session")
		} else {
			n = cache.Expire("session_end")
		}
		if n > 0 {
			logger.Debug("session changed, cache reset", "signed_in", signedIn, "entries", n)
		}
	})

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Provider:      provider,
		Client:        client,
		Cache:         cache,
		Auth:          session.NewService(client, provider, logger.With("component", "auth")),
		Projects:      project.NewService(cache, logger.With("component", "projects")),
		Notifications: notification.NewService(cache, logger.With("component", "notifications")),
		Users:         user.NewService(cache, logger.With("component", "users")),
	}, nil
}

// Close stops in-flight fetches and closes the database.
func (a *App) Close() error {
	a.Cache.Close()
	return a.DB.Close()
}

// UserID returns the signed-in user's ID.
func (a *App) UserID(ctx context.Context) (int64, error) {
	sess, err := a.Auth.WhoAmI(ctx)
	if err != nil {
		return 0, err
	}
	return sess.UserID, nil
}

// ProjectsScheduler returns a refresh scheduler for the "my projects" list.
func (a *App) ProjectsScheduler() *refresh.Scheduler {
	return refresh.New(endpoints.OpMyProjects, a.Projects.SubscribeProjects, a.refreshConfig())
}

// NotificationsScheduler returns a refresh scheduler for userID's notifications.
func (a *App) NotificationsScheduler(userID int64) *refresh.Scheduler {
	return refresh.New(endpoints.OpNotifications, func() *query.Subscription {
		return a.Notifications.Subscribe(userID)
	}, a.refreshConfig())
}

func (a *App) refreshConfig() refresh.Config {
	return refresh.Config{
		Interval:      a.Config.Refresh.Interval,
		FocusDebounce: a.Config.Refresh.FocusDebounce,
		Logger:        a.Logger.With("component", "refresh"),
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
