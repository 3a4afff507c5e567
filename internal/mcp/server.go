package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/ganot/lrms-client/internal/domain/notification"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/ganot/lrms-client/internal/domain/user"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AuthService defines session operations needed by MCP.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*session.Session, error)
}

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	MyProjects(ctx context.Context) ([]project.Project, error)
	RefreshProjects(ctx context.Context) ([]project.Project, error)
	Detail(ctx context.Context, id int64) (*project.Detail, error)
	Stats(ctx context.Context) (project.Stats, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Update(ctx context.Context, id int64, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, id int64) error
}

// NotificationService defines notification operations needed by MCP.
type NotificationService interface {
	List(ctx context.Context, userID int64) ([]notification.Notification, error)
	Refresh(ctx context.Context, userID int64) ([]notification.Notification, error)
	MarkAsRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Respond(ctx context.Context, invitationID int64, d notification.Decision) error
}

// UserService defines profile operations needed by MCP.
type UserService interface {
	Profile(ctx context.Context, id int64) (*user.Profile, error)
	Groups(ctx context.Context, id int64) ([]user.Group, error)
	DepartmentUsers(ctx context.Context, id int64) (user.DepartmentUsers, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Auth          AuthService
	Projects      ProjectService
	Notifications NotificationService
	Users         UserService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "lrms",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services, logger)

	return server
}
