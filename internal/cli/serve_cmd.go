package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ganot/lrms-client/internal/mcp"
	"github.com/ganot/lrms-client/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *App) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the client as an MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode == "" {
				mode = a.Config.Transport.Mode
			}
			server := mcp.NewServer(mcp.Config{
				Services: mcp.Services{
					Auth:          a.Auth,
					Projects:      a.Projects,
					Notifications: a.Notifications,
					Users:         a.Users,
				},
				Version: a.Version,
				Logger:  a.Logger.With("component", "mcp"),
			})

			switch mode {
			case "stdio":
				return runStdio(cmd.Context(), a, server)
			case "http":
				return runHTTP(cmd.Context(), a, server)
			default:
				return fmt.Errorf("unknown transport %q", mode)
			}
		},
	}

	cmd.Flags().StringVar(&mode, "transport", "", "stdio or http (default from config)")
	return cmd
}

func runStdio(ctx context.Context, a *App, server *sdkmcp.Server) error {
	a.Logger.Info("starting stdio transport")
	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTP(ctx context.Context, a *App, server *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	rc := transport.RouterConfig{MCP: mcpHandler, Logger: a.Logger.With("component", "http")}
	if a.Config.Auth.Enabled {
		rc.Auth = transport.AuthMiddleware(a.Config.Auth.Token)
	}

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewRouter(rc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", addr, "auth", a.Config.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
