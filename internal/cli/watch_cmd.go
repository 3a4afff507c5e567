package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/domain/notification"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/query"
	"github.com/ganot/lrms-client/internal/refresh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(a *App) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow project stats and unread notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			userID, err := a.UserID(ctx)
			if err != nil {
				return err
			}

			out := &lockedWriter{w: cmd.OutOrStdout()}
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return follow(ctx, a.ProjectsScheduler(), func(e query.Entry) {
					list, _ := query.Value[[]project.Project](e)
					s := project.ComputeStats(list)
					fmt.Fprintf(out, "projects: total %d pending %d approved %d rejected %d\n", s.Total, s.Pending, s.Approved, s.Rejected)
				}, out)
			})
			g.Go(func() error {
				return follow(ctx, a.NotificationsScheduler(userID), func(e query.Entry) {
					list, _ := query.Value[[]notification.Notification](e)
					fmt.Fprintf(out, "notifications: %d unread\n", notification.UnreadCount(list))
				}, out)
			})

			err = g.Wait()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (0 runs until interrupted)")
	return cmd
}

// follow mounts sched and reports every settled snapshot until ctx is done or
// the session ends.
func follow(ctx context.Context, sched *refresh.Scheduler, report func(query.Entry), out io.Writer) error {
	if _, err := sched.Mount(ctx); err != nil {
		return err
	}
	defer sched.Unmount()

	updates := sched.Updates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-updates:
			if !ok {
				return nil
			}
			if !e.Settled() {
				continue
			}
			if api.IsSessionEnd(e.Err) {
				return fmt.Errorf("%s: %w (run \"lrms login\")", e.Key.Operation, e.Err)
			}
			if e.Err != nil {
				fmt.Fprintf(out, "%s: %v\n", e.Key.Operation, e.Err)
				continue
			}
			report(e)
		}
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
