package cli

import (
	"fmt"
	"io"

	"github.com/ganot/lrms-client/internal/domain/notification"
	"github.com/spf13/cobra"
)

func newNotificationsCmd(a *App) *cobra.Command {
	var refresh, unread bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List your notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.UserID(cmd.Context())
			if err != nil {
				return err
			}
			var list []notification.Notification
			if refresh {
				list, err = a.Notifications.Refresh(cmd.Context(), userID)
			} else {
				list, err = a.Notifications.List(cmd.Context(), userID)
			}
			if err != nil {
				return err
			}
			printNotifications(cmd.OutOrStdout(), list, unread)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch instead of using cached data")
	cmd.Flags().BoolVar(&unread, "unread", false, "Only show unread notifications")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Notifications.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted notification %d\n", id)
			return nil
		},
	})
	return cmd
}

func newReadCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Notifications.MarkAsRead(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked notification %d as read\n", id)
			return nil
		},
	}
}

func newInvitationCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invitation",
		Short: "Answer group invitations",
	}
	for _, d := range []notification.Decision{notification.Accept, notification.Reject} {
		d := d
		cmd.AddCommand(&cobra.Command{
			Use:   string(d) + " <invitation-id>",
			Short: "Answer an invitation with " + string(d),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.Notifications.Respond(cmd.Context(), id, d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invitation %d: %sed\n", id, d)
				return nil
			},
		})
	}
	return cmd
}

func printNotifications(out io.Writer, list []notification.Notification, unreadOnly bool) {
	fmt.Fprintf(out, "%d unread\n", notification.UnreadCount(list))
	for _, n := range list {
		if unreadOnly && n.IsRead {
			continue
		}
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %d  %s", mark, n.NotificationID, n.Title)
		if n.IsInvitation() {
			fmt.Fprintf(out, "  [invitation %d]", *n.InvitationID)
		}
		fmt.Fprintln(out)
	}
}
