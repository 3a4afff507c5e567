package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ganot/lrms-client/internal/domain/user"
	"github.com/spf13/cobra"
)

func newProfileCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.UserID(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.Users.Profile(cmd.Context(), userID)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.AddCommand(newProfileUpdateCmd(a), newPasswordCmd(a))
	return cmd
}

func newPasswordCmd(a *App) *cobra.Command {
	var change user.PasswordChange

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.UserID(cmd.Context())
			if err != nil {
				return err
			}
			if change.CurrentPassword == "" {
				change.CurrentPassword = os.Getenv("LRMS_PASSWORD")
			}
			if err := a.Users.ChangePassword(cmd.Context(), userID, change); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&change.CurrentPassword, "current", "", "Current password (or LRMS_PASSWORD)")
	cmd.Flags().StringVar(&change.NewPassword, "new", "", "New password")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func newGroupsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List your research groups and their members",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.UserID(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := a.Users.Groups(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintln(out, "No groups")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintf(out, "%s (#%d)\n", g.GroupName, g.GroupID)
				for _, m := range g.Members {
					fmt.Fprintf(out, "  %s  %s  %s\n", m.FullName, m.RoleText, m.StatusText)
				}
			}
			return nil
		},
	}
}

func newDepartmentCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "department [id]",
		Short: "List the users of a department, your own by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			} else {
				userID, err := a.UserID(cmd.Context())
				if err != nil {
					return err
				}
				p, err := a.Users.Profile(cmd.Context(), userID)
				if err != nil {
					return err
				}
				id = p.DepartmentID
			}
			users, err := a.Users.DepartmentUsers(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printDepartmentUsers(out, "Lecturers", users.Lecturers)
			printDepartmentUsers(out, "Students", users.Students)
			printDepartmentUsers(out, "Staff", users.Staff)
			return nil
		},
	}
}

func printDepartmentUsers(out io.Writer, title string, users []user.DepartmentUser) {
	fmt.Fprintf(out, "%s (%d)\n", title, len(users))
	for _, u := range users {
		fmt.Fprintf(out, "  %s  %s  %s\n", u.FullName, u.LevelText, u.StatusText)
	}
}

func newProfileUpdateCmd(a *App) *cobra.Command {
	var fullName, phone string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your name or phone",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.UserID(cmd.Context())
			if err != nil {
				return err
			}
			var fields user.ProfileUpdate
			if cmd.Flags().Changed("full-name") {
				fields.FullName = &fullName
			}
			if cmd.Flags().Changed("phone") {
				fields.Phone = &phone
			}
			p, err := a.Users.UpdateProfile(cmd.Context(), userID, fields)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "", "New full name")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone number")
	return cmd
}

func printProfile(out io.Writer, p *user.Profile) {
	fmt.Fprintf(out, "%s <%s>\n", p.FullName, p.Email)
	fmt.Fprintf(out, "  Level:  %s\n", p.LevelText)
	if p.Phone != "" {
		fmt.Fprintf(out, "  Phone:  %s\n", p.Phone)
	}
	for _, g := range p.Groups {
		fmt.Fprintf(out, "  %s: %s\n", g.GroupName, g.RoleText)
	}
}
