package cli

import (
	"github.com/ganot/lrms-client/internal/app"
	"github.com/spf13/cobra"
)

// App is the wired client core used by every command.
type App struct {
	*app.App
	Version string
}

// NewRootCmd creates the top-level "lrms" command and registers all
// subcommands against the provided App.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "lrms",
		Short:         "LRMS research management client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoAmICmd(a),
		newProjectsCmd(a),
		newProjectCmd(a),
		newStatsCmd(a),
		newNotificationsCmd(a),
		newReadCmd(a),
		newInvitationCmd(a),
		newProfileCmd(a),
		newGroupsCmd(a),
		newDepartmentCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
	)

	return root
}
