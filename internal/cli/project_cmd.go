package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/spf13/cobra"
)

func newProjectsCmd(a *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				list []project.Project
				err  error
			)
			if refresh {
				list, err = a.Projects.RefreshProjects(cmd.Context())
			} else {
				list, err = a.Projects.MyProjects(cmd.Context())
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No projects")
				return nil
			}
			printProjects(out, list)
			printStats(out, project.ComputeStats(list))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch instead of using cached data")
	return cmd
}

func newProjectCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project <id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := a.Projects.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.AddCommand(newProjectCreateCmd(a), newProjectUpdateCmd(a), newProjectDeleteCmd(a))
	return cmd
}

func newProjectCreateCmd(a *App) *cobra.Command {
	var (
		req     project.CreateRequest
		typName string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if typName != "" {
				typ, ok := project.ParseType(typName)
				if !ok {
					return fmt.Errorf("unknown project type %q", typName)
				}
				req.ProjectType = typ
			}
			p, err := a.Projects.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (#%d), %s\n", p.ProjectName, p.ProjectID, p.Status.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ProjectName, "name", "", "Project name")
	cmd.Flags().StringVar(&typName, "type", "", "Research, Development or Other")
	cmd.Flags().StringVar(&req.Description, "description", "", "Project description")
	cmd.Flags().Float64Var(&req.ApprovedBudget, "budget", 0, "Requested budget")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "Start date")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "End date")
	cmd.Flags().Int64Var(&req.GroupID, "group", 0, "Owning research group ID")
	cmd.Flags().StringVar(&req.Methodology, "methodology", "", "Research methodology")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectUpdateCmd(a *App) *cobra.Command {
	var (
		name, typName, description, status, start, end string
		budget                                         float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var req project.UpdateRequest
			flags := cmd.Flags()
			if flags.Changed("name") {
				req.ProjectName = &name
			}
			if flags.Changed("type") {
				typ, ok := project.ParseType(typName)
				if !ok {
					return fmt.Errorf("unknown project type %q", typName)
				}
				req.ProjectType = &typ
			}
			if flags.Changed("status") {
				st, ok := project.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				req.Status = &st
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("budget") {
				req.ApprovedBudget = &budget
			}
			if flags.Changed("start") {
				req.StartDate = &start
			}
			if flags.Changed("end") {
				req.EndDate = &end
			}
			if _, err := a.Projects.Update(cmd.Context(), id, req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&typName, "type", "", "Research, Development or Other")
	cmd.Flags().StringVar(&status, "status", "", "Pending, Approved or Rejected")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().Float64Var(&budget, "budget", 0, "New budget")
	cmd.Flags().StringVar(&start, "start", "", "New start date")
	cmd.Flags().StringVar(&end, "end", "", "New end date")
	return cmd
}

func newProjectDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Projects.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
			return nil
		},
	}
}

func newStatsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count your projects by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.Projects.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func printProjects(out io.Writer, list []project.Project) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tGROUP")
	for _, p := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ProjectID, p.ProjectName, p.ProjectType.Label(), p.Status.Label(), p.GroupName)
	}
	w.Flush()
}

func printStats(out io.Writer, s project.Stats) {
	fmt.Fprintf(out, "Total %d  Pending %d  Approved %d  Rejected %d", s.Total, s.Pending, s.Approved, s.Rejected)
	if s.Unknown > 0 {
		fmt.Fprintf(out, "  Unknown %d", s.Unknown)
	}
	fmt.Fprintln(out)
}

func printDetail(out io.Writer, d *project.Detail) {
	fmt.Fprintf(out, "%s (#%d)\n", d.ProjectName, d.ProjectID)
	fmt.Fprintf(out, "  Status:  %s\n", d.Status.Label())
	fmt.Fprintf(out, "  Type:    %s\n", d.ProjectType.Label())
	if d.StartDate != "" || d.EndDate != "" {
		fmt.Fprintf(out, "  Period:  %s - %s\n", d.StartDate, d.EndDate)
	}
	if d.ApprovedBudget > 0 {
		fmt.Fprintf(out, "  Budget:  %.2f\n", d.ApprovedBudget)
	}
	if d.Group != nil {
		fmt.Fprintf(out, "  Group:   %s\n", d.Group.GroupName)
	} else if d.GroupName != "" {
		fmt.Fprintf(out, "  Group:   %s\n", d.GroupName)
	}
	if d.Department != nil {
		fmt.Fprintf(out, "  Dept:    %s\n", d.Department.DepartmentName)
	}
	if d.Description != "" {
		fmt.Fprintf(out, "\n%s\n", d.Description)
	}
	fmt.Fprintf(out, "\nDocuments (%d)\n", len(d.Documents))
	for _, doc := range d.Documents {
		fmt.Fprintf(out, "  - %s\n", doc.FileName)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
