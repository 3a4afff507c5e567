package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganot/lrms-client/internal/domain/notification"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/metrics"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	readOnly    = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
	destructive = true
)

// registerTools adds every LRMS tool to server.
func registerTools(server *sdkmcp.Server, svc Services, logger *slog.Logger) {
	t := &tools{svc: svc}

	// Session
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "login",
		Description: "Sign in to LRMS. The session is stored locally and reused until logout or expiry.",
	}, t.login)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "logout",
		Description: "Sign out and clear all cached data",
	}, t.logout)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "whoami",
		Description: "Return the signed-in user",
		Annotations: readOnly,
	}, t.whoami)

	// Projects
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "list_my_projects",
		Description: "List the signed-in user's projects with status counts",
		Annotations: readOnly,
	}, t.listMyProjects)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get one project with documents, people and department",
		Annotations: readOnly,
	}, t.getProject)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "project_stats",
		Description: "Count the signed-in user's projects by status",
		Annotations: readOnly,
	}, t.projectStats)

	addTool(server, logger, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a project owned by the signed-in user. It starts as Pending.",
	}, t.createProject)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "update_project",
		Description: "Change fields of one project. Omitted fields are left unchanged.",
	}, t.updateProject)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete one project",
		Annotations: &sdkmcp.ToolAnnotations{DestructiveHint: &destructive},
	}, t.deleteProject)

	// Profile
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "get_profile",
		Description: "Get the signed-in user's profile with academic level and group roles",
		Annotations: readOnly,
	}, t.getProfile)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "list_my_groups",
		Description: "List the signed-in user's research groups with members, roles and statuses",
		Annotations: readOnly,
	}, t.listMyGroups)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "list_department_users",
		Description: "List a department's users split into lecturers, students and staff",
		Annotations: readOnly,
	}, t.listDepartmentUsers)

	// Notifications
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "list_notifications",
		Description: "List the signed-in user's notifications with the unread count",
		Annotations: readOnly,
	}, t.listNotifications)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "mark_notification_read",
		Description: "Mark one notification as read",
	}, t.markNotificationRead)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "delete_notification",
		Description: "Delete one notification",
	}, t.deleteNotification)
	addTool(server, logger, &sdkmcp.Tool{
		Name:        "respond_invitation",
		Description: "Accept or reject a group invitation",
	}, t.respondInvitation)
}

// addTool registers fn with metrics, logging and error mapping.
func addTool[In, Out any](server *sdkmcp.Server, logger *slog.Logger, tool *sdkmcp.Tool, fn func(context.Context, In) (Out, error)) {
	sdkmcp.AddTool(server, tool, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		out, err := fn(ctx, in)
		if err != nil {
			metrics.ToolCalls.WithLabelValues(tool.Name, "error").Inc()
			logger.Warn("tool failed", "tool", tool.Name, "error", err)
			var zero Out
			return nil, zero, toolError(err)
		}
		metrics.ToolCalls.WithLabelValues(tool.Name, "ok").Inc()
		return nil, out, nil
	})
}

type tools struct {
	svc Services
}

func (t *tools) login(ctx context.Context, in LoginParams) (SessionResponse, error) {
	sess, err := t.svc.Auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{UserID: sess.UserID, FullName: sess.FullName, Email: sess.Email}, nil
}

func (t *tools) logout(ctx context.Context, _ NoParams) (OKResponse, error) {
	if err := t.svc.Auth.Logout(ctx); err != nil {
		return OKResponse{}, err
	}
	return OKResponse{OK: true}, nil
}

func (t *tools) whoami(ctx context.Context, _ NoParams) (SessionResponse, error) {
	sess, err := t.svc.Auth.WhoAmI(ctx)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{UserID: sess.UserID, FullName: sess.FullName, Email: sess.Email}, nil
}

func (t *tools) projects(ctx context.Context, refresh bool) ([]project.Project, error) {
	if refresh {
		return t.svc.Projects.RefreshProjects(ctx)
	}
	return t.svc.Projects.MyProjects(ctx)
}

func (t *tools) listMyProjects(ctx context.Context, in ListProjectsParams) (ListProjectsResponse, error) {
	list, err := t.projects(ctx, in.Refresh)
	if err != nil {
		return ListProjectsResponse{}, err
	}
	resp := ListProjectsResponse{
		Projects: make([]ProjectSummaryResponse, 0, len(list)),
		Stats:    toStats(project.ComputeStats(list)),
	}
	for _, p := range list {
		resp.Projects = append(resp.Projects, toProjectSummary(p))
	}
	return resp, nil
}

func (t *tools) getProject(ctx context.Context, in GetProjectParams) (ProjectDetailResponse, error) {
	d, err := t.svc.Projects.Detail(ctx, in.ID)
	if err != nil {
		return ProjectDetailResponse{}, err
	}
	return toProjectDetail(d), nil
}

func (t *tools) projectStats(ctx context.Context, in ListProjectsParams) (StatsResponse, error) {
	if in.Refresh {
		if _, err := t.svc.Projects.RefreshProjects(ctx); err != nil {
			return StatsResponse{}, err
		}
	}
	stats, err := t.svc.Projects.Stats(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	return toStats(stats), nil
}

func (t *tools) createProject(ctx context.Context, in CreateProjectParams) (ProjectSummaryResponse, error) {
	req := project.CreateRequest{
		ProjectName:    in.Name,
		Description:    in.Description,
		ApprovedBudget: in.ApprovedBudget,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		GroupID:        in.GroupID,
		Methodology:    in.Methodology,
	}
	if in.Type != "" {
		typ, ok := project.ParseType(in.Type)
		if !ok {
			return ProjectSummaryResponse{}, fmt.Errorf("%w: unknown project type %q", project.ErrInvalidInput, in.Type)
		}
		req.ProjectType = typ
	}
	p, err := t.svc.Projects.Create(ctx, req)
	if err != nil {
		return ProjectSummaryResponse{}, err
	}
	return toProjectSummary(*p), nil
}

func (t *tools) updateProject(ctx context.Context, in UpdateProjectParams) (ProjectSummaryResponse, error) {
	req := project.UpdateRequest{
		ProjectName:    in.Name,
		Description:    in.Description,
		ApprovedBudget: in.Budget,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
	}
	if in.Type != nil {
		typ, ok := project.ParseType(*in.Type)
		if !ok {
			return ProjectSummaryResponse{}, fmt.Errorf("%w: unknown project type %q", project.ErrInvalidInput, *in.Type)
		}
		req.ProjectType = &typ
	}
	if in.Status != nil {
		st, ok := project.ParseStatus(*in.Status)
		if !ok {
			return ProjectSummaryResponse{}, fmt.Errorf("%w: unknown status %q", project.ErrInvalidInput, *in.Status)
		}
		req.Status = &st
	}
	p, err := t.svc.Projects.Update(ctx, in.ID, req)
	if err != nil {
		return ProjectSummaryResponse{}, err
	}
	if p == nil {
		return ProjectSummaryResponse{ID: in.ID}, nil
	}
	return toProjectSummary(*p), nil
}

func (t *tools) deleteProject(ctx context.Context, in GetProjectParams) (OKResponse, error) {
	if err := t.svc.Projects.Delete(ctx, in.ID); err != nil {
		return OKResponse{}, err
	}
	return OKResponse{OK: true}, nil
}

func (t *tools) listMyGroups(ctx context.Context, _ NoParams) (ListGroupsResponse, error) {
	sess, err := t.svc.Auth.WhoAmI(ctx)
	if err != nil {
		return ListGroupsResponse{}, err
	}
	groups, err := t.svc.Users.Groups(ctx, sess.UserID)
	if err != nil {
		return ListGroupsResponse{}, err
	}
	return toGroups(groups), nil
}

func (t *tools) listDepartmentUsers(ctx context.Context, in DepartmentParams) (DepartmentUsersResponse, error) {
	id := in.ID
	if id == 0 {
		sess, err := t.svc.Auth.WhoAmI(ctx)
		if err != nil {
			return DepartmentUsersResponse{}, err
		}
		p, err := t.svc.Users.Profile(ctx, sess.UserID)
		if err != nil {
			return DepartmentUsersResponse{}, err
		}
		id = p.DepartmentID
	}
	users, err := t.svc.Users.DepartmentUsers(ctx, id)
	if err != nil {
		return DepartmentUsersResponse{}, err
	}
	return toDepartmentUsers(users), nil
}

func (t *tools) getProfile(ctx context.Context, _ NoParams) (ProfileResponse, error) {
	sess, err := t.svc.Auth.WhoAmI(ctx)
	if err != nil {
		return ProfileResponse{}, err
	}
	p, err := t.svc.Users.Profile(ctx, sess.UserID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return toProfile(p), nil
}

func (t *tools) listNotifications(ctx context.Context, in ListNotificationsParams) (ListNotificationsResponse, error) {
	sess, err := t.svc.Auth.WhoAmI(ctx)
	if err != nil {
		return ListNotificationsResponse{}, err
	}
	var list []notification.Notification
	if in.Refresh {
		list, err = t.svc.Notifications.Refresh(ctx, sess.UserID)
	} else {
		list, err = t.svc.Notifications.List(ctx, sess.UserID)
	}
	if err != nil {
		return ListNotificationsResponse{}, err
	}
	resp := ListNotificationsResponse{
		Notifications: make([]NotificationResponse, 0, len(list)),
		Unread:        notification.UnreadCount(list),
	}
	for _, n := range list {
		if in.UnreadOnly && n.IsRead {
			continue
		}
		resp.Notifications = append(resp.Notifications, toNotification(n))
	}
	return resp, nil
}

func (t *tools) markNotificationRead(ctx context.Context, in NotificationIDParams) (OKResponse, error) {
	if err := t.svc.Notifications.MarkAsRead(ctx, in.ID); err != nil {
		return OKResponse{}, err
	}
	return OKResponse{OK: true}, nil
}

func (t *tools) deleteNotification(ctx context.Context, in NotificationIDParams) (OKResponse, error) {
	if err := t.svc.Notifications.Delete(ctx, in.ID); err != nil {
		return OKResponse{}, err
	}
	return OKResponse{OK: true}, nil
}

func (t *tools) respondInvitation(ctx context.Context, in RespondInvitationParams) (OKResponse, error) {
	d := notification.Decision(strings.ToLower(strings.TrimSpace(in.Decision)))
	if err := t.svc.Notifications.Respond(ctx, in.InvitationID, d); err != nil {
		return OKResponse{}, err
	}
	return OKResponse{OK: true}, nil
}
