package mcp

import (
	"github.com/ganot/lrms-client/internal/domain/notification"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/domain/user"
)

type LoginParams struct {
	Email    string `json:"email" jsonschema:"account email"`
	Password string `json:"password" jsonschema:"account password"`
}

type NoParams struct{}

type ListProjectsParams struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"refetch instead of using cached data"`
}

type GetProjectParams struct {
	ID int64 `json:"id" jsonschema:"project ID"`
}

type CreateProjectParams struct {
	Name           string  `json:"name" jsonschema:"project name"`
	Type           string  `json:"type,omitempty" jsonschema:"Research, Development or Other (default Research)"`
	Description    string  `json:"description,omitempty" jsonschema:"project description"`
	ApprovedBudget float64 `json:"approved_budget,omitempty" jsonschema:"requested budget"`
	StartDate      string  `json:"start_date,omitempty" jsonschema:"start date, YYYY-MM-DD"`
	EndDate        string  `json:"end_date,omitempty" jsonschema:"end date, YYYY-MM-DD"`
	GroupID        int64   `json:"group_id,omitempty" jsonschema:"owning research group ID"`
	Methodology    string  `json:"methodology,omitempty" jsonschema:"research methodology"`
}

type UpdateProjectParams struct {
	ID          int64    `json:"id" jsonschema:"project ID"`
	Name        *string  `json:"name,omitempty" jsonschema:"new project name"`
	Type        *string  `json:"type,omitempty" jsonschema:"Research, Development or Other"`
	Description *string  `json:"description,omitempty" jsonschema:"new description"`
	Budget      *float64 `json:"approved_budget,omitempty" jsonschema:"new budget"`
	Status      *string  `json:"status,omitempty" jsonschema:"Pending, Approved or Rejected"`
	StartDate   *string  `json:"start_date,omitempty" jsonschema:"new start date"`
	EndDate     *string  `json:"end_date,omitempty" jsonschema:"new end date"`
}

type DepartmentParams struct {
	ID int64 `json:"id,omitempty" jsonschema:"department ID (default: your own department)"`
}

type ListNotificationsParams struct {
	Refresh    bool `json:"refresh,omitempty" jsonschema:"refetch instead of using cached data"`
	UnreadOnly bool `json:"unread_only,omitempty" jsonschema:"only return unread notifications"`
}

type NotificationIDParams struct {
	ID int64 `json:"id" jsonschema:"notification ID"`
}

type RespondInvitationParams struct {
	InvitationID int64  `json:"invitation_id" jsonschema:"invitation ID from the notification"`
	Decision     string `json:"decision" jsonschema:"accept or reject"`
}

type SessionResponse struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ProjectSummaryResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Budget      float64 `json:"approved_budget"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	GroupName   string  `json:"group_name,omitempty"`
	Description string  `json:"description,omitempty"`
}

type ListProjectsResponse struct {
	Projects []ProjectSummaryResponse `json:"projects"`
	Stats    StatsResponse            `json:"stats"`
}

type StatsResponse struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Unknown  int `json:"unknown"`
}

type DocumentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"file_name"`
	URL  string `json:"url,omitempty"`
}

type ProjectDetailResponse struct {
	Project     ProjectSummaryResponse `json:"project"`
	Methodology string                 `json:"methodology,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	ApprovedBy  string                 `json:"approved_by,omitempty"`
	Department  string                 `json:"department,omitempty"`
	Documents   []DocumentResponse     `json:"documents"`
}

type NotificationResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	IsRead       bool   `json:"is_read"`
	InvitationID int64  `json:"invitation_id,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int                    `json:"unread"`
}

type MembershipResponse struct {
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`
	Role      string `json:"role"`
}

type GroupMemberResponse struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type GroupResponse struct {
	ID      int64                 `json:"id"`
	Name    string                `json:"name"`
	Members []GroupMemberResponse `json:"members"`
}

type ListGroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
}

type DepartmentUserResponse struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Level    string `json:"level"`
	Status   string `json:"status"`
}

type DepartmentUsersResponse struct {
	Lecturers []DepartmentUserResponse `json:"lecturers"`
	Students  []DepartmentUserResponse `json:"students"`
	Staff     []DepartmentUserResponse `json:"staff"`
}

type ProfileResponse struct {
	UserID   int64                `json:"user_id"`
	Username string               `json:"username,omitempty"`
	FullName string               `json:"full_name"`
	Email    string               `json:"email"`
	Phone    string               `json:"phone,omitempty"`
	Level    string               `json:"level"`
	Groups   []MembershipResponse `json:"groups"`
}

func toProjectSummary(p project.Project) ProjectSummaryResponse {
	return ProjectSummaryResponse{
		ID:          p.ProjectID,
		Name:        p.ProjectName,
		Type:        p.ProjectType.Label(),
		Status:      p.Status.Label(),
		Budget:      p.ApprovedBudget,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		GroupName:   p.GroupName,
		Description: p.Description,
	}
}

func toStats(s project.Stats) StatsResponse {
	return StatsResponse{
		Total:    s.Total,
		Pending:  s.Pending,
		Approved: s.Approved,
		Rejected: s.Rejected,
		Unknown:  s.Unknown,
	}
}

func toProjectDetail(d *project.Detail) ProjectDetailResponse {
	resp := ProjectDetailResponse{
		Project:     toProjectSummary(d.Project),
		Methodology: d.Methodology,
		Documents:   make([]DocumentResponse, 0, len(d.Documents)),
	}
	if d.CreatedByUser != nil {
		resp.CreatedBy = d.CreatedByUser.FullName
	}
	if d.ApprovedByUser != nil {
		resp.ApprovedBy = d.ApprovedByUser.FullName
	}
	if d.Department != nil {
		resp.Department = d.Department.DepartmentName
	}
	if resp.Project.GroupName == "" && d.Group != nil {
		resp.Project.GroupName = d.Group.GroupName
	}
	for _, doc := range d.Documents {
		resp.Documents = append(resp.Documents, DocumentResponse{ID: doc.DocumentID, Name: doc.FileName, URL: doc.DocumentURL})
	}
	return resp
}

func toNotification(n notification.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.NotificationID,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.IsInvitation() {
		resp.InvitationID = *n.InvitationID
	}
	return resp
}

func toProfile(p *user.Profile) ProfileResponse {
	resp := ProfileResponse{
		UserID:   p.UserID,
		Username: p.Username,
		FullName: p.FullName,
		Email:    p.Email,
		Phone:    p.Phone,
		Level:    p.LevelText,
		Groups:   make([]MembershipResponse, 0, len(p.Groups)),
	}
	for _, g := range p.Groups {
		resp.Groups = append(resp.Groups, MembershipResponse{GroupID: g.GroupID, GroupName: g.GroupName, Role: g.RoleText})
	}
	return resp
}

func toGroups(groups []user.Group) ListGroupsResponse {
	resp := ListGroupsResponse{Groups: make([]GroupResponse, 0, len(groups))}
	for _, g := range groups {
		gr := GroupResponse{ID: g.GroupID, Name: g.GroupName, Members: make([]GroupMemberResponse, 0, len(g.Members))}
		for _, m := range g.Members {
			gr.Members = append(gr.Members, GroupMemberResponse{
				UserID:   m.UserID,
				FullName: m.FullName,
				Email:    m.Email,
				Role:     m.RoleText,
				Status:   m.StatusText,
			})
		}
		resp.Groups = append(resp.Groups, gr)
	}
	return resp
}

func toDepartmentUsers(d user.DepartmentUsers) DepartmentUsersResponse {
	conv := func(users []user.DepartmentUser) []DepartmentUserResponse {
		out := make([]DepartmentUserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, DepartmentUserResponse{
				UserID:   u.UserID,
				FullName: u.FullName,
				Email:    u.Email,
				Level:    u.LevelText,
				Status:   u.StatusText,
			})
		}
		return out
	}
	return DepartmentUsersResponse{
		Lecturers: conv(d.Lecturers),
		Students:  conv(d.Students),
		Staff:     conv(d.Staff),
	}
}
