// Package endpoints maps LRMS operations to API paths. It performs no I/O;
// argument validation belongs to the caller.
package endpoints

import (
	"fmt"
	"net/url"
	"strconv"
)

// Operation names, used as cache keys and metric labels.
const (
	OpLogin                = "auth.login"
	OpRegister             = "auth.register"
	OpMyProjects           = "project.myProjects"
	OpProjectDetail        = "project.detail"
	OpCreateProject        = "project.create"
	OpUpdateProject        = "project.update"
	OpDeleteProject        = "project.delete"
	OpUserProfile          = "user.profile"
	OpUpdateProfile        = "user.updateProfile"
	OpChangePassword       = "user.changePassword"
	OpUserGroups           = "user.groups"
	OpDepartmentUsers      = "user.departmentUsers"
	OpNotifications        = "notifications.list"
	OpMarkNotificationRead = "notifications.markRead"
	OpDeleteNotification   = "notifications.delete"
	OpAcceptInvitation     = "invitations.accept"
	OpRejectInvitation     = "invitations.reject"
)

// Login is the credential sign-in path.
func Login() string { return "/api/auth/login" }

// Register is the account creation path.
func Register() string { return "/api/auth/register" }

// MyProjects lists the projects of the signed-in user.
func MyProjects() string { return "/api/project/get-my-projects" }

// CreateProject is the project collection path.
func CreateProject() string { return "/api/project" }

// ProjectDetail returns one project with its documents.
func ProjectDetail(id int64) string {
	return "/api/project/details/" + strconv.FormatInt(id, 10)
}

// UpdateProject shares the project path with DeleteProject.
func UpdateProject(id int64) string {
	return "/api/project/" + strconv.FormatInt(id, 10)
}

// DeleteProject is the path of one project.
func DeleteProject(id int64) string {
	return "/api/project/" + strconv.FormatInt(id, 10)
}

// UserProfile is the path of one user.
func UserProfile(id int64) string {
	return "/api/users/" + strconv.FormatInt(id, 10)
}

// UpdateProfile shares the profile path; the method distinguishes them.
func UpdateProfile(id int64) string {
	return UserProfile(id)
}

// ChangePassword has no /api prefix on the backend.
func ChangePassword(id int64) string {
	return fmt.Sprintf("/users/%d/change-password", id)
}

// UserGroups lists the research groups of a user, with members.
func UserGroups(id int64) string {
	return fmt.Sprintf("/users/%d/groups", id)
}

// DepartmentUsers lists every user of a department.
func DepartmentUsers(id int64) string {
	return fmt.Sprintf("/departments/%d/users", id)
}

// Notifications lists the notifications of userID.
func Notifications(userID int64) string {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))
	return "/api/notifications?" + q.Encode()
}

// MarkNotificationRead is a PUT on the notification path.
func MarkNotificationRead(id int64) string {
	return "/api/notifications/" + strconv.FormatInt(id, 10)
}

// DeleteNotification is a DELETE on the notification path.
func DeleteNotification(id int64) string {
	return "/api/notifications/" + strconv.FormatInt(id, 10)
}

// AcceptInvitation accepts the invitation id.
func AcceptInvitation(id int64) string {
	return fmt.Sprintf("/api/invitations/%d/accept", id)
}

// RejectInvitation rejects the invitation id.
func RejectInvitation(id int64) string {
	return fmt.Sprintf("/api/invitations/%d/reject", id)
}
