package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/domain/notification"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/domain/session"
	"github.com/ganot/lrms-client/internal/domain/user"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain and API errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_my_projects for valid IDs"}
	case errors.Is(err, notification.ErrNotificationNotFound):
		return &APIError{Code: "NOTIFICATION_NOT_FOUND", Message: "notification not found", RecoveryHint: "Call list_notifications with refresh=true"}
	case errors.Is(err, notification.ErrInvitationHandled):
		return &APIError{Code: "INVITATION_HANDLED", Message: "invitation already handled"}
	case errors.Is(err, user.ErrUserNotFound):
		return &APIError{Code: "USER_NOT_FOUND", Message: "user not found"}
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, notification.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, api.ErrSessionExpired):
		return &APIError{Code: "SESSION_EXPIRED", Message: "session expired", RecoveryHint: "Call login again"}
	case errors.Is(err, api.ErrAuthRequired), errors.Is(err, session.ErrNotLoggedIn):
		return &APIError{Code: "NOT_LOGGED_IN", Message: "not logged in", RecoveryHint: "Call login first"}
	case errors.Is(err, api.ErrNetwork):
		return &APIError{Code: "NETWORK_ERROR", Message: err.Error(), RecoveryHint: "Check connectivity and retry"}
	case errors.Is(err, api.ErrParse):
		return &APIError{Code: "PARSE_ERROR", Message: err.Error()}
	case errors.Is(err, api.ErrHTTP):
		return &APIError{Code: "HTTP_ERROR", Message: err.Error(), Details: map[string]int{"status": api.StatusOf(err)}}
	default:
		return nil
	}
}

// toolError converts err into the error a tool handler returns.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
