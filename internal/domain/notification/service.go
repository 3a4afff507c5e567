package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ganot/lrms-client/internal/api"
	"github.com/ganot/lrms-client/internal/domain/project"
	"github.com/ganot/lrms-client/internal/endpoints"
	"github.com/ganot/lrms-client/internal/query"
)

// TagNotifications labels cached notification lists.
const TagNotifications = "Notifications"

// ListQuery loads the notifications of one user. A null payload is an empty
// list.
var ListQuery = query.Endpoint[int64, []Notification]{
	Name: endpoints.OpNotifications,
	Call: func(userID int64) api.Call {
		return api.Call{Method: http.MethodGet, Path: endpoints.Notifications(userID), Auth: true}
	},
	Transform: func(data json.RawMessage) ([]Notification, error) {
		out := []Notification{}
		if len(data) == 0 || string(data) == "null" {
			return out, nil
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []Notification{}
		}
		return out, nil
	},
	Provides: func(int64) []query.Tag {
		return []query.Tag{query.Coarse(TagNotifications)}
	},
}

var markReadMutation = query.Mutation[int64, struct{}]{
	Name: endpoints.OpMarkNotificationRead,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodPut, Path: endpoints.MarkNotificationRead(id), Auth: true}
	},
	Invalidates: func(int64) []query.Tag {
		return []query.Tag{query.Coarse(TagNotifications)}
	},
}

var deleteMutation = query.Mutation[int64, struct{}]{
	Name: endpoints.OpDeleteNotification,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodDelete, Path: endpoints.DeleteNotification(id), Auth: true}
	},
	Invalidates: func(int64) []query.Tag {
		return []query.Tag{query.Coarse(TagNotifications)}
	},
}

// Accepting an invitation adds the user to a group, which changes the project list.
var acceptMutation = query.Mutation[int64, struct{}]{
	Name: endpoints.OpAcceptInvitation,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodPost, Path: endpoints.AcceptInvitation(id), Auth: true}
	},
	Invalidates: func(int64) []query.Tag {
		return []query.Tag{query.Coarse(TagNotifications), query.Coarse(project.TagProjects)}
	},
}

var rejectMutation = query.Mutation[int64, struct{}]{
	Name: endpoints.OpRejectInvitation,
	Call: func(id int64) api.Call {
		return api.Call{Method: http.MethodPost, Path: endpoints.RejectInvitation(id), Auth: true}
	},
	Invalidates: func(int64) []query.Tag {
		return []query.Tag{query.Coarse(TagNotifications)}
	},
}

// Service handles notification operations.
type Service struct {
	cache  *query.Cache
	logger *slog.Logger
}

// NewService creates a new notification service.
func NewService(cache *query.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{cache: cache, logger: logger}
}

// List returns the notifications of userID.
func (s *Service) List(ctx context.Context, userID int64) ([]Notification, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	return ListQuery.Fetch(ctx, s.cache, userID)
}

// Refresh reloads the notifications of userID.
func (s *Service) Refresh(ctx context.Context, userID int64) ([]Notification, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	return ListQuery.Refetch(ctx, s.cache, userID)
}

// Subscribe follows the notifications of userID.
func (s *Service) Subscribe(userID int64) *query.Subscription {
	return ListQuery.Subscribe(s.cache, userID)
}

// UnreadCount returns how many notifications of userID are unread.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return UnreadCount(list), nil
}

// MarkAsRead marks one notification as read. Marking an already read
// notification is harmless.
func (s *Service) MarkAsRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if _, err := markReadMutation.Do(ctx, s.cache, id); err != nil {
		return fmt.Errorf("marking notification read: %w", notFound(err))
	}
	return nil
}

// Delete removes one notification.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if _, err := deleteMutation.Do(ctx, s.cache, id); err != nil {
		return fmt.Errorf("deleting notification: %w", notFound(err))
	}
	return nil
}

// AcceptInvitation joins the group behind an invitation.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID int64) error {
	return s.Respond(ctx, invitationID, Accept)
}

// RejectInvitation declines an invitation.
func (s *Service) RejectInvitation(ctx context.Context, invitationID int64) error {
	return s.Respond(ctx, invitationID, Reject)
}

// Respond answers an invitation.
func (s *Service) Respond(ctx context.Context, invitationID int64, d Decision) error {
	if invitationID <= 0 || !d.Valid() {
		return ErrInvalidInput
	}
	m := rejectMutation
	if d == Accept {
		m = acceptMutation
	}
	if _, err := m.Do(ctx, s.cache, invitationID); err != nil {
		if alreadyHandled(err) {
			return fmt.Errorf("%w: %w", ErrInvitationHandled, err)
		}
		return fmt.Errorf("responding to invitation: %w", err)
	}
	s.logger.Info("invitation answered", "invitation_id", invitationID, "decision", string(d))
	return nil
}

func alreadyHandled(err error) bool {
	if api.KindOf(err) != api.KindHTTP {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already been handled") || strings.Contains(msg, "already been processed")
}

func notFound(err error) error {
	if api.StatusOf(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotificationNotFound, err)
	}
	return err
}
