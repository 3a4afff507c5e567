package notification

import "errors"

var (
	// ErrInvalidInput indicates an invalid notification or invitation ID.
	ErrInvalidInput = errors.New("invalid notification input")
	// ErrNotificationNotFound indicates the notification doesn't exist.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrInvitationHandled indicates the invitation was already accepted or rejected.
	ErrInvitationHandled = errors.New("invitation already handled")
)
