package notification

// Notification is a message addressed to one user. Group invitations carry an
// InvitationID.
type Notification struct {
	NotificationID int64  `json:"notificationId"`
	UserID         int64  `json:"userId"`
	ProjectID      *int64 `json:"projectId,omitempty"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Status         int    `json:"status"`
	IsRead         bool   `json:"isRead"`
	InvitationID   *int64 `json:"invitationId,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// IsInvitation reports whether n can be accepted or rejected.
func (n Notification) IsInvitation() bool {
	return n.InvitationID != nil && *n.InvitationID > 0
}

// Decision is the answer to a group invitation.
type Decision string

const (
	Accept Decision = "accept"
	Reject Decision = "reject"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == Accept || d == Reject
}

// UnreadCount returns the number of unread notifications.
func UnreadCount(list []Notification) int {
	n := 0
	for _, item := range list {
		if !item.IsRead {
			n++
		}
	}
	return n
}
