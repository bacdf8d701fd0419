package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog records a security-relevant action performed by a user.
type ActivityLog struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Action    Action
	Target    Target
	IPAddress string
	CreatedAt time.Time
}

// NewActivityLog builds an entry for a user action with a fresh time-ordered ID.
func NewActivityLog(userID uuid.UUID, action Action, ipAddress string) *ActivityLog {
	return &ActivityLog{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    userID,
		Action:    action,
		Target:    TargetUser,
		IPAddress: ipAddress,
		CreatedAt: time.Now().UTC(),
	}
}
