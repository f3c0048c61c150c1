package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Notification represents the notifications table. Notifications are the
// durable fallback for events whose receiver had no live connection at
// emit time.
type Notification struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type         string
	Content      string
	SenderID     uuid.UUID `gorm:"type:uuid"`
	ReceiverID   uuid.UUID `gorm:"type:uuid;index"`
	ReferenceID  sql.NullString
	ReferenceURL sql.NullString
	IsRead       bool
	CreatedAt    time.Time
}

func (Notification) TableName() string {
	return "notifications"
}
