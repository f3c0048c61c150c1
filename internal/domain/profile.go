package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Profile represents the profiles table. A profile is the stable identity
// that owns live connections, cart entries, orders and notifications.
type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username       string    `gorm:"uniqueIndex"`
	AvatarURL      sql.NullString
	CPF            sql.NullString
	Invites        int
	CartCountItems int
	CreatedAt      time.Time
}

func (Profile) TableName() string {
	return "profiles"
}
