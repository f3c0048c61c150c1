package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Conversation represents the chat_conversations table
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      sql.NullString
	IsGroup   bool
	CreatedAt time.Time

	Participants []Participant `gorm:"foreignKey:ConversationID"`
}

// Participant represents the chat_participants table
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt       time.Time

	Profile Profile `gorm:"foreignKey:ProfileID"`
}

// Message represents the chat_messages table. Messages are hard-deleted,
// there is no tombstone.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;index"`
	ProfileID      uuid.UUID `gorm:"type:uuid"` // author
	Content        string
	CreatedAt      time.Time
	EditedAt       sql.NullTime

	Profile    Profile      `gorm:"foreignKey:ProfileID"`
	ReadStatus []ReadStatus `gorm:"foreignKey:MessageID"`
}

// ReadStatus represents the chat_read_statuses table. Absence of a row
// means unread; at most one row per (message, profile) pair.
type ReadStatus struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt    time.Time
}

func (Conversation) TableName() string {
	return "chat_conversations"
}

func (Participant) TableName() string {
	return "chat_participants"
}

func (Message) TableName() string {
	return "chat_messages"
}

func (ReadStatus) TableName() string {
	return "chat_read_statuses"
}
