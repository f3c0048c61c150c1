package repository

import (
	"context"
	"errors"
	"time"

	"zanzar-backend/internal/domain"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) FindDirectConversation(ctx context.Context, a, b uuid.UUID) (domain.Conversation, error) {
	memberOf := func(profileID uuid.UUID) *gorm.DB {
		return r.db.Model(&domain.Participant{}).
			Select("conversation_id").
			Where("profile_id = ?", profileID)
	}

	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Where("is_group = ?", false).
		Where("id IN (?)", memberOf(a)).
		Where("id IN (?)", memberOf(b)).
		Preload("Participants").
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, zanzar_errors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *PostgresChatRepository) CreateConversation(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, profileID := range participantIDs {
			participant := domain.Participant{
				ConversationID: conv.ID,
				ProfileID:      profileID,
				JoinedAt:       time.Now(),
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
			conv.Participants = append(conv.Participants, participant)
		}
		return nil
	})
}

func (r *PostgresChatRepository) GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Preload("Participants.Profile").
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversation{}, zanzar_errors.ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *PostgresChatRepository) ListConversations(ctx context.Context, profileID uuid.UUID) ([]domain.Conversation, error) {
	memberOf := r.db.Model(&domain.Participant{}).
		Select("conversation_id").
		Where("profile_id = ?", profileID)

	var convs []domain.Conversation
	err := r.db.WithContext(ctx).
		Where("id IN (?)", memberOf).
		Preload("Participants.Profile").
		Order("created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *PostgresChatRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *PostgresChatRepository) GetMessage(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Preload("Profile").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, zanzar_errors.ErrNotFound
		}
		return domain.Message{}, err
	}
	return m, nil
}

func (r *PostgresChatRepository) UpdateMessageContent(ctx context.Context, id uuid.UUID, content string) (domain.Message, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   content,
			"edited_at": time.Now(),
		})
	if res.Error != nil {
		return domain.Message{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Message{}, zanzar_errors.ErrNotFound
	}
	return r.GetMessage(ctx, id)
}

func (r *PostgresChatRepository) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&domain.ReadStatus{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Message{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return zanzar_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresChatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Profile").
		Preload("ReadStatus").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresChatRepository) UnreadMessageIDs(ctx context.Context, conversationID, profileID uuid.UUID) ([]uuid.UUID, error) {
	read := r.db.Model(&domain.ReadStatus{}).
		Select("message_id").
		Where("profile_id = ?", profileID)

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND id NOT IN (?)", conversationID, read).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkRead upserts read statuses. An existing row is left untouched so
// readAt never moves backwards; the returned count is only the newly
// marked messages.
func (r *PostgresChatRepository) MarkRead(ctx context.Context, messageIDs []uuid.UUID, profileID uuid.UUID, at time.Time) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	rows := make([]domain.ReadStatus, 0, len(messageIDs))
	for _, id := range messageIDs {
		rows = append(rows, domain.ReadStatus{
			MessageID: id,
			ProfileID: profileID,
			ReadAt:    at,
		})
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

const unreadConversationsQuery = `
SELECT m.conversation_id AS conversation_id, COUNT(*) AS unread_count
FROM chat_messages m
JOIN chat_participants p
  ON p.conversation_id = m.conversation_id AND p.profile_id = ?
WHERE m.profile_id <> ?
  AND NOT EXISTS (
    SELECT 1 FROM chat_read_statuses rs
    WHERE rs.message_id = m.id AND rs.profile_id = ?
  )
GROUP BY m.conversation_id`

func (r *PostgresChatRepository) UnreadConversations(ctx context.Context, profileID uuid.UUID) ([]UnreadConversation, error) {
	var result []UnreadConversation
	err := r.db.WithContext(ctx).
		Raw(unreadConversationsQuery, profileID, profileID, profileID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresChatRepository) CountUnreadConversations(ctx context.Context, profileID uuid.UUID) (int64, error) {
	unread, err := r.UnreadConversations(ctx, profileID)
	if err != nil {
		return 0, err
	}
	return int64(len(unread)), nil
}
