package services

import (
	"context"
	"time"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"
	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
)

type NotificationService struct {
	notifRepo   repository.NotificationRepository
	chatRepo    repository.ChatRepository
	profileRepo repository.ProfileRepository
	dispatcher  Dispatcher
	log         *logger.Logger
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	chatRepo repository.ChatRepository,
	profileRepo repository.ProfileRepository,
	dispatcher Dispatcher,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notifRepo:   notifRepo,
		chatRepo:    chatRepo,
		profileRepo: profileRepo,
		dispatcher:  dispatcher,
		log:         log,
	}
}

type CreateNotificationInput struct {
	Type         string
	Content      string
	SenderID     uuid.UUID
	ReceiverID   uuid.UUID
	ReferenceID  string
	ReferenceURL string
}

// UnreadCounts is the badge payload pushed whenever any unread aggregate
// changes for a profile.
type UnreadCounts struct {
	UnreadNotifications int64 `json:"unreadNotifications"`
	UnreadChats         int64 `json:"unreadChats"`
	InvitesCount        int   `json:"invitesCount"`
}

// NotificationPage is one page of a receiver's notifications plus the
// listing metadata clients render badges and pagers from.
type NotificationPage struct {
	Items       []domain.Notification `json:"items"`
	Total       int64                 `json:"total"`
	UnreadCount int64                 `json:"unreadCount"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	TotalPages  int                   `json:"totalPages"`
	HasMore     bool                  `json:"hasMore"`
}

// Create persists the notification first, then pushes it to the receiver
// along with refreshed badge counts. An offline receiver gets nothing
// pushed and discovers the row on the next listing.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (domain.Notification, error) {
	if in.Type == "" || in.ReceiverID == uuid.Nil {
		return domain.Notification{}, zanzar_errors.ErrInvalidInput
	}
	if in.SenderID == in.ReceiverID {
		return domain.Notification{}, zanzar_errors.ErrInvalidInput
	}

	n := domain.Notification{
		ID:           uuid.New(),
		Type:         in.Type,
		Content:      in.Content,
		SenderID:     in.SenderID,
		ReceiverID:   in.ReceiverID,
		ReferenceID:  toNullString(in.ReferenceID),
		ReferenceURL: toNullString(in.ReferenceURL),
		CreatedAt:    time.Now(),
	}
	if err := s.notifRepo.Create(ctx, &n); err != nil {
		return domain.Notification{}, err
	}

	s.dispatcher.EmitToProfile(in.ReceiverID, "newNotification", n)
	s.pushCounts(ctx, in.ReceiverID)

	return n, nil
}

// MarkAsRead marks one notification read. Only the receiver may do this.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, profileID uuid.UUID) error {
	n, err := s.notifRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.ReceiverID != profileID {
		return zanzar_errors.ErrForbidden
	}

	if err := s.notifRepo.MarkAsRead(ctx, id); err != nil {
		return err
	}

	s.pushCounts(ctx, profileID)
	return nil
}

// MarkAllAsRead marks every unread notification of the profile read and
// returns how many rows changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, profileID uuid.UUID) (int64, error) {
	marked, err := s.notifRepo.MarkAllAsRead(ctx, profileID)
	if err != nil {
		return 0, err
	}

	s.pushCounts(ctx, profileID)
	return marked, nil
}

// List returns one page of the receiver's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, profileID uuid.UUID, page, limit int) (NotificationPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	items, err := s.notifRepo.ListByReceiver(ctx, profileID, page, limit)
	if err != nil {
		return NotificationPage{}, err
	}
	total, err := s.notifRepo.CountByReceiver(ctx, profileID)
	if err != nil {
		return NotificationPage{}, err
	}
	unread, err := s.notifRepo.CountUnread(ctx, profileID)
	if err != nil {
		return NotificationPage{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return NotificationPage{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasMore:     page < totalPages,
	}, nil
}

// Counts computes the badge aggregates for a profile. Aggregates that
// fail to load fall back to zero rather than failing the whole badge.
func (s *NotificationService) Counts(ctx context.Context, profileID uuid.UUID) UnreadCounts {
	var counts UnreadCounts

	if n, err := s.notifRepo.CountUnread(ctx, profileID); err == nil {
		counts.UnreadNotifications = n
	} else {
		s.log.Warnf("count unread notifications for %s: %v", profileID, err)
	}
	if n, err := s.chatRepo.CountUnreadConversations(ctx, profileID); err == nil {
		counts.UnreadChats = n
	} else {
		s.log.Warnf("count unread chats for %s: %v", profileID, err)
	}
	if n, err := s.profileRepo.InviteCount(ctx, profileID); err == nil {
		counts.InvitesCount = n
	} else {
		s.log.Warnf("count invites for %s: %v", profileID, err)
	}

	return counts
}

func (s *NotificationService) pushCounts(ctx context.Context, profileID uuid.UUID) {
	s.dispatcher.EmitToProfile(profileID, "allUnreadCounts", s.Counts(ctx, profileID))
}
