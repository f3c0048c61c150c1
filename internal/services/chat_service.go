package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"
	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
)

type ChatService struct {
	chatRepo   repository.ChatRepository
	dispatcher Dispatcher
	signer     URLSigner
	log        *logger.Logger
}

func NewChatService(chatRepo repository.ChatRepository, dispatcher Dispatcher, signer URLSigner, log *logger.Logger) *ChatService {
	return &ChatService{
		chatRepo:   chatRepo,
		dispatcher: dispatcher,
		signer:     signer,
		log:        log,
	}
}

type CreateChatInput struct {
	ParticipantIDs []uuid.UUID
	Name           string
	IsGroup        bool
}

type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
}

// CreateChat creates a conversation between the creator and the given
// participants. A direct chat between the same two profiles is returned
// instead of duplicated.
func (s *ChatService) CreateChat(ctx context.Context, creatorID uuid.UUID, in CreateChatInput) (domain.Conversation, error) {
	if len(in.ParticipantIDs) == 0 {
		return domain.Conversation{}, zanzar_errors.ErrInvalidInput
	}

	ids := append([]uuid.UUID{creatorID}, in.ParticipantIDs...)
	ids = dedupeIDs(ids)

	if !in.IsGroup {
		if len(ids) != 2 {
			return domain.Conversation{}, zanzar_errors.ErrInvalidInput
		}
		existing, err := s.chatRepo.FindDirectConversation(ctx, ids[0], ids[1])
		if err == nil {
			s.signParticipantAvatars(ctx, existing.Participants)
			return existing, nil
		}
		if !isNotFound(err) {
			return domain.Conversation{}, err
		}
	}

	conv := domain.Conversation{
		ID:        uuid.New(),
		Name:      toNullString(in.Name),
		IsGroup:   in.IsGroup,
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.CreateConversation(ctx, &conv, ids); err != nil {
		return domain.Conversation{}, err
	}

	created, err := s.chatRepo.GetConversation(ctx, conv.ID)
	if err != nil {
		return domain.Conversation{}, err
	}
	s.signParticipantAvatars(ctx, created.Participants)
	return created, nil
}

// SendMessage persists the message, then fans it out: once to the
// conversation room for clients with the chat open, and once per
// recipient profile together with a refreshed unread counter. Emits
// happen after the commit, so an offline recipient simply misses the
// push and finds the message via the unread queries later.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (domain.Message, error) {
	if in.Content == "" {
		return domain.Message{}, zanzar_errors.ErrInvalidInput
	}

	conv, err := s.chatRepo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !isParticipant(conv, in.SenderID) {
		return domain.Message{}, zanzar_errors.ErrForbidden
	}

	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		ProfileID:      in.SenderID,
		Content:        in.Content,
		CreatedAt:      time.Now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, &msg); err != nil {
		return domain.Message{}, err
	}

	saved, err := s.chatRepo.GetMessage(ctx, msg.ID)
	if err != nil {
		saved = msg
	}
	s.signAvatar(ctx, &saved.Profile)

	s.dispatcher.EmitToRoom(ChatRoom(in.ConversationID), "newMessage", saved)

	for _, p := range conv.Participants {
		if p.ProfileID == in.SenderID {
			continue
		}
		s.dispatcher.EmitToProfile(p.ProfileID, "newMessage", saved)
		s.pushUnreadChatsCount(ctx, p.ProfileID)
	}

	return saved, nil
}

// MarkConversationAsRead marks every unread message of the conversation
// as read by the profile and returns how many were newly marked. Calling
// it again immediately returns zero.
func (s *ChatService) MarkConversationAsRead(ctx context.Context, conversationID, profileID uuid.UUID) (int64, error) {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !isParticipant(conv, profileID) {
		return 0, zanzar_errors.ErrForbidden
	}

	ids, err := s.chatRepo.UnreadMessageIDs(ctx, conversationID, profileID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	marked, err := s.chatRepo.MarkRead(ctx, ids, profileID, time.Now())
	if err != nil {
		return 0, err
	}

	s.pushUnreadChatsCount(ctx, profileID)
	return marked, nil
}

// MarkMessageAsRead marks a single message as read by the profile. A
// message already read is a no-op.
func (s *ChatService) MarkMessageAsRead(ctx context.Context, messageID, profileID uuid.UUID) error {
	msg, err := s.chatRepo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ProfileID == profileID {
		return nil
	}

	if _, err := s.chatRepo.MarkRead(ctx, []uuid.UUID{messageID}, profileID, time.Now()); err != nil {
		return err
	}

	s.pushUnreadChatsCount(ctx, profileID)
	return nil
}

// EditMessage replaces the message content and announces the edit to all
// connected clients so open chat views refresh in place.
func (s *ChatService) EditMessage(ctx context.Context, messageID uuid.UUID, content string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, zanzar_errors.ErrInvalidInput
	}

	updated, err := s.chatRepo.UpdateMessageContent(ctx, messageID, content)
	if err != nil {
		return domain.Message{}, err
	}

	s.dispatcher.BroadcastAll("messageEdited", updated)
	return updated, nil
}

// DeleteMessage removes the message and announces the deletion.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	msg, err := s.chatRepo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}

	if err := s.chatRepo.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	s.dispatcher.BroadcastAll("messageDeleted", map[string]interface{}{
		"messageId":      msg.ID,
		"conversationId": msg.ConversationID,
	})
	return nil
}

// CanAccess reports whether the profile participates in the
// conversation. Used by the socket layer before joining a room.
func (s *ChatService) CanAccess(ctx context.Context, conversationID, profileID uuid.UUID) error {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !isParticipant(conv, profileID) {
		return zanzar_errors.ErrForbidden
	}
	return nil
}

func (s *ChatService) ListChats(ctx context.Context, profileID uuid.UUID) ([]domain.Conversation, error) {
	convs, err := s.chatRepo.ListConversations(ctx, profileID)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		s.signParticipantAvatars(ctx, convs[i].Participants)
	}
	return convs, nil
}

func (s *ChatService) Messages(ctx context.Context, conversationID, profileID uuid.UUID, limit, offset int) ([]domain.Message, error) {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(conv, profileID) {
		return nil, zanzar_errors.ErrForbidden
	}
	if limit <= 0 {
		limit = 50
	}
	messages, err := s.chatRepo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		s.signAvatar(ctx, &messages[i].Profile)
	}
	return messages, nil
}

// UnreadConversations lists the conversations holding unread messages for
// the profile, with per-conversation counts.
func (s *ChatService) UnreadConversations(ctx context.Context, profileID uuid.UUID) ([]repository.UnreadConversation, error) {
	return s.chatRepo.UnreadConversations(ctx, profileID)
}

// UnreadChatsCount returns how many conversations hold at least one
// unread message for the profile.
func (s *ChatService) UnreadChatsCount(ctx context.Context, profileID uuid.UUID) (int64, error) {
	return s.chatRepo.CountUnreadConversations(ctx, profileID)
}

// UnreadTotal returns how many messages from other participants the
// profile has not read, across all conversations.
func (s *ChatService) UnreadTotal(ctx context.Context, profileID uuid.UUID) (int64, error) {
	unread, err := s.chatRepo.UnreadConversations(ctx, profileID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range unread {
		total += c.UnreadCount
	}
	return total, nil
}

func (s *ChatService) pushUnreadChatsCount(ctx context.Context, profileID uuid.UUID) {
	count, err := s.chatRepo.CountUnreadConversations(ctx, profileID)
	if err != nil {
		s.log.Warnf("count unread chats for %s: %v", profileID, err)
		return
	}
	s.dispatcher.EmitToProfile(profileID, "unreadChatsCount", map[string]int64{"count": count})
}

// signAvatar resolves the stored avatar key into a short-lived URL in
// place. Without a signer the raw key stays as is.
func (s *ChatService) signAvatar(ctx context.Context, p *domain.Profile) {
	if s.signer == nil || !p.AvatarURL.Valid || p.AvatarURL.String == "" {
		return
	}
	url, err := s.signer.SignedURL(ctx, p.AvatarURL.String)
	if err != nil {
		s.log.Warnf("sign avatar url for profile %s: %v", p.ID, err)
		return
	}
	p.AvatarURL.String = url
}

func (s *ChatService) signParticipantAvatars(ctx context.Context, participants []domain.Participant) {
	for i := range participants {
		s.signAvatar(ctx, &participants[i].Profile)
	}
}

func isParticipant(conv domain.Conversation, profileID uuid.UUID) bool {
	for _, p := range conv.Participants {
		if p.ProfileID == profileID {
			return true
		}
	}
	return false
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isNotFound(err error) bool {
	return errors.Is(err, zanzar_errors.ErrNotFound)
}
