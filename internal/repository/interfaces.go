package repository

import (
	"context"
	"time"

	"zanzar-backend/internal/domain"

	"github.com/google/uuid"
)

// ProfileRepository handles profile lookups and the cart item counter.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	AdjustCartCount(ctx context.Context, id uuid.UUID, delta int) error
	InviteCount(ctx context.Context, id uuid.UUID) (int, error)
}

// ChatRepository handles conversations, messages and read statuses.
type ChatRepository interface {
	FindDirectConversation(ctx context.Context, a, b uuid.UUID) (domain.Conversation, error)
	CreateConversation(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error
	GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	ListConversations(ctx context.Context, profileID uuid.UUID) ([]domain.Conversation, error)

	CreateMessage(ctx context.Context, m *domain.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (domain.Message, error)
	UpdateMessageContent(ctx context.Context, id uuid.UUID, content string) (domain.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]domain.Message, error)

	UnreadMessageIDs(ctx context.Context, conversationID, profileID uuid.UUID) ([]uuid.UUID, error)
	MarkRead(ctx context.Context, messageIDs []uuid.UUID, profileID uuid.UUID, at time.Time) (int64, error)
	UnreadConversations(ctx context.Context, profileID uuid.UUID) ([]UnreadConversation, error)
	CountUnreadConversations(ctx context.Context, profileID uuid.UUID) (int64, error)
}

// UnreadConversation is one conversation with at least one unread message.
type UnreadConversation struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UnreadCount    int64     `json:"unreadCount"`
}

// NotificationRepository handles durable notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Notification, error)
	ListByReceiver(ctx context.Context, receiverID uuid.UUID, page, limit int) ([]domain.Notification, error)
	CountByReceiver(ctx context.Context, receiverID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, receiverID uuid.UUID) (int64, error)
}

// CartRepository handles cart entries.
type CartRepository interface {
	GetByID(ctx context.Context, id, profileID uuid.UUID) (domain.UserCart, error)
	FindByProfileAndSize(ctx context.Context, profileID, sizeID uuid.UUID) (domain.UserCart, error)
	Create(ctx context.Context, entry *domain.UserCart) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.UserCart, error)
}

// CatalogRepository handles stock units and the denormalized sale
// counters on products and stores. Stock changes are conditional updates,
// never read-modify-write.
type CatalogRepository interface {
	GetVariantSize(ctx context.Context, id uuid.UUID) (domain.ProductVariantSize, error)
	DecrementStock(ctx context.Context, sizeID uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, sizeID uuid.UUID, quantity int) error
	AddProductCounters(ctx context.Context, productID uuid.UUID, soldDelta, availableDelta int) (remaining int, err error)
	AddStoreTotals(ctx context.Context, storeID uuid.UUID, salesDelta int, revenueDelta, feeDelta int64) error
	AdjustStoreProducts(ctx context.Context, storeID uuid.UUID, delta int) error
}

// OrderRepository handles the order aggregate and its status transitions.
// Transitions out of PENDENTE are compare-and-swap updates so that a
// payment webhook and the deferred cancellation job can race safely.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	CreateItem(ctx context.Context, item *domain.OrderItem) error
	UpdateTotals(ctx context.Context, orderID uuid.UUID, quantityItems int, totalPrice, totalPriceBase int64) error
	GetWithItems(ctx context.Context, orderID, profileID uuid.UUID) (domain.Order, error)
	GetByPaymentID(ctx context.Context, asaasPaymentID string) (domain.Order, error)
	SetPaymentID(ctx context.Context, orderID uuid.UUID, asaasPaymentID string) error
	ListByProfile(ctx context.Context, profileID uuid.UUID, page, limit int) ([]domain.Order, error)

	MarkPaidByPaymentID(ctx context.Context, asaasPaymentID string) (domain.Order, error)
	CascadeItemsPaid(ctx context.Context, orderID uuid.UUID) error
	CancelItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	CountActiveItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	MarkOrderCancelled(ctx context.Context, orderID uuid.UUID) (bool, error)
	GetStatus(ctx context.Context, orderID uuid.UUID) (string, error)
}
