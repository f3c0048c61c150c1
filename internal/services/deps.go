package services

import (
	"context"
	"time"

	"zanzar-backend/internal/queue"

	"github.com/google/uuid"
)

// Dispatcher pushes events to live connections. Delivery is best-effort
// and never returns an error to the caller: durable state is already
// committed by the time an emit happens.
type Dispatcher interface {
	EmitToProfile(profileID uuid.UUID, event string, data interface{})
	EmitToRoom(room string, event string, data interface{})
	BroadcastAll(event string, data interface{})
}

// Scheduler enqueues a cancellation job to fire after the payment window.
type Scheduler interface {
	Schedule(ctx context.Context, job queue.CancelOrderJob, delay time.Duration) error
}

// URLSigner resolves an object storage key into a short-lived URL.
type URLSigner interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

// ChargeCanceller voids an open charge at the payment gateway.
type ChargeCanceller interface {
	CancelCharge(ctx context.Context, paymentID string) error
}

// ChatRoom is the room key for a conversation.
func ChatRoom(conversationID uuid.UUID) string {
	return "chat:" + conversationID.String()
}
