package queue

import "github.com/google/uuid"

// CancelOrderJob is the payload scheduled when an order is created and
// consumed after the payment window elapses. It carries the item IDs so
// the consumer cancels exactly the items created in that purchase.
type CancelOrderJob struct {
	ProfileID    uuid.UUID   `json:"profileId"`
	OrderID      uuid.UUID   `json:"orderId"`
	OrderItemIDs []uuid.UUID `json:"orderItemIds"`
}
