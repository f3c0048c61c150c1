package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Payment statuses shared by Order and OrderItem. PAGO and CANCELADO are
// terminal.
const (
	PaymentPending   = "PENDENTE"
	PaymentPaid      = "PAGO"
	PaymentCancelled = "CANCELADO"
)

// Order represents the orders table. Totals are always the sum over
// non-cancelled items, recomputed in the same transaction that changes
// item status.
type Order struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID      uuid.UUID `gorm:"type:uuid;index"`
	PaymentMethod  string
	PaymentStatus  string
	QuantityItems  int
	TotalPrice     int64 // cents
	TotalPriceBase int64 // cents
	AsaasPaymentID sql.NullString `gorm:"uniqueIndex"`
	CreatedAt      time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem represents the order_items table. Price fields are immutable
// snapshots taken at purchase time.
type OrderItem struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID              uuid.UUID `gorm:"type:uuid;index"`
	ProductVariantSizeID uuid.UUID `gorm:"type:uuid"`
	UserStoreID          uuid.UUID `gorm:"type:uuid"`
	Quantity             int
	PriceAtPurchase      int64 // cents, quantity included
	PriceAtPurchaseBase  int64 // cents, quantity included
	Status               string
	CreatedAt            time.Time

	ProductVariantSize ProductVariantSize `gorm:"foreignKey:ProductVariantSizeID"`
	UserStore          UserStore          `gorm:"foreignKey:UserStoreID"`
}

// UserCart represents the user_carts table. An entry is deleted the
// moment it converts into an OrderItem.
type UserCart struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID            uuid.UUID `gorm:"type:uuid;index"`
	ProductID            uuid.UUID `gorm:"type:uuid"`
	ProductVariantID     uuid.UUID `gorm:"type:uuid"`
	ProductVariantSizeID uuid.UUID `gorm:"type:uuid"`
	Quantity             int
	CreatedAt            time.Time

	ProductVariant     ProductVariant     `gorm:"foreignKey:ProductVariantID"`
	ProductVariantSize ProductVariantSize `gorm:"foreignKey:ProductVariantSizeID"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (UserCart) TableName() string {
	return "user_carts"
}
