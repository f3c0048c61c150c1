package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStore represents the user_stores table
type UserStore struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"uniqueIndex"`
	Slug          string    `gorm:"uniqueIndex"`
	TotalSales    int
	TotalRevenue  int64 // cents
	TotalFee      int64 // cents
	TotalProducts int
	CreatedAt     time.Time
}

// Product represents the products table
type Product struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserStoreID       uuid.UUID `gorm:"type:uuid;index"`
	Name              string
	Description       string
	TotalSold         int
	AvailableQuantity int
	Rating            int
	RatingCount       int
	CreatedAt         time.Time
}

// ProductVariant represents the product_variants table (one color of a product)
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;index"`
	ColorName string
	ColorCode string

	Product Product        `gorm:"foreignKey:ProductID"`
	Images  []ProductImage `gorm:"foreignKey:VariantID"`
}

// ProductImage represents the product_images table. URL holds the object
// storage key; signed URLs are resolved at read time.
type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	VariantID uuid.UUID `gorm:"type:uuid;index"`
	URL       string
	Position  int
}

// ProductVariantSize represents the product_variant_sizes table. This is
// the stock unit: the smallest purchasable size/variant combination.
// Stock must never go negative; all mutations are conditional updates.
type ProductVariantSize struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	VariantID uuid.UUID `gorm:"type:uuid;index"`
	Size      string
	Price     int64 // cents, marked-up
	BasePrice int64 // cents
	Stock     int

	Variant ProductVariant `gorm:"foreignKey:VariantID"`
}

func (UserStore) TableName() string {
	return "user_stores"
}

func (Product) TableName() string {
	return "products"
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

func (ProductImage) TableName() string {
	return "product_images"
}

func (ProductVariantSize) TableName() string {
	return "product_variant_sizes"
}
