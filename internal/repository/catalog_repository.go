package repository

import (
	"context"
	"errors"

	"zanzar-backend/internal/domain"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresCatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

func (r *PostgresCatalogRepository) GetVariantSize(ctx context.Context, id uuid.UUID) (domain.ProductVariantSize, error) {
	var size domain.ProductVariantSize
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Preload("Variant.Product").
		First(&size).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProductVariantSize{}, zanzar_errors.ErrNotFound
		}
		return domain.ProductVariantSize{}, err
	}
	return size, nil
}

// DecrementStock is the atomic check-and-decrement: the stock guard lives
// in the WHERE clause so two concurrent purchases can never drive stock
// negative.
func (r *PostgresCatalogRepository) DecrementStock(ctx context.Context, sizeID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ProductVariantSize{}).
		Where("id = ? AND stock >= ?", sizeID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrInsufficientStock
	}
	return nil
}

func (r *PostgresCatalogRepository) RestoreStock(ctx context.Context, sizeID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ProductVariantSize{}).
		Where("id = ?", sizeID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresCatalogRepository) AddProductCounters(ctx context.Context, productID uuid.UUID, soldDelta, availableDelta int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"total_sold":         gorm.Expr("total_sold + ?", soldDelta),
			"available_quantity": gorm.Expr("available_quantity + ?", availableDelta),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, zanzar_errors.ErrNotFound
	}

	var product domain.Product
	if err := r.db.WithContext(ctx).Select("available_quantity").Where("id = ?", productID).First(&product).Error; err != nil {
		return 0, err
	}
	return product.AvailableQuantity, nil
}

func (r *PostgresCatalogRepository) AddStoreTotals(ctx context.Context, storeID uuid.UUID, salesDelta int, revenueDelta, feeDelta int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.UserStore{}).
		Where("id = ?", storeID).
		UpdateColumns(map[string]interface{}{
			"total_sales":   gorm.Expr("total_sales + ?", salesDelta),
			"total_revenue": gorm.Expr("total_revenue + ?", revenueDelta),
			"total_fee":     gorm.Expr("total_fee + ?", feeDelta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresCatalogRepository) AdjustStoreProducts(ctx context.Context, storeID uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.UserStore{}).
		Where("id = ?", storeID).
		UpdateColumn("total_products", gorm.Expr("total_products + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}
