package repository

import (
	"context"
	"errors"

	"zanzar-backend/internal/domain"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &PostgresOrderRepository{db: db}
}

func (r *PostgresOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *PostgresOrderRepository) CreateItem(ctx context.Context, item *domain.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *PostgresOrderRepository) UpdateTotals(ctx context.Context, orderID uuid.UUID, quantityItems int, totalPrice, totalPriceBase int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"quantity_items":   quantityItems,
			"total_price":      totalPrice,
			"total_price_base": totalPriceBase,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresOrderRepository) GetWithItems(ctx context.Context, orderID, profileID uuid.UUID) (domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", orderID, profileID).
		Preload("Items").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, zanzar_errors.ErrNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) GetByPaymentID(ctx context.Context, asaasPaymentID string) (domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Where("asaas_payment_id = ?", asaasPaymentID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, zanzar_errors.ErrNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) SetPaymentID(ctx context.Context, orderID uuid.UUID, asaasPaymentID string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("asaas_payment_id", asaasPaymentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresOrderRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, page, limit int) ([]domain.Order, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Items.ProductVariantSize.Variant.Product").
		Preload("Items.ProductVariantSize.Variant.Images").
		Preload("Items.UserStore").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaidByPaymentID flips the order PENDENTE -> PAGO. The status guard
// is part of the UPDATE so a racing cancellation job observes the
// transition and no-ops. Returns the order after the update; a missing
// payment id maps to ErrNotFound, a settled order to ErrConflict unless
// it is already PAGO, which is reported as a clean no-op via
// ErrAlreadyExists.
func (r *PostgresOrderRepository) MarkPaidByPaymentID(ctx context.Context, asaasPaymentID string) (domain.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("asaas_payment_id = ? AND payment_status = ?", asaasPaymentID, domain.PaymentPending).
		Update("payment_status", domain.PaymentPaid)
	if res.Error != nil {
		return domain.Order{}, res.Error
	}

	order, err := r.GetByPaymentID(ctx, asaasPaymentID)
	if err != nil {
		return domain.Order{}, err
	}
	if res.RowsAffected == 0 {
		if order.PaymentStatus == domain.PaymentPaid {
			return order, zanzar_errors.ErrAlreadyExists
		}
		return order, zanzar_errors.ErrConflict
	}
	return order, nil
}

func (r *PostgresOrderRepository) CascadeItemsPaid(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("order_id = ? AND status = ?", orderID, domain.PaymentPending).
		Update("status", domain.PaymentPaid).Error
}

// CancelItem transitions one item PENDENTE -> CANCELADO. Returns false
// when the item was not pending (already cancelled, or paid in the
// meantime) so the caller skips the stock restore.
func (r *PostgresOrderRepository) CancelItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("id = ? AND status = ?", itemID, domain.PaymentPending).
		Update("status", domain.PaymentCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresOrderRepository) CountActiveItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("order_id = ? AND status <> ?", orderID, domain.PaymentCancelled).
		Count(&count).Error
	return count, err
}

func (r *PostgresOrderRepository) MarkOrderCancelled(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND payment_status = ?", orderID, domain.PaymentPending).
		Update("payment_status", domain.PaymentCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresOrderRepository) GetStatus(ctx context.Context, orderID uuid.UUID) (string, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Select("payment_status").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", zanzar_errors.ErrNotFound
		}
		return "", err
	}
	return order.PaymentStatus, nil
}
