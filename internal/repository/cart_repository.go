package repository

import (
	"context"
	"errors"

	"zanzar-backend/internal/domain"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresCartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &PostgresCartRepository{db: db}
}

func (r *PostgresCartRepository) GetByID(ctx context.Context, id, profileID uuid.UUID) (domain.UserCart, error) {
	var entry domain.UserCart
	err := r.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", id, profileID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserCart{}, zanzar_errors.ErrNotFound
		}
		return domain.UserCart{}, err
	}
	return entry, nil
}

func (r *PostgresCartRepository) FindByProfileAndSize(ctx context.Context, profileID, sizeID uuid.UUID) (domain.UserCart, error) {
	var entry domain.UserCart
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND product_variant_size_id = ?", profileID, sizeID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserCart{}, zanzar_errors.ErrNotFound
		}
		return domain.UserCart{}, err
	}
	return entry, nil
}

func (r *PostgresCartRepository) Create(ctx context.Context, entry *domain.UserCart) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *PostgresCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.UserCart{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresCartRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.UserCart{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresCartRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.UserCart, error) {
	var entries []domain.UserCart
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at ASC").
		Preload("ProductVariantSize").
		Preload("ProductVariant.Product").
		Preload("ProductVariant.Images").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
