package repository

import (
	"context"
	"errors"

	"zanzar-backend/internal/domain"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	var p domain.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, zanzar_errors.ErrNotFound
		}
		return domain.Profile{}, err
	}
	return p, nil
}

func (r *PostgresProfileRepository) AdjustCartCount(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", id).
		UpdateColumn("cart_count_items", gorm.Expr("cart_count_items + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return zanzar_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresProfileRepository) InviteCount(ctx context.Context, id uuid.UUID) (int, error) {
	var p domain.Profile
	err := r.db.WithContext(ctx).Select("invites").Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return p.Invites, nil
}
