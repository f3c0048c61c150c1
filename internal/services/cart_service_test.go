package services

import (
	"context"
	"testing"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func cartFixture(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewCartService(
		db,
		repository.NewCartRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewProfileRepository(db),
		nil,
		nopLogger(),
	)
	return svc, db
}

func cartCount(t *testing.T, db *gorm.DB, profile domain.Profile) int {
	t.Helper()
	var p domain.Profile
	require.NoError(t, db.First(&p, "id = ?", profile.ID).Error)
	return p.CartCountItems
}

func TestCartService_AddToCart(t *testing.T) {
	svc, db := cartFixture(t)
	ctx := context.Background()
	buyer := seedProfile(t, db, "buyer")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 5)

	entry, err := svc.AddToCart(ctx, AddToCartInput{
		ProfileID:            buyer.ID,
		ProductID:            product.ID,
		ProductVariantID:     variant.ID,
		ProductVariantSizeID: size.ID,
		Quantity:             2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, entry.Quantity)
	require.Equal(t, 1, cartCount(t, db, buyer))
}

func TestCartService_AddToCart_RejectsNonPositiveQuantity(t *testing.T) {
	svc, db := cartFixture(t)
	buyer := seedProfile(t, db, "buyer")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 5)

	_, err := svc.AddToCart(context.Background(), AddToCartInput{
		ProfileID:            buyer.ID,
		ProductID:            product.ID,
		ProductVariantID:     variant.ID,
		ProductVariantSizeID: size.ID,
		Quantity:             0,
	})
	require.ErrorIs(t, err, zanzar_errors.ErrInvalidQuantity)
}

func TestCartService_AddToCart_RejectsInsufficientStock(t *testing.T) {
	svc, db := cartFixture(t)
	buyer := seedProfile(t, db, "buyer")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 2)

	_, err := svc.AddToCart(context.Background(), AddToCartInput{
		ProfileID:            buyer.ID,
		ProductID:            product.ID,
		ProductVariantID:     variant.ID,
		ProductVariantSizeID: size.ID,
		Quantity:             3,
	})
	require.ErrorIs(t, err, zanzar_errors.ErrInsufficientStock)
	require.Equal(t, 0, cartCount(t, db, buyer))
}

func TestCartService_AddToCart_RejectsDuplicateSize(t *testing.T) {
	svc, db := cartFixture(t)
	ctx := context.Background()
	buyer := seedProfile(t, db, "buyer")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 5)

	in := AddToCartInput{
		ProfileID:            buyer.ID,
		ProductID:            product.ID,
		ProductVariantID:     variant.ID,
		ProductVariantSizeID: size.ID,
		Quantity:             1,
	}
	_, err := svc.AddToCart(ctx, in)
	require.NoError(t, err)

	_, err = svc.AddToCart(ctx, in)
	require.ErrorIs(t, err, zanzar_errors.ErrConflict)
	require.Equal(t, 1, cartCount(t, db, buyer))
}

func TestCartService_AddToCart_RejectsFullCart(t *testing.T) {
	svc, db := cartFixture(t)
	buyer := seedProfile(t, db, "buyer")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 5)

	require.NoError(t, db.Model(&domain.Profile{}).
		Where("id = ?", buyer.ID).
		UpdateColumn("cart_count_items", maxCartItems).Error)

	_, err := svc.AddToCart(context.Background(), AddToCartInput{
		ProfileID:            buyer.ID,
		ProductID:            product.ID,
		ProductVariantID:     variant.ID,
		ProductVariantSizeID: size.ID,
		Quantity:             1,
	})
	require.ErrorIs(t, err, zanzar_errors.ErrCartLimitReached)
}

func TestCartService_RemoveFromCart(t *testing.T) {
	svc, db := cartFixture(t)
	ctx := context.Background()
	buyer := seedProfile(t, db, "buyer")
	other := seedProfile(t, db, "other")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 5)
	entry := seedCartEntry(t, db, buyer.ID, product, variant, size, 1)

	require.ErrorIs(t, svc.RemoveFromCart(ctx, entry.ID, other.ID), zanzar_errors.ErrNotFound)

	require.NoError(t, svc.RemoveFromCart(ctx, entry.ID, buyer.ID))
	require.Equal(t, 0, cartCount(t, db, buyer))

	var remaining int64
	require.NoError(t, db.Model(&domain.UserCart{}).Where("profile_id = ?", buyer.ID).Count(&remaining).Error)
	require.EqualValues(t, 0, remaining)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	svc, db := cartFixture(t)
	ctx := context.Background()
	buyer := seedProfile(t, db, "buyer")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 4)
	entry := seedCartEntry(t, db, buyer.ID, product, variant, size, 1)

	require.ErrorIs(t, svc.UpdateQuantity(ctx, entry.ID, buyer.ID, 0), zanzar_errors.ErrInvalidQuantity)
	require.ErrorIs(t, svc.UpdateQuantity(ctx, entry.ID, buyer.ID, 5), zanzar_errors.ErrInsufficientStock)

	require.NoError(t, svc.UpdateQuantity(ctx, entry.ID, buyer.ID, 3))

	var updated domain.UserCart
	require.NoError(t, db.First(&updated, "id = ?", entry.ID).Error)
	require.Equal(t, 3, updated.Quantity)
}

func TestCartService_ListCart(t *testing.T) {
	svc, db := cartFixture(t)
	ctx := context.Background()
	buyer := seedProfile(t, db, "buyer")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 5)
	seedCartEntry(t, db, buyer.ID, product, variant, size, 2)

	views, err := svc.ListCart(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	require.Equal(t, product.ID, view.ProductID)
	require.Equal(t, product.Name, view.ProductName)
	require.Equal(t, size.Size, view.Size)
	require.Equal(t, 2, view.Quantity)
	require.EqualValues(t, 5000, view.UnitPrice)
	require.EqualValues(t, 10000, view.TotalPrice)
	require.Equal(t, 5, view.Stock)
	require.Empty(t, view.ImageURL)
}
