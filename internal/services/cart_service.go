package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"
	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxCartItems = 10

type CartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	profileRepo repository.ProfileRepository
	signer      URLSigner
	log         *logger.Logger
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	catalogRepo repository.CatalogRepository,
	profileRepo repository.ProfileRepository,
	signer URLSigner,
	log *logger.Logger,
) *CartService {
	return &CartService{
		db:          db,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		profileRepo: profileRepo,
		signer:      signer,
		log:         log,
	}
}

type AddToCartInput struct {
	ProfileID            uuid.UUID
	ProductID            uuid.UUID
	ProductVariantID     uuid.UUID
	ProductVariantSizeID uuid.UUID
	Quantity             int
}

// CartItemView is one cart entry as rendered to the client. ImageURL is
// a signed URL minted at read time; it is empty when storage is not
// configured or the variant has no images.
type CartItemView struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"productId"`
	VariantID   uuid.UUID `json:"variantId"`
	SizeID      uuid.UUID `json:"sizeId"`
	ProductName string    `json:"productName"`
	ColorName   string    `json:"colorName"`
	Size        string    `json:"size"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unitPrice"`
	TotalPrice  int64     `json:"totalPrice"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AddToCart creates a cart entry for a stock unit. A second entry for
// the same size is rejected rather than merged, and the cart holds at
// most ten entries.
func (s *CartService) AddToCart(ctx context.Context, in AddToCartInput) (domain.UserCart, error) {
	if in.Quantity <= 0 {
		return domain.UserCart{}, zanzar_errors.ErrInvalidQuantity
	}

	size, err := s.catalogRepo.GetVariantSize(ctx, in.ProductVariantSizeID)
	if err != nil {
		return domain.UserCart{}, err
	}
	if size.Stock < in.Quantity {
		return domain.UserCart{}, zanzar_errors.ErrInsufficientStock
	}

	if _, err := s.cartRepo.FindByProfileAndSize(ctx, in.ProfileID, in.ProductVariantSizeID); err == nil {
		return domain.UserCart{}, zanzar_errors.ErrConflict
	} else if !errors.Is(err, zanzar_errors.ErrNotFound) {
		return domain.UserCart{}, err
	}

	profile, err := s.profileRepo.GetByID(ctx, in.ProfileID)
	if err != nil {
		return domain.UserCart{}, err
	}
	if profile.CartCountItems >= maxCartItems {
		return domain.UserCart{}, zanzar_errors.ErrCartLimitReached
	}

	entry := domain.UserCart{
		ID:                   uuid.New(),
		ProfileID:            in.ProfileID,
		ProductID:            in.ProductID,
		ProductVariantID:     in.ProductVariantID,
		ProductVariantSizeID: in.ProductVariantSizeID,
		Quantity:             in.Quantity,
		CreatedAt:            time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCartRepository(tx).Create(ctx, &entry); err != nil {
			return err
		}
		return repository.NewProfileRepository(tx).AdjustCartCount(ctx, in.ProfileID, 1)
	})
	if err != nil {
		return domain.UserCart{}, err
	}

	return entry, nil
}

// RemoveFromCart deletes a cart entry owned by the profile.
func (s *CartService) RemoveFromCart(ctx context.Context, cartID, profileID uuid.UUID) error {
	if _, err := s.cartRepo.GetByID(ctx, cartID, profileID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCartRepository(tx).Delete(ctx, cartID); err != nil {
			return err
		}
		return repository.NewProfileRepository(tx).AdjustCartCount(ctx, profileID, -1)
	})
}

// UpdateQuantity changes the quantity of a cart entry. The new quantity
// is validated against current stock.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, profileID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return zanzar_errors.ErrInvalidQuantity
	}

	entry, err := s.cartRepo.GetByID(ctx, cartID, profileID)
	if err != nil {
		return err
	}

	size, err := s.catalogRepo.GetVariantSize(ctx, entry.ProductVariantSizeID)
	if err != nil {
		return err
	}
	if size.Stock < quantity {
		return zanzar_errors.ErrInsufficientStock
	}

	return s.cartRepo.UpdateQuantity(ctx, cartID, quantity)
}

// ListCart returns the profile's cart entries with current prices, stock
// and a signed image URL per entry.
func (s *CartService) ListCart(ctx context.Context, profileID uuid.UUID) ([]CartItemView, error) {
	entries, err := s.cartRepo.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	views := make([]CartItemView, 0, len(entries))
	for _, e := range entries {
		view := CartItemView{
			ID:          e.ID,
			ProductID:   e.ProductID,
			VariantID:   e.ProductVariantID,
			SizeID:      e.ProductVariantSizeID,
			ProductName: e.ProductVariant.Product.Name,
			ColorName:   e.ProductVariant.ColorName,
			Size:        e.ProductVariantSize.Size,
			Quantity:    e.Quantity,
			UnitPrice:   e.ProductVariantSize.Price,
			TotalPrice:  e.ProductVariantSize.Price * int64(e.Quantity),
			Stock:       e.ProductVariantSize.Stock,
			CreatedAt:   e.CreatedAt,
		}
		if key := firstImageKey(e.ProductVariant.Images); key != "" && s.signer != nil {
			url, err := s.signer.SignedURL(ctx, key)
			if err != nil {
				s.log.Warnf("sign image url for cart entry %s: %v", e.ID, err)
			} else {
				view.ImageURL = url
			}
		}
		views = append(views, view)
	}

	return views, nil
}

func firstImageKey(images []domain.ProductImage) string {
	if len(images) == 0 {
		return ""
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Position < images[j].Position })
	return images[0].URL
}
