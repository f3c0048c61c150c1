package services

import (
	"context"
	"errors"
	"time"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/queue"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"
	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxOrderLines = 5

type OrderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	dispatcher  Dispatcher
	scheduler   Scheduler
	charges     ChargeCanceller
	signer      URLSigner
	cancelDelay time.Duration
	log         *logger.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	dispatcher Dispatcher,
	scheduler Scheduler,
	charges ChargeCanceller,
	signer URLSigner,
	cancelDelay time.Duration,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		db:          db,
		orderRepo:   orderRepo,
		dispatcher:  dispatcher,
		scheduler:   scheduler,
		charges:     charges,
		signer:      signer,
		cancelDelay: cancelDelay,
		log:         log,
	}
}

type BuyProductsInput struct {
	ProfileID     uuid.UUID
	PaymentMethod string
	CartItemIDs   []uuid.UUID
}

// BuyProducts converts cart entries into a PENDENTE order. Stock is
// reserved inside the transaction via conditional decrements, price
// snapshots are taken from current catalog values, and the consumed cart
// entries are deleted. After commit a cancellation job is scheduled for
// the payment window; a scheduling failure is logged but does not undo
// the purchase.
func (s *OrderService) BuyProducts(ctx context.Context, in BuyProductsInput) (domain.Order, error) {
	if len(in.CartItemIDs) == 0 {
		return domain.Order{}, zanzar_errors.ErrInvalidInput
	}
	if len(in.CartItemIDs) > maxOrderLines {
		return domain.Order{}, zanzar_errors.ErrMaxItemsExceeded
	}

	order := domain.Order{
		ID:            uuid.New(),
		ProfileID:     in.ProfileID,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     time.Now(),
	}
	var itemIDs []uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewOrderRepository(tx)
		carts := repository.NewCartRepository(tx)
		catalog := repository.NewCatalogRepository(tx)
		profiles := repository.NewProfileRepository(tx)

		if err := orders.Create(ctx, &order); err != nil {
			return err
		}

		var quantityItems int
		var totalPrice, totalBase int64

		for _, cartID := range in.CartItemIDs {
			entry, err := carts.GetByID(ctx, cartID, in.ProfileID)
			if err != nil {
				return err
			}

			if entry.Quantity <= 0 {
				return zanzar_errors.ErrInvalidQuantity
			}

			size, err := catalog.GetVariantSize(ctx, entry.ProductVariantSizeID)
			if err != nil {
				return err
			}
			if err := catalog.DecrementStock(ctx, size.ID, entry.Quantity); err != nil {
				return err
			}

			qty := int64(entry.Quantity)
			item := domain.OrderItem{
				ID:                   uuid.New(),
				OrderID:              order.ID,
				ProductVariantSizeID: size.ID,
				UserStoreID:          size.Variant.Product.UserStoreID,
				Quantity:             entry.Quantity,
				PriceAtPurchase:      size.Price * qty,
				PriceAtPurchaseBase:  size.BasePrice * qty,
				Status:               domain.PaymentPending,
				CreatedAt:            time.Now(),
			}
			if err := orders.CreateItem(ctx, &item); err != nil {
				return err
			}
			itemIDs = append(itemIDs, item.ID)

			remaining, err := catalog.AddProductCounters(ctx, size.Variant.ProductID, entry.Quantity, -entry.Quantity)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := catalog.AdjustStoreProducts(ctx, item.UserStoreID, -1); err != nil {
					return err
				}
			}
			if err := catalog.AddStoreTotals(ctx, item.UserStoreID, 1, item.PriceAtPurchase, item.PriceAtPurchase-item.PriceAtPurchaseBase); err != nil {
				return err
			}

			if err := carts.Delete(ctx, entry.ID); err != nil {
				return err
			}
			if err := profiles.AdjustCartCount(ctx, in.ProfileID, -1); err != nil {
				return err
			}

			quantityItems += entry.Quantity
			totalPrice += item.PriceAtPurchase
			totalBase += item.PriceAtPurchaseBase
		}

		order.QuantityItems = quantityItems
		order.TotalPrice = totalPrice
		order.TotalPriceBase = totalBase
		return orders.UpdateTotals(ctx, order.ID, quantityItems, totalPrice, totalBase)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.scheduleCancellation(ctx, queue.CancelOrderJob{
		ProfileID:    in.ProfileID,
		OrderID:      order.ID,
		OrderItemIDs: itemIDs,
	})

	return s.orderRepo.GetWithItems(ctx, order.ID, in.ProfileID)
}

// CancelPurchase cancels a pending order on the buyer's request. Each
// item transitions via compare-and-swap, so an item the webhook paid in
// the same instant is left alone. Stock and product counters are
// restored for every item actually cancelled; store sale totals are not
// rolled back.
func (s *OrderService) CancelPurchase(ctx context.Context, profileID, orderID uuid.UUID) (domain.Order, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID, profileID)
	if err != nil {
		return domain.Order{}, err
	}
	switch order.PaymentStatus {
	case domain.PaymentCancelled:
		return domain.Order{}, zanzar_errors.ErrAlreadyCancelled
	case domain.PaymentPaid:
		return domain.Order{}, zanzar_errors.ErrNotPending
	}

	var cancelledCount int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		cancelledCount, txErr = s.cancelItems(ctx, tx, order, order.Items)
		return txErr
	})
	if err != nil {
		return domain.Order{}, err
	}

	cancelled, err := s.orderRepo.GetWithItems(ctx, orderID, profileID)
	if err != nil {
		return domain.Order{}, err
	}

	if cancelledCount > 0 {
		s.cancelCharge(ctx, cancelled)
		s.dispatcher.EmitToProfile(profileID, "orderCancelled", map[string]interface{}{
			"orderId": orderID,
			"status":  cancelled.PaymentStatus,
		})
	}
	return cancelled, nil
}

// CancelExpired is invoked by the deferred cancellation consumer once
// the payment window elapses. An order that was paid in the meantime is
// a successful no-op: payment always wins over the timeout.
func (s *OrderService) CancelExpired(ctx context.Context, job queue.CancelOrderJob) error {
	status, err := s.orderRepo.GetStatus(ctx, job.OrderID)
	if err != nil {
		return err
	}
	if status != domain.PaymentPending {
		s.log.Infof("order %s already %s, skipping expiry cancellation", job.OrderID, status)
		return nil
	}

	order, err := s.orderRepo.GetWithItems(ctx, job.OrderID, job.ProfileID)
	if err != nil {
		return err
	}

	items := order.Items
	if len(job.OrderItemIDs) > 0 {
		items = filterItems(order.Items, job.OrderItemIDs)
	}

	var cancelledCount int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		cancelledCount, txErr = s.cancelItems(ctx, tx, order, items)
		return txErr
	})
	if err != nil {
		return err
	}

	// A webhook racing the expiry can settle every item before the
	// compare-and-swap runs; in that case nothing was cancelled and the
	// buyer must not hear otherwise.
	if cancelledCount > 0 {
		s.cancelCharge(ctx, order)
		s.dispatcher.EmitToProfile(job.ProfileID, "orderCancelled", map[string]interface{}{
			"orderId": job.OrderID,
			"reason":  "paymentExpired",
		})
	}
	return nil
}

// MarkAsPaid settles an order from a confirmed payment. The transition
// is a compare-and-swap on the payment id; a repeated webhook for an
// already settled order is a no-op, a cancelled order is a conflict.
func (s *OrderService) MarkAsPaid(ctx context.Context, asaasPaymentID string) (domain.Order, error) {
	var order domain.Order
	var alreadyPaid bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewOrderRepository(tx)

		var err error
		order, err = orders.MarkPaidByPaymentID(ctx, asaasPaymentID)
		if errors.Is(err, zanzar_errors.ErrAlreadyExists) {
			alreadyPaid = true
			return nil
		}
		if err != nil {
			return err
		}
		return orders.CascadeItemsPaid(ctx, order.ID)
	})
	if err != nil {
		return domain.Order{}, err
	}

	if !alreadyPaid {
		s.dispatcher.EmitToProfile(order.ProfileID, "paymentConfirmed", map[string]interface{}{
			"orderId": order.ID,
			"status":  domain.PaymentPaid,
		})
	}
	return order, nil
}

// UserPurchases lists the profile's orders, newest first, with product
// image keys resolved to signed URLs.
func (s *OrderService) UserPurchases(ctx context.Context, profileID uuid.UUID, page, limit int) ([]domain.Order, error) {
	orders, err := s.orderRepo.ListByProfile(ctx, profileID, page, limit)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		s.signItemImages(ctx, orders[i].Items)
	}
	return orders, nil
}

// GetOrder returns one order owned by the profile.
func (s *OrderService) GetOrder(ctx context.Context, orderID, profileID uuid.UUID) (domain.Order, error) {
	return s.orderRepo.GetWithItems(ctx, orderID, profileID)
}

// signItemImages resolves the variant image keys of the given items into
// short-lived URLs in place. Without a signer the raw keys stay as is.
func (s *OrderService) signItemImages(ctx context.Context, items []domain.OrderItem) {
	if s.signer == nil {
		return
	}
	for i := range items {
		images := items[i].ProductVariantSize.Variant.Images
		for j := range images {
			if images[j].URL == "" {
				continue
			}
			url, err := s.signer.SignedURL(ctx, images[j].URL)
			if err != nil {
				s.log.Warnf("sign image url for item %s: %v", items[i].ID, err)
				continue
			}
			images[j].URL = url
		}
	}
}

// cancelCharge voids the order's open charge at the payment gateway.
// Best effort: a gateway failure is logged and the cancellation stands.
func (s *OrderService) cancelCharge(ctx context.Context, order domain.Order) {
	if s.charges == nil || !order.AsaasPaymentID.Valid || order.AsaasPaymentID.String == "" {
		return
	}
	if err := s.charges.CancelCharge(ctx, order.AsaasPaymentID.String); err != nil {
		s.log.Warnf("cancel charge %s for order %s: %v", order.AsaasPaymentID.String, order.ID, err)
	}
}

// cancelItems cancels the given items of a pending order inside tx and
// reports how many items actually transitioned. Only items still
// PENDENTE transition; each cancelled item restores its stock and
// product counters and is subtracted from the order totals. The order
// itself flips to CANCELADO only when no active item remains.
func (s *OrderService) cancelItems(ctx context.Context, tx *gorm.DB, order domain.Order, items []domain.OrderItem) (int, error) {
	orders := repository.NewOrderRepository(tx)
	catalog := repository.NewCatalogRepository(tx)

	quantityItems := order.QuantityItems
	totalPrice := order.TotalPrice
	totalBase := order.TotalPriceBase
	cancelled := 0

	for _, item := range items {
		ok, err := orders.CancelItem(ctx, item.ID)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		cancelled++

		if err := catalog.RestoreStock(ctx, item.ProductVariantSizeID, item.Quantity); err != nil {
			return 0, err
		}

		size, err := catalog.GetVariantSize(ctx, item.ProductVariantSizeID)
		if err != nil {
			return 0, err
		}
		remaining, err := catalog.AddProductCounters(ctx, size.Variant.ProductID, -item.Quantity, item.Quantity)
		if err != nil {
			return 0, err
		}
		// Restock from zero brings the product back into the store's
		// visible catalog count.
		if remaining == item.Quantity {
			if err := catalog.AdjustStoreProducts(ctx, item.UserStoreID, 1); err != nil {
				return 0, err
			}
		}

		quantityItems -= item.Quantity
		totalPrice -= item.PriceAtPurchase
		totalBase -= item.PriceAtPurchaseBase
	}

	active, err := orders.CountActiveItems(ctx, order.ID)
	if err != nil {
		return 0, err
	}
	if active == 0 {
		if _, err := orders.MarkOrderCancelled(ctx, order.ID); err != nil {
			return 0, err
		}
	}

	if err := orders.UpdateTotals(ctx, order.ID, quantityItems, totalPrice, totalBase); err != nil {
		return 0, err
	}
	return cancelled, nil
}

func (s *OrderService) scheduleCancellation(ctx context.Context, job queue.CancelOrderJob) {
	if s.scheduler == nil {
		s.log.Warnf("no scheduler configured, order %s will not auto-cancel", job.OrderID)
		return
	}
	if err := s.scheduler.Schedule(ctx, job, s.cancelDelay); err != nil {
		s.log.Errorf("schedule cancellation for order %s: %v", job.OrderID, err)
	}
}

func filterItems(items []domain.OrderItem, ids []uuid.UUID) []domain.OrderItem {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]domain.OrderItem, 0, len(ids))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}
