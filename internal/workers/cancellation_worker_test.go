package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/queue"
	"zanzar-backend/internal/repository"
	"zanzar-backend/internal/services"
	"zanzar-backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type nopDispatcher struct{}

func (nopDispatcher) EmitToProfile(uuid.UUID, string, interface{}) {}
func (nopDispatcher) EmitToRoom(string, string, interface{})      {}
func (nopDispatcher) BroadcastAll(string, interface{})            {}

func newWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Profile{},
		&domain.UserStore{},
		&domain.Product{},
		&domain.ProductVariant{},
		&domain.ProductImage{},
		&domain.ProductVariantSize{},
		&domain.Order{},
		&domain.OrderItem{},
	))
	return db
}

type workerFixture struct {
	worker *CancellationWorker
	db     *gorm.DB
}

func newWorkerFixture(t *testing.T) workerFixture {
	t.Helper()
	db := newWorkerDB(t)
	orders := services.NewOrderService(
		db,
		repository.NewOrderRepository(db),
		nopDispatcher{},
		nil,
		nil,
		nil,
		time.Minute,
		logger.NewNop(),
	)
	return workerFixture{
		worker: NewCancellationWorker(nil, orders, logger.NewNop()),
		db:     db,
	}
}

// seedPendingOrder inserts an order in the post-purchase state: stock
// already decremented, counters already moved.
func seedPendingOrder(t *testing.T, db *gorm.DB, quantity int) (queue.CancelOrderJob, uuid.UUID) {
	t.Helper()

	profile := domain.Profile{ID: uuid.New(), Username: "buyer_" + uuid.NewString()[:8], CreatedAt: time.Now()}
	require.NoError(t, db.Create(&profile).Error)

	store := domain.UserStore{ID: uuid.New(), Name: "store_" + uuid.NewString()[:8], Slug: uuid.NewString(), TotalSales: 1, TotalRevenue: 10000, TotalFee: 4000, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&store).Error)

	product := domain.Product{ID: uuid.New(), UserStoreID: store.ID, Name: "Camiseta", TotalSold: quantity, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&product).Error)

	variant := domain.ProductVariant{ID: uuid.New(), ProductID: product.ID, ColorName: "Preto"}
	require.NoError(t, db.Create(&variant).Error)

	size := domain.ProductVariantSize{ID: uuid.New(), VariantID: variant.ID, Size: "M", Price: 5000, BasePrice: 3000, Stock: 0}
	require.NoError(t, db.Create(&size).Error)

	order := domain.Order{
		ID:            uuid.New(),
		ProfileID:     profile.ID,
		PaymentMethod: "PIX",
		PaymentStatus: domain.PaymentPending,
		QuantityItems: quantity,
		TotalPrice:    10000,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, db.Create(&order).Error)

	item := domain.OrderItem{
		ID:                   uuid.New(),
		OrderID:              order.ID,
		ProductVariantSizeID: size.ID,
		UserStoreID:          store.ID,
		Quantity:             quantity,
		PriceAtPurchase:      10000,
		PriceAtPurchaseBase:  6000,
		Status:               domain.PaymentPending,
		CreatedAt:            time.Now(),
	}
	require.NoError(t, db.Create(&item).Error)

	return queue.CancelOrderJob{
		ProfileID:    profile.ID,
		OrderID:      order.ID,
		OrderItemIDs: []uuid.UUID{item.ID},
	}, size.ID
}

func TestCancellationWorker_MalformedJobDropped(t *testing.T) {
	f := newWorkerFixture(t)
	require.NoError(t, f.worker.handle(context.Background(), []byte("{not json")))
}

func TestCancellationWorker_MissingOrderDropped(t *testing.T) {
	f := newWorkerFixture(t)
	body, err := json.Marshal(queue.CancelOrderJob{OrderID: uuid.New(), ProfileID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, f.worker.handle(context.Background(), body))
}

func TestCancellationWorker_CancelsPendingOrder(t *testing.T) {
	f := newWorkerFixture(t)
	job, sizeID := seedPendingOrder(t, f.db, 2)

	body, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, f.worker.handle(context.Background(), body))

	var order domain.Order
	require.NoError(t, f.db.First(&order, "id = ?", job.OrderID).Error)
	require.Equal(t, domain.PaymentCancelled, order.PaymentStatus)

	var size domain.ProductVariantSize
	require.NoError(t, f.db.First(&size, "id = ?", sizeID).Error)
	require.Equal(t, 2, size.Stock)
}

func TestCancellationWorker_PaidOrderLeftAlone(t *testing.T) {
	f := newWorkerFixture(t)
	job, sizeID := seedPendingOrder(t, f.db, 2)

	require.NoError(t, f.db.Model(&domain.Order{}).
		Where("id = ?", job.OrderID).
		Update("payment_status", domain.PaymentPaid).Error)

	body, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, f.worker.handle(context.Background(), body))

	var order domain.Order
	require.NoError(t, f.db.First(&order, "id = ?", job.OrderID).Error)
	require.Equal(t, domain.PaymentPaid, order.PaymentStatus)

	var size domain.ProductVariantSize
	require.NoError(t, f.db.First(&size, "id = ?", sizeID).Error)
	require.Equal(t, 0, size.Stock)
}
