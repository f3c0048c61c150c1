package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/queue"
	"zanzar-backend/pkg/logger"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Profile{},
		&domain.Conversation{},
		&domain.Participant{},
		&domain.Message{},
		&domain.ReadStatus{},
		&domain.Notification{},
		&domain.UserStore{},
		&domain.Product{},
		&domain.ProductVariant{},
		&domain.ProductImage{},
		&domain.ProductVariantSize{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.UserCart{},
	))
	return db
}

type emittedEvent struct {
	Profile uuid.UUID
	Room    string
	Event   string
	Data    interface{}
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakeDispatcher) EmitToProfile(profileID uuid.UUID, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{Profile: profileID, Event: event, Data: data})
}

func (f *fakeDispatcher) EmitToRoom(room string, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{Room: room, Event: event, Data: data})
}

func (f *fakeDispatcher) BroadcastAll(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{Event: event, Data: data})
}

func (f *fakeDispatcher) eventsNamed(name string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emittedEvent
	for _, e := range f.events {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeDispatcher) profileEvents(profileID uuid.UUID, name string) []emittedEvent {
	var out []emittedEvent
	for _, e := range f.eventsNamed(name) {
		if e.Profile == profileID {
			out = append(out, e)
		}
	}
	return out
}

type fakeScheduler struct {
	mu     sync.Mutex
	jobs   []queue.CancelOrderJob
	delays []time.Duration
	err    error
}

func (f *fakeScheduler) Schedule(_ context.Context, job queue.CancelOrderJob, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	f.delays = append(f.delays, delay)
	return nil
}

// fakeSigner prefixes keys so tests can tell a resolved URL from the
// raw stored key.
type fakeSigner struct {
	err error
}

func (f *fakeSigner) SignedURL(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + key + "?signed", nil
}

type fakeCanceller struct {
	mu        sync.Mutex
	cancelled []string
	err       error
}

func (f *fakeCanceller) CancelCharge(_ context.Context, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, paymentID)
	return nil
}

func nopLogger() *logger.Logger {
	return logger.NewNop()
}

func seedProfile(t *testing.T, db *gorm.DB, username string) domain.Profile {
	t.Helper()
	p := domain.Profile{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// seedCatalog creates a store with one product, one variant and one size
// holding the given stock.
func seedCatalog(t *testing.T, db *gorm.DB, priceCents, basePriceCents int64, stock int) (domain.UserStore, domain.Product, domain.ProductVariant, domain.ProductVariantSize) {
	t.Helper()

	store := domain.UserStore{
		ID:            uuid.New(),
		Name:          "store-" + uuid.NewString(),
		Slug:          "store-" + uuid.NewString(),
		TotalProducts: 1,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, db.Create(&store).Error)

	product := domain.Product{
		ID:                uuid.New(),
		UserStoreID:       store.ID,
		Name:              "Camiseta",
		AvailableQuantity: stock,
		CreatedAt:         time.Now(),
	}
	require.NoError(t, db.Create(&product).Error)

	variant := domain.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		ColorName: "Preto",
		ColorCode: "#000",
	}
	require.NoError(t, db.Create(&variant).Error)

	size := domain.ProductVariantSize{
		ID:        uuid.New(),
		VariantID: variant.ID,
		Size:      "M",
		Price:     priceCents,
		BasePrice: basePriceCents,
		Stock:     stock,
	}
	require.NoError(t, db.Create(&size).Error)

	return store, product, variant, size
}

func seedCartEntry(t *testing.T, db *gorm.DB, profileID uuid.UUID, product domain.Product, variant domain.ProductVariant, size domain.ProductVariantSize, quantity int) domain.UserCart {
	t.Helper()
	entry := domain.UserCart{
		ID:                   uuid.New(),
		ProfileID:            profileID,
		ProductID:            product.ID,
		ProductVariantID:     variant.ID,
		ProductVariantSizeID: size.ID,
		Quantity:             quantity,
		CreatedAt:            time.Now(),
	}
	require.NoError(t, db.Create(&entry).Error)
	require.NoError(t, db.Model(&domain.Profile{}).Where("id = ?", profileID).
		UpdateColumn("cart_count_items", gorm.Expr("cart_count_items + 1")).Error)
	return entry
}
