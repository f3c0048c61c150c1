package services

import (
	"context"
	"database/sql"
	"testing"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/payment"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	customers   int
	charges     int
	lastCharge  payment.ChargeInput
	chargeID    string
	qrPayload   string
	customerErr error
}

func (f *fakeGateway) CreateCustomer(_ context.Context, in payment.CustomerInput) (string, error) {
	f.customers++
	if f.customerErr != nil {
		return "", f.customerErr
	}
	return "cus_" + in.CPF, nil
}

func (f *fakeGateway) CreatePixCharge(_ context.Context, in payment.ChargeInput) (payment.Charge, error) {
	f.charges++
	f.lastCharge = in
	return payment.Charge{ID: f.chargeID, Status: "PENDING"}, nil
}

func (f *fakeGateway) PixQRCode(_ context.Context, paymentID string) (payment.QRCode, error) {
	return payment.QRCode{Payload: f.qrPayload, EncodedImage: "aW1n", ExpirationDate: "2026-09-01 10:00:00"}, nil
}

func paymentFixture(t *testing.T) (*PaymentService, *fakeGateway, *fakeDispatcher, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	dispatcher := &fakeDispatcher{}
	gateway := &fakeGateway{chargeID: "pay_abc", qrPayload: "00020126..."}
	orders := NewOrderService(db, repository.NewOrderRepository(db), dispatcher, &fakeScheduler{}, nil, nil, testCancelDelay, nopLogger())
	svc := NewPaymentService(gateway, repository.NewOrderRepository(db), repository.NewProfileRepository(db), orders, nopLogger())
	return svc, gateway, dispatcher, db
}

func seedPayableOrder(t *testing.T, db *gorm.DB, orders *OrderService) (domain.Profile, domain.Order) {
	t.Helper()
	buyer := seedProfile(t, db, "buyer_"+uuid.NewString()[:8])
	require.NoError(t, db.Model(&domain.Profile{}).
		Where("id = ?", buyer.ID).
		UpdateColumn("cpf", "12345678909").Error)
	buyer.CPF = sql.NullString{String: "12345678909", Valid: true}

	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 2)
	entry := seedCartEntry(t, db, buyer.ID, product, variant, size, 2)

	order, err := orders.BuyProducts(context.Background(), BuyProductsInput{
		ProfileID:     buyer.ID,
		PaymentMethod: "PIX",
		CartItemIDs:   []uuid.UUID{entry.ID},
	})
	require.NoError(t, err)
	return buyer, order
}

func TestPaymentService_CreatePixCharge(t *testing.T) {
	svc, gateway, _, db := paymentFixture(t)
	buyer, order := seedPayableOrder(t, db, svc.orders)

	charge, err := svc.CreatePixCharge(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, "pay_abc", charge.PaymentID)
	require.Equal(t, "00020126...", charge.Payload)
	require.NotEmpty(t, charge.EncodedImage)

	require.EqualValues(t, 10000, gateway.lastCharge.ValueCents)
	require.Equal(t, order.ID.String(), gateway.lastCharge.ExternalRef)

	var stored domain.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.True(t, stored.AsaasPaymentID.Valid)
	require.Equal(t, "pay_abc", stored.AsaasPaymentID.String)
}

func TestPaymentService_CreatePixCharge_ReusesExistingCharge(t *testing.T) {
	svc, gateway, _, db := paymentFixture(t)
	buyer, order := seedPayableOrder(t, db, svc.orders)

	_, err := svc.CreatePixCharge(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)

	charge, err := svc.CreatePixCharge(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, "pay_abc", charge.PaymentID)
	require.Equal(t, 1, gateway.customers)
	require.Equal(t, 1, gateway.charges)
}

func TestPaymentService_CreatePixCharge_RequiresCPF(t *testing.T) {
	svc, _, _, db := paymentFixture(t)
	buyer := seedProfile(t, db, "semcpf")
	_, product, variant, size := seedCatalog(t, db, 5000, 3000, 2)
	entry := seedCartEntry(t, db, buyer.ID, product, variant, size, 1)

	order, err := svc.orders.BuyProducts(context.Background(), BuyProductsInput{
		ProfileID:   buyer.ID,
		CartItemIDs: []uuid.UUID{entry.ID},
	})
	require.NoError(t, err)

	_, err = svc.CreatePixCharge(context.Background(), buyer.ID, order.ID)
	require.ErrorIs(t, err, zanzar_errors.ErrInvalidInput)
}

func TestPaymentService_CreatePixCharge_RequiresPendingOrder(t *testing.T) {
	svc, _, _, db := paymentFixture(t)
	buyer, order := seedPayableOrder(t, db, svc.orders)

	_, err := svc.orders.CancelPurchase(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)

	_, err = svc.CreatePixCharge(context.Background(), buyer.ID, order.ID)
	require.ErrorIs(t, err, zanzar_errors.ErrNotPending)
}

func TestPaymentService_HandleWebhook_Settles(t *testing.T) {
	svc, _, dispatcher, db := paymentFixture(t)
	buyer, order := seedPayableOrder(t, db, svc.orders)

	_, err := svc.CreatePixCharge(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)

	var event WebhookEvent
	event.Event = "PAYMENT_RECEIVED"
	event.Payment.ID = "pay_abc"
	event.Payment.Status = "RECEIVED"
	require.NoError(t, svc.HandleWebhook(context.Background(), event))

	got, err := svc.orders.GetOrder(context.Background(), order.ID, buyer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	require.Len(t, dispatcher.profileEvents(buyer.ID, "paymentConfirmed"), 1)

	// Retried delivery settles nothing twice.
	require.NoError(t, svc.HandleWebhook(context.Background(), event))
	require.Len(t, dispatcher.profileEvents(buyer.ID, "paymentConfirmed"), 1)
}

func TestPaymentService_HandleWebhook_IgnoresOtherEvents(t *testing.T) {
	svc, _, _, db := paymentFixture(t)
	buyer, order := seedPayableOrder(t, db, svc.orders)

	_, err := svc.CreatePixCharge(context.Background(), buyer.ID, order.ID)
	require.NoError(t, err)

	var event WebhookEvent
	event.Event = "PAYMENT_CREATED"
	event.Payment.ID = "pay_abc"
	event.Payment.Status = "PENDING"
	require.NoError(t, svc.HandleWebhook(context.Background(), event))

	got, err := svc.orders.GetOrder(context.Background(), order.ID, buyer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPending, got.PaymentStatus)
}

func TestPaymentService_HandleWebhook_RejectsEmptyPaymentID(t *testing.T) {
	svc, _, _, _ := paymentFixture(t)
	require.ErrorIs(t, svc.HandleWebhook(context.Background(), WebhookEvent{Event: "PAYMENT_RECEIVED"}), zanzar_errors.ErrInvalidInput)
}
