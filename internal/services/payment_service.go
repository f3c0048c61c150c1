package services

import (
	"context"
	"fmt"
	"time"

	"zanzar-backend/internal/domain"
	"zanzar-backend/internal/payment"
	"zanzar-backend/internal/repository"
	zanzar_errors "zanzar-backend/pkg/errors"
	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
)

// PaymentGateway is the slice of the Asaas API the payment flow needs.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, in payment.CustomerInput) (string, error)
	CreatePixCharge(ctx context.Context, in payment.ChargeInput) (payment.Charge, error)
	PixQRCode(ctx context.Context, paymentID string) (payment.QRCode, error)
}

type PaymentService struct {
	gateway     PaymentGateway
	orderRepo   repository.OrderRepository
	profileRepo repository.ProfileRepository
	orders      *OrderService
	log         *logger.Logger
}

func NewPaymentService(
	gateway PaymentGateway,
	orderRepo repository.OrderRepository,
	profileRepo repository.ProfileRepository,
	orders *OrderService,
	log *logger.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		orderRepo:   orderRepo,
		profileRepo: profileRepo,
		orders:      orders,
		log:         log,
	}
}

// PixCharge is the payable charge returned to the client: the copy-paste
// payload plus the base64 QR image.
type PixCharge struct {
	PaymentID    string `json:"paymentId"`
	Payload      string `json:"payload"`
	EncodedImage string `json:"encodedImage"`
	ExpiresAt    string `json:"expiresAt"`
}

// CreatePixCharge creates (or re-fetches) the PIX charge for a pending
// order. Calling it twice for the same order returns the existing charge
// instead of double-billing.
func (s *PaymentService) CreatePixCharge(ctx context.Context, profileID, orderID uuid.UUID) (PixCharge, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID, profileID)
	if err != nil {
		return PixCharge{}, err
	}
	if order.PaymentStatus != domain.PaymentPending {
		return PixCharge{}, zanzar_errors.ErrNotPending
	}

	if order.AsaasPaymentID.Valid {
		return s.chargeFor(ctx, order.AsaasPaymentID.String)
	}

	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return PixCharge{}, err
	}
	if !profile.CPF.Valid || profile.CPF.String == "" {
		return PixCharge{}, zanzar_errors.ErrInvalidInput
	}

	customerID, err := s.gateway.CreateCustomer(ctx, payment.CustomerInput{
		Name:        profile.Username,
		CPF:         profile.CPF.String,
		ExternalRef: profile.ID.String(),
	})
	if err != nil {
		return PixCharge{}, err
	}

	charge, err := s.gateway.CreatePixCharge(ctx, payment.ChargeInput{
		CustomerID:  customerID,
		ValueCents:  order.TotalPrice,
		Description: fmt.Sprintf("Pedido %s", order.ID),
		ExternalRef: order.ID.String(),
		DueDate:     time.Now(),
	})
	if err != nil {
		return PixCharge{}, err
	}

	if err := s.orderRepo.SetPaymentID(ctx, order.ID, charge.ID); err != nil {
		return PixCharge{}, err
	}

	return s.chargeFor(ctx, charge.ID)
}

// WebhookEvent is the payload Asaas posts back on payment changes.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"payment"`
}

// HandleWebhook settles the order referenced by a payment confirmation.
// Every other event type is acknowledged and ignored; settlement itself
// is idempotent, so Asaas retries are harmless.
func (s *PaymentService) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	if event.Payment.ID == "" {
		return zanzar_errors.ErrInvalidInput
	}
	if event.Event != "PAYMENT_RECEIVED" && event.Payment.Status != "RECEIVED" {
		s.log.Infof("ignoring webhook event %s for payment %s", event.Event, event.Payment.ID)
		return nil
	}

	_, err := s.orders.MarkAsPaid(ctx, event.Payment.ID)
	return err
}

func (s *PaymentService) chargeFor(ctx context.Context, paymentID string) (PixCharge, error) {
	qr, err := s.gateway.PixQRCode(ctx, paymentID)
	if err != nil {
		return PixCharge{}, err
	}
	return PixCharge{
		PaymentID:    paymentID,
		Payload:      qr.Payload,
		EncodedImage: qr.EncodedImage,
		ExpiresAt:    qr.ExpirationDate,
	}, nil
}
