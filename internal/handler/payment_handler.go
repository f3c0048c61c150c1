package handler

import (
	"net/http"

	"zanzar-backend/internal/services"
	"zanzar-backend/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) CreatePixCharge(c *gin.Context) {
	orderID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid order id", "INVALID_REQUEST"))
		return
	}
	profileID, ok := services.ProfileIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	charge, err := h.service.CreatePixCharge(c.Request.Context(), profileID, orderID)
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(charge))
}

// Webhook receives the Asaas callback. It always answers 200 for events
// it chooses to ignore; a 5xx makes Asaas retry, which is only wanted on
// real processing failures.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var event services.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid payload", "INVALID_REQUEST"))
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), event); err != nil {
		status, code := statusFor(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
