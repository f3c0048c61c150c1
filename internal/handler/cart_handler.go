package handler

import (
	"net/http"

	"zanzar-backend/internal/services"
	"zanzar-backend/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	service *services.CartService
}

func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) Add(c *gin.Context) {
	var req httpdto.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	profileID, ok := services.ProfileIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	productID, err := parseUUID(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid product id", "INVALID_REQUEST"))
		return
	}
	variantID, err := parseUUID(req.ProductVariantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid variant id", "INVALID_REQUEST"))
		return
	}
	sizeID, err := parseUUID(req.ProductVariantSizeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid size id", "INVALID_REQUEST"))
		return
	}

	entry, err := h.service.AddToCart(c.Request.Context(), services.AddToCartInput{
		ProfileID:            profileID,
		ProductID:            productID,
		ProductVariantID:     variantID,
		ProductVariantSizeID: sizeID,
		Quantity:             req.Quantity,
	})
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(entry))
}

func (h *CartHandler) List(c *gin.Context) {
	profileID, ok := services.ProfileIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	items, err := h.service.ListCart(c.Request.Context(), profileID)
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"items": items}))
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	cartID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid cart id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.UpdateCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	profileID, ok := services.ProfileIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.service.UpdateQuantity(c.Request.Context(), cartID, profileID, req.Quantity); err != nil {
		status, code := statusFor(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *CartHandler) Remove(c *gin.Context) {
	cartID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid cart id", "INVALID_REQUEST"))
		return
	}
	profileID, ok := services.ProfileIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.service.RemoveFromCart(c.Request.Context(), cartID, profileID); err != nil {
		status, code := statusFor(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
