package httpdto

type AddToCartRequest struct {
	ProductID            string `json:"productId" binding:"required"`
	ProductVariantID     string `json:"productVariantId" binding:"required"`
	ProductVariantSizeID string `json:"productVariantSizeId" binding:"required"`
	Quantity             int    `json:"quantity" binding:"required"`
}

type UpdateCartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}
