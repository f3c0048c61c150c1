package httpdto

type BuyProductsRequest struct {
	PaymentMethod string   `json:"paymentMethod" binding:"required"`
	CartItemIDs   []string `json:"cartItemIds" binding:"required"`
}
