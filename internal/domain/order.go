package domain

// OrderLine is the order payload representation of a cart line.
type OrderLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Color     string  `json:"color"`
	Size      string  `json:"size"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is the payload sent to the order placement API.
type Order struct {
	UserID        *string         `json:"userId"`
	Items         []OrderLine     `json:"items"`
	Shipping      ShippingAddress `json:"shipping"`
	PaymentMethod string          `json:"paymentMethod"`
	CouponCode    string          `json:"couponCode,omitempty"`
	Subtotal      float64         `json:"subtotal"`
	Discount      float64         `json:"discount"`
	Total         float64         `json:"total"`
}

// PlacedOrder is the backend acknowledgement of an order.
type PlacedOrder struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}
