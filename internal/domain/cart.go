package domain

import (
	"strings"
	"time"
)

// DefaultOption is substituted for an unset color or size.
const DefaultOption = "default"

// CartItem is one line of a cart. CartItemID is unique within a cart.
type CartItem struct {
	CartItemID      string    `json:"cartItemId"`
	ProductID       string    `json:"productId"`
	Name            string    `json:"name,omitempty"`
	Image           string    `json:"image,omitempty"`
	Price           float64   `json:"price"`
	OriginalPrice   *float64  `json:"originalPrice,omitempty"`
	Quantity        int       `json:"quantity"`
	SelectedColor   string    `json:"selectedColor"`
	SelectedSize    string    `json:"selectedSize"`
	AddedAt         time.Time `json:"addedAt"`
	UserID          *string   `json:"userId"`
	OriginalProduct Product   `json:"originalProduct"`
}

// CartItemID builds the composite key productId_color_size.
func CartItemID(productID, color, size string) string {
	return productID + "_" + OptionOrDefault(color) + "_" + OptionOrDefault(size)
}

// OptionOrDefault normalises an unset variant option.
func OptionOrDefault(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultOption
	}
	return v
}

// CartSnapshot is one entry of the remote cart history.
type CartSnapshot struct {
	ID        string     `json:"id,omitempty"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}
