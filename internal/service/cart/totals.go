package cart

import (
	"empress-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Summary is the cart page and checkout view of the totals.
type Summary struct {
	Lines              int     `json:"lines"`
	TotalItems         int     `json:"totalItems"`
	TotalPrice         float64 `json:"totalPrice"`
	TotalOriginalPrice float64 `json:"totalOriginalPrice"`
	TotalSavings       float64 `json:"totalSavings"`
}

func totalItems(items []domain.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func totalPrice(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(lineTotal(item.Price, item.Quantity))
	}
	return sum
}

// totalOriginalPrice falls back to the sale price for lines without an original price.
func totalOriginalPrice(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		price := item.Price
		if item.OriginalPrice != nil {
			price = *item.OriginalPrice
		}
		sum = sum.Add(lineTotal(price, item.Quantity))
	}
	return sum
}

func lineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

func summarize(items []domain.CartItem) Summary {
	price := totalPrice(items)
	original := totalOriginalPrice(items)
	return Summary{
		Lines:              len(items),
		TotalItems:         totalItems(items),
		TotalPrice:         price.Round(2).InexactFloat64(),
		TotalOriginalPrice: original.Round(2).InexactFloat64(),
		TotalSavings:       original.Sub(price).Round(2).InexactFloat64(),
	}
}
