package domain

// Product is the catalogue record a cart line was created from. A full copy
// travels with every line so quantity bounds can be checked without a lookup.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Images        []string `json:"images,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	Sizes         []string `json:"sizes,omitempty"`
	Stock         int      `json:"stock,omitempty"`
}

// Image returns the first product image or an empty string.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
