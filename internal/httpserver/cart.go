package httpserver

import (
	"net/http"
	"strings"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/service/cart"
	"github.com/gin-gonic/gin"
)

type productRequest struct {
	ID            string   `json:"id" binding:"required"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Price         float64  `json:"price" binding:"gte=0"`
	OriginalPrice *float64 `json:"originalPrice" binding:"omitempty,gte=0"`
	Images        []string `json:"images"`
	Colors        []string `json:"colors"`
	Sizes         []string `json:"sizes"`
	Stock         int      `json:"stock" binding:"gte=0"`
}

func (p productRequest) toDomain() domain.Product {
	return domain.Product{
		ID:            strings.TrimSpace(p.ID),
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Images:        p.Images,
		Colors:        p.Colors,
		Sizes:         p.Sizes,
		Stock:         p.Stock,
	}
}

type addItemRequest struct {
	Product  productRequest `json:"product"`
	Quantity int            `json:"quantity"`
	Color    string         `json:"color"`
	Size     string         `json:"size"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type optionsRequest struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

type cartResponse struct {
	Items   []domain.CartItem `json:"items"`
	Summary cart.Summary      `json:"summary"`
	Status  cart.Status       `json:"status"`
}

func newCartResponse(c *cart.Container) cartResponse {
	return cartResponse{
		Items:   c.Items(),
		Summary: c.Summary(),
		Status:  c.Status(),
	}
}

func getCartHandler(c *gin.Context) {
	c.JSON(http.StatusOK, newCartResponse(cartFrom(c)))
}

func addItemHandler(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item: " + err.Error()})
		return
	}
	container := cartFrom(c)
	container.AddToCart(c.Request.Context(), req.Product.toDomain(), req.Quantity, req.Color, req.Size)
	c.JSON(http.StatusOK, newCartResponse(container))
}

func updateQuantityHandler(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity required"})
		return
	}
	container := cartFrom(c)
	container.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	c.JSON(http.StatusOK, newCartResponse(container))
}

func updateOptionsHandler(c *gin.Context) {
	var req optionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid options"})
		return
	}
	container := cartFrom(c)
	container.UpdateItemOptions(c.Request.Context(), c.Param("id"), req.Color, req.Size)
	c.JSON(http.StatusOK, newCartResponse(container))
}

func removeItemHandler(c *gin.Context) {
	container := cartFrom(c)
	container.RemoveFromCart(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, newCartResponse(container))
}

func clearCartHandler(c *gin.Context) {
	container := cartFrom(c)
	container.ClearCart(c.Request.Context())
	c.JSON(http.StatusOK, newCartResponse(container))
}

func lookupHandler(c *gin.Context) {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
		return
	}
	color, size := c.Query("color"), c.Query("size")
	container := cartFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"cartItemId": domain.CartItemID(productID, color, size),
		"inCart":     container.IsInCart(productID, color, size),
		"quantity":   container.CartItemQuantity(productID, color, size),
	})
}

func countHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": cartFrom(c).TotalItems()})
}

func syncHandler(c *gin.Context) {
	container := cartFrom(c)
	container.ForceSync(c.Request.Context())
	c.JSON(http.StatusOK, newCartResponse(container))
}

func historyHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": cartFrom(c).History(c.Request.Context())})
}
