package handlers

import (
	"net/http"

	"storefront/internal/api/middleware"
	"storefront/internal/catalog"
	"storefront/internal/logger"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

const maxQuantityPerAdd = 10

type CartHandler struct {
	index  *catalog.Index
	logger *logger.Logger
}

func NewCartHandler(index *catalog.Index, logger *logger.Logger) *CartHandler {
	return &CartHandler{
		index:  index,
		logger: logger,
	}
}

// shopperFor returns the signed-in shopper, or an anonymous one whose gated
// operations all fail with store.ErrAuthRequired.
func shopperFor(c *gin.Context) *store.Shopper {
	if st, ok := middleware.CurrentState(c); ok {
		return st.Shopper
	}
	return store.NewShopper(nil, nil, nil)
}

func (h *CartHandler) Get(c *gin.Context) {
	st, _ := middleware.CurrentState(c)
	c.JSON(http.StatusOK, gin.H{"data": cartView(st.Cart)})
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > maxQuantityPerAdd {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be between 1 and 10"})
		return
	}

	product, err := h.index.ByID(req.ProductID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	shopper := shopperFor(c)
	var line store.CartLine
	for i := 0; i < req.Quantity; i++ {
		if line, err = shopper.AddToCart(product); err != nil {
			respondError(c, h.logger, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": line})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	removed := shopperFor(c).RemoveFromCart(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": removed}})
}

func cartView(cart *store.Cart) gin.H {
	lines, total := cart.Snapshot()
	return gin.H{
		"lines": lines,
		"total": total,
		"count": cart.Count(),
		"open":  cart.IsOpen(),
	}
}
