package handlers

import (
	"net/http"

	"storefront/internal/api/middleware"
	"storefront/internal/catalog"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

type WishlistHandler struct {
	index  *catalog.Index
	logger *logger.Logger
}

func NewWishlistHandler(index *catalog.Index, logger *logger.Logger) *WishlistHandler {
	return &WishlistHandler{
		index:  index,
		logger: logger,
	}
}

func (h *WishlistHandler) List(c *gin.Context) {
	st, _ := middleware.CurrentState(c)

	ids := st.Wishlist.IDs()
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, err := h.index.ByID(id); err == nil {
			products = append(products, p)
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (h *WishlistHandler) Toggle(c *gin.Context) {
	product, err := h.index.ByID(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	saved, err := shopperFor(c).ToggleWishlist(product.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"product_id": product.ID, "saved": saved}})
}
