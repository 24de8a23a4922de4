package handlers

import (
	"net/http"

	"storefront/internal/api/middleware"
	"storefront/internal/catalog"
	"storefront/internal/logger"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	index  *catalog.Index
	logger *logger.Logger
}

func NewCatalogHandler(index *catalog.Index, logger *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		index:  index,
		logger: logger,
	}
}

// List runs the storefront filter pipeline. The wishlist view needs a signed-in shopper.
func (h *CatalogHandler) List(c *gin.Context) {
	view, err := catalog.LookupView(c.Query("view"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	criteria := catalog.Criteria{
		View:       view,
		Category:   c.DefaultQuery("category", catalog.AllCategories),
		SearchTerm: c.Query("q"),
	}

	var wishlist catalog.Membership
	if st, ok := middleware.CurrentState(c); ok {
		wishlist = st.Wishlist
	} else if view.RestrictsToWishlist {
		respondError(c, h.logger, store.ErrAuthRequired)
		return
	}

	products := catalog.Filter(h.index.All(), criteria, wishlist)

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"filter": gin.H{
			"view":     view.Name,
			"category": criteria.Category,
			"q":        criteria.SearchTerm,
			"total":    len(products),
		},
	})
}

func (h *CatalogHandler) Get(c *gin.Context) {
	product, err := h.index.ByID(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.index.Categories()})
}
