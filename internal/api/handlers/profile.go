package handlers

import (
	"net/http"

	"storefront/internal/api/middleware"
	"storefront/internal/logger"
	"storefront/internal/orders"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	orders *orders.Service
	logger *logger.Logger
}

func NewProfileHandler(orders *orders.Service, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		orders: orders,
		logger: logger,
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	st, _ := middleware.CurrentState(c)

	summary, err := h.orders.Profile(c.Request.Context(), st.Session.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"email":   st.Session.Email,
		"profile": summary,
	}})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	st, _ := middleware.CurrentState(c)

	var req orders.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	summary, err := h.orders.UpdateProfile(c.Request.Context(), st.Session.UserID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"email":   st.Session.Email,
		"profile": summary,
	}})
}

func (h *ProfileHandler) Orders(c *gin.Context) {
	st, _ := middleware.CurrentState(c)

	history, err := h.orders.History(c.Request.Context(), st.Session.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
