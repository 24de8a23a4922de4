package handlers

import (
	"net/http"
	"time"

	"storefront/internal/api/middleware"
	"storefront/internal/checkout"
	"storefront/internal/logger"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	gateway  checkout.Gateway
	recorder checkout.OrderRecorder
	timeout  time.Duration
	logger   *logger.Logger
}

func NewCheckoutHandler(gateway checkout.Gateway, recorder checkout.OrderRecorder, timeout time.Duration, logger *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		gateway:  gateway,
		recorder: recorder,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start snapshots the cart into a new checkout, replacing any open one.
func (h *CheckoutHandler) Start(c *gin.Context) {
	st, _ := middleware.CurrentState(c)

	m, err := checkout.New(st.Session.UserID, st.Cart, h.gateway,
		checkout.WithTimeout(h.timeout),
		checkout.WithRecorder(h.recorder),
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	st.BeginCheckout(m)

	h.logger.Debug("Checkout %s started for user %s", m.ID(), st.Session.UserID)
	c.JSON(http.StatusCreated, gin.H{"data": m.Status()})
}

func (h *CheckoutHandler) Get(c *gin.Context) {
	m, ok := h.active(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m.Status()})
}

type selectMethodRequest struct {
	Method string `json:"method" binding:"required"`
	checkout.PaymentDetails
}

func (h *CheckoutHandler) SelectMethod(c *gin.Context) {
	m, ok := h.active(c)
	if !ok {
		return
	}

	var req selectMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	method, err := checkout.ParseMethod(req.Method)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := m.SelectMethod(method, req.PaymentDetails); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": m.Status()})
}

// Submit starts settlement. By default it returns 202 while PROCESSING and the
// client polls GET /checkout; with ?wait=true it blocks until settled.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	m, ok := h.active(c)
	if !ok {
		return
	}

	if c.Query("wait") == "true" {
		status, err := m.Submit(c.Request.Context())
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": status})
		return
	}

	status, err := m.SubmitAsync(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"data": status})
}

func (h *CheckoutHandler) Retry(c *gin.Context) {
	m, ok := h.active(c)
	if !ok {
		return
	}
	if err := m.Retry(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m.Status()})
}

func (h *CheckoutHandler) Finish(c *gin.Context) {
	m, ok := h.active(c)
	if !ok {
		return
	}

	receipt, err := m.Finish(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Checkout %s completed as order %s", receipt.CheckoutID, receipt.OrderID)
	c.JSON(http.StatusOK, gin.H{"data": receipt})
}

// Cancel abandons the checkout. The cart is left as it was.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	st, _ := middleware.CurrentState(c)
	st.EndCheckout()
	c.Status(http.StatusNoContent)
}

func (h *CheckoutHandler) active(c *gin.Context) (*checkout.Machine, bool) {
	st, _ := middleware.CurrentState(c)
	m := activeCheckout(st)
	if m == nil {
		respondError(c, h.logger, ErrNoCheckout)
		return nil, false
	}
	return m, true
}

func activeCheckout(st *session.State) *checkout.Machine {
	if st == nil {
		return nil
	}
	return st.Checkout()
}
