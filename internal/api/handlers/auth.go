package handlers

import (
	"net/http"

	"storefront/internal/api/middleware"
	"storefront/internal/auth"
	"storefront/internal/logger"
	"storefront/internal/session"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	provider auth.Provider
	tokens   session.TokenStore
	registry *session.Registry
	logger   *logger.Logger
}

func NewAuthHandler(provider auth.Provider, tokens session.TokenStore, registry *session.Registry, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		tokens:   tokens,
		registry: registry,
		logger:   logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.provider.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.startSession(c, http.StatusCreated, sess)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.startSession(c, http.StatusOK, sess)
}

// Logout revokes the token and wipes the shopper's cart, wishlist and checkout.
func (h *AuthHandler) Logout(c *gin.Context) {
	st, _ := middleware.CurrentState(c)

	if err := h.tokens.Delete(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.registry.Close(st.Session.UserID)

	h.logger.Info("User %s signed out", st.Session.UserID)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) startSession(c *gin.Context, status int, sess store.Session) {
	token, err := h.tokens.Create(c.Request.Context(), sess)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.registry.Open(sess)

	h.logger.Info("User %s signed in", sess.UserID)
	c.JSON(status, gin.H{
		"data": gin.H{
			"token":   token,
			"session": sess,
		},
	})
}
