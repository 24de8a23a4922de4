package handlers

import (
	"net/http"
	"strings"

	"storefront/internal/advisor"
	"storefront/internal/catalog"
	"storefront/internal/logger"

	"github.com/gin-gonic/gin"
)

const maxAssistantMessage = 2000

type AssistantHandler struct {
	advisor advisor.Advisor
	index   *catalog.Index
	logger  *logger.Logger
}

func NewAssistantHandler(a advisor.Advisor, index *catalog.Index, logger *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		advisor: a,
		index:   index,
		logger:  logger,
	}
}

type assistantRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *AssistantHandler) Ask(c *gin.Context) {
	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" || len(msg) > maxAssistantMessage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must be between 1 and 2000 characters"})
		return
	}

	reply := h.advisor.Advice(c.Request.Context(), msg, h.index.All())
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reply": reply}})
}
