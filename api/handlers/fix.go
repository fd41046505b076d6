package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/receiptops/receiptstack/dto"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/services/fixflow"
)

// transparentGIF is a 1x1 transparent pixel, served on every tracking hit.
var transparentGIF, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7",
)

// FixHandler serves the public tokenized endpoints. No API key: the token is
// the credential.
type FixHandler struct {
	log     logger.Logger
	fixFlow interfaces.FixFlowService
}

func NewFixHandler(log logger.Logger, fixFlow interfaces.FixFlowService) *FixHandler {
	return &FixHandler{log: log, fixFlow: fixFlow}
}

func (h *FixHandler) Get(c *gin.Context) {
	view, err := h.fixFlow.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.log.Errorf("failed to resolve fix token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch receipt"})
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": view})
}

func (h *FixHandler) Submit(c *gin.Context) {
	var submission dto.FixSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err := h.fixFlow.SubmitFix(c.Request.Context(), c.Param("token"), submission)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case err == fixflow.ErrReceiptNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid token"})
	case err == fixflow.ErrInvalidSubmission:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
	default:
		h.log.Errorf("failed to submit fix: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update receipt"})
	}
}

// TrackOpen always answers with the pixel, whatever happens inside.
func (h *FixHandler) TrackOpen(c *gin.Context) {
	h.fixFlow.TrackOpen(c.Request.Context(), c.Param("token"))

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/gif", transparentGIF)
}
