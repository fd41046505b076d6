package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/logger"
)

// SendersHandler manages the sender allow-list. The list is fail-closed:
// while it is empty no inbound email is accepted at all.
type SendersHandler struct {
	log        logger.Logger
	senderRepo interfaces.AllowedSenderRepository
}

func NewSendersHandler(log logger.Logger, senderRepo interfaces.AllowedSenderRepository) *SendersHandler {
	return &SendersHandler{log: log, senderRepo: senderRepo}
}

func (h *SendersHandler) List(c *gin.Context) {
	senders, err := h.senderRepo.List(c.Request.Context())
	if err != nil {
		h.log.Errorf("failed to list allowed senders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch senders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"senders": senders})
}

type addSenderRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *SendersHandler) Add(c *gin.Context) {
	var req addSenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email address required"})
		return
	}

	id, err := h.senderRepo.Add(c.Request.Context(), email, strings.TrimSpace(req.Name))
	if err != nil {
		h.log.Errorf("failed to add allowed sender: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add sender"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *SendersHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sender id required"})
		return
	}

	if err := h.senderRepo.Remove(c.Request.Context(), id); err != nil {
		h.log.Errorf("failed to remove allowed sender: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove sender"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
