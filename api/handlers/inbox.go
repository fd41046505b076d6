package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/repository"
)

type InboxHandler struct {
	log       logger.Logger
	repos     *repository.Repositories
	processor interfaces.EmailProcessor
	fileStore interfaces.FileStore
}

func NewInboxHandler(log logger.Logger, repos *repository.Repositories, processor interfaces.EmailProcessor, fileStore interfaces.FileStore) *InboxHandler {
	return &InboxHandler{
		log:       log,
		repos:     repos,
		processor: processor,
		fileStore: fileStore,
	}
}

type inboxEntry struct {
	*models.InboundEmail
	Receipts []*models.Receipt `json:"receipts"`
}

func (h *InboxHandler) List(c *gin.Context) {
	limit, offset := pagination(c)

	emails, total, err := h.repos.InboundEmailRepository.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Errorf("failed to list inbound emails: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inbound emails"})
		return
	}

	entries := make([]inboxEntry, 0, len(emails))
	for _, email := range emails {
		receipts, err := h.repos.ReceiptRepository.ListByInboundEmail(c.Request.Context(), email.ID)
		if err != nil {
			h.log.Errorf("failed to list receipts for email %s: %v", email.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inbound emails"})
			return
		}
		entries = append(entries, inboxEntry{InboundEmail: email, Receipts: receipts})
	}

	c.JSON(http.StatusOK, gin.H{"emails": entries, "total": total})
}

func (h *InboxHandler) Get(c *gin.Context) {
	email, err := h.repos.InboundEmailRepository.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("failed to get inbound email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inbound email"})
		return
	}
	if email == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	receipts, err := h.repos.ReceiptRepository.ListByInboundEmail(c.Request.Context(), email.ID)
	if err != nil {
		h.log.Errorf("failed to list receipts for email %s: %v", email.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inbound email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email, "receipts": receipts})
}

// Delete removes the email, its receipts and their stored files.
func (h *InboxHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	email, err := h.repos.InboundEmailRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		h.log.Errorf("failed to get inbound email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete inbound email"})
		return
	}
	if email == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	filenames, err := h.repos.ReceiptRepository.DeleteByInboundEmail(c.Request.Context(), id)
	if err != nil {
		h.log.Errorf("failed to delete receipts for email %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete inbound email"})
		return
	}
	for _, filename := range filenames {
		if err := h.fileStore.Delete(filename); err != nil {
			h.log.Warnf("failed to delete stored file %s: %v", filename, err)
		}
	}

	if err := h.repos.InboundEmailRepository.Delete(c.Request.Context(), id); err != nil {
		h.log.Errorf("failed to delete inbound email %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete inbound email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *InboxHandler) Reprocess(c *gin.Context) {
	err := h.processor.ReprocessInboundEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorf("failed to reprocess inbound email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// detachedContext returns a fresh context for work that outlives the request,
// linked to the request trace with a follows-from span. The request's own span
// is finished when the handler returns, so background work gets its own. The
// caller must finish the returned span when the work completes.
func detachedContext(c *gin.Context, operationName string) (context.Context, opentracing.Span) {
	var opts []opentracing.StartSpanOption
	if parent := opentracing.SpanFromContext(c.Request.Context()); parent != nil {
		opts = append(opts, opentracing.FollowsFrom(parent.Context()))
	}
	span := opentracing.GlobalTracer().StartSpan(operationName, opts...)
	return opentracing.ContextWithSpan(context.Background(), span), span
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 100
	offset = 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
