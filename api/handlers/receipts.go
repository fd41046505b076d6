package handlers

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/repository"
)

type ReceiptsHandler struct {
	log       logger.Logger
	repos     *repository.Repositories
	processor interfaces.EmailProcessor
	fixFlow   interfaces.FixFlowService
	fileStore interfaces.FileStore
}

func NewReceiptsHandler(
	log logger.Logger,
	repos *repository.Repositories,
	processor interfaces.EmailProcessor,
	fixFlow interfaces.FixFlowService,
	fileStore interfaces.FileStore,
) *ReceiptsHandler {
	return &ReceiptsHandler{
		log:       log,
		repos:     repos,
		processor: processor,
		fixFlow:   fixFlow,
		fileStore: fileStore,
	}
}

func (h *ReceiptsHandler) List(c *gin.Context) {
	limit, offset := pagination(c)

	receipts, total, err := h.repos.ReceiptRepository.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Errorf("failed to list receipts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch receipts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "total": total})
}

// Upload is the direct intake path: a receipt file posted by hand instead of
// arriving by email. Analysis runs in the background.
func (h *ReceiptsHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	storedFilename := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	if err := h.fileStore.Save(storedFilename, content); err != nil {
		h.log.Errorf("failed to store uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload receipt"})
		return
	}

	receipt := &models.Receipt{
		Filename:         storedFilename,
		OriginalFilename: fileHeader.Filename,
		UploaderName:     name,
		UploaderEmail:    c.PostForm("email"),
	}
	receiptID, err := h.repos.ReceiptRepository.Create(c.Request.Context(), receipt)
	if err != nil {
		h.log.Errorf("failed to create receipt record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload receipt"})
		return
	}

	ctx, span := detachedContext(c, "ReceiptsHandler.Upload.process")
	go func() {
		defer span.Finish()
		if err := h.processor.ReprocessReceipts(ctx, []string{receiptID}); err != nil {
			h.log.Errorf("background processing failed for receipt %s: %v", receiptID, err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Receipt uploaded and being processed",
		"receiptId": receiptID,
	})
}

type reprocessRequest struct {
	ID  string `json:"id"`
	All bool   `json:"all"`
}

func (h *ReceiptsHandler) Reprocess(c *gin.Context) {
	var req reprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.All {
		ids, err := h.stuckReceiptIDs(c)
		if err != nil {
			h.log.Errorf("failed to collect receipts for reprocess: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reprocess"})
			return
		}

		ctx, span := detachedContext(c, "ReceiptsHandler.Reprocess.all")
		go func() {
			defer span.Finish()
			if err := h.processor.ReprocessReceipts(ctx, ids); err != nil {
				h.log.Errorf("background reprocess failed: %v", err)
			}
		}()

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Reprocessing receipts",
			"count":   len(ids),
		})
		return
	}

	if req.ID != "" {
		receipt, err := h.repos.ReceiptRepository.GetByID(c.Request.Context(), req.ID)
		if err != nil {
			h.log.Errorf("failed to get receipt: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reprocess"})
			return
		}
		if receipt == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Receipt not found"})
			return
		}

		ctx, span := detachedContext(c, "ReceiptsHandler.Reprocess.single")
		go func() {
			defer span.Finish()
			if err := h.processor.ReprocessReceipts(ctx, []string{req.ID}); err != nil {
				h.log.Errorf("background reprocess failed for receipt %s: %v", req.ID, err)
			}
		}()

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reprocessing receipt"})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "Provide id or all=true"})
}

// Notify triggers the fix-notification sweep on demand, same job the cron
// schedule runs.
func (h *ReceiptsHandler) Notify(c *gin.Context) {
	sent, err := h.fixFlow.SendFixNotifications(c.Request.Context())
	if err != nil {
		h.log.Errorf("failed to send fix notifications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": sent})
}

// stuckReceiptIDs selects receipts worth re-analyzing: anything not finished,
// plus processed ones where analysis came back empty.
func (h *ReceiptsHandler) stuckReceiptIDs(c *gin.Context) ([]string, error) {
	receipts, _, err := h.repos.ReceiptRepository.List(c.Request.Context(), 1000, 0)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, r := range receipts {
		switch {
		case r.Status == enum.ReceiptStatusPending,
			r.Status == enum.ReceiptStatusProcessing,
			r.Status == enum.ReceiptStatusError:
			ids = append(ids, r.ID)
		case r.Status == enum.ReceiptStatusProcessed && r.Vendor == "" && r.Amount == 0:
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
