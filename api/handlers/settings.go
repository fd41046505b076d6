package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/models"
)

// allowedSettingKeys restricts admin updates to the IMAP polling contract.
var allowedSettingKeys = map[string]bool{
	models.SettingIMAPHost:         true,
	models.SettingIMAPPort:         true,
	models.SettingIMAPUsername:     true,
	models.SettingIMAPPassword:     true,
	models.SettingIMAPMailbox:      true,
	models.SettingIMAPPollInterval: true,
}

type SettingsHandler struct {
	log          logger.Logger
	settingsRepo interfaces.SettingsRepository
	poller       interfaces.IMAPPoller
}

func NewSettingsHandler(log logger.Logger, settingsRepo interfaces.SettingsRepository, poller interfaces.IMAPPoller) *SettingsHandler {
	return &SettingsHandler{log: log, settingsRepo: settingsRepo, poller: poller}
}

// Get returns all settings with the IMAP password masked.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsRepo.GetAll(c.Request.Context())
	if err != nil {
		h.log.Errorf("failed to read settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}

	if _, ok := settings[models.SettingIMAPPassword]; ok {
		settings[models.SettingIMAPPassword] = "********"
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// Update accepts a key/value map, rejects keys outside the IMAP contract, and
// kicks off an immediate poll so new credentials are exercised right away.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No settings provided"})
		return
	}
	for key := range req {
		if !allowedSettingKeys[key] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown setting: " + key})
			return
		}
	}

	for key, value := range req {
		if err := h.settingsRepo.Set(c.Request.Context(), key, value); err != nil {
			h.log.Errorf("failed to save setting %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
			return
		}
	}

	ctx, span := detachedContext(c, "SettingsHandler.Update.poll")
	go func() {
		defer span.Finish()
		h.poller.PollNow(ctx)
	}()

	c.JSON(http.StatusOK, gin.H{"success": true})
}
