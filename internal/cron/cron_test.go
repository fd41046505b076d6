package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := &config.CronConfig{FixNotificationSchedule: "@every 1h"}
	log := getLogger()

	// Act
	cm := NewCronManager(cfg, log, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartRegistersJob(t *testing.T) {
	cfg := &config.CronConfig{FixNotificationSchedule: "@every 1h"}
	cm := NewCronManager(cfg, getLogger(), nil)

	cm.Start()
	defer cm.Stop()

	assert.NotNil(t, cm.cron)
	assert.Contains(t, cm.jobIDs, "fix_notifications")
}

func TestCronManager_EmptyScheduleDisablesJob(t *testing.T) {
	cfg := &config.CronConfig{FixNotificationSchedule: ""}
	cm := NewCronManager(cfg, getLogger(), nil)

	cm.Start()
	defer cm.Stop()

	assert.Empty(t, cm.jobIDs)
}

func TestCronManager_Stop(t *testing.T) {
	cfg := &config.CronConfig{FixNotificationSchedule: "@every 1h"}
	cm := NewCronManager(cfg, getLogger(), nil)

	cm.Start()

	// Stop blocks until running jobs finish and must not panic.
	cm.Stop()
}
