package cron

import (
	"context"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/interfaces"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/tracing"
)

// CronManager owns the background sweeps. Currently there is one job: the
// periodic fix-notification sweep for incomplete receipts.
type CronManager struct {
	cfg     *config.CronConfig
	log     logger.Logger
	cron    *cronv3.Cron
	jobIDs  map[string]cronv3.EntryID
	fixFlow interfaces.FixFlowService
}

func NewCronManager(cfg *config.CronConfig, log logger.Logger, fixFlow interfaces.FixFlowService) *CronManager {
	return &CronManager{
		cfg:     cfg,
		log:     log,
		jobIDs:  make(map[string]cronv3.EntryID),
		fixFlow: fixFlow,
	}
}

func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")
	c := cronv3.New(
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop waits for running jobs to finish.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	if cm.cfg.FixNotificationSchedule != "" {
		id, err := c.AddFunc(cm.cfg.FixNotificationSchedule, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log.Errorf)
			cm.runFixNotificationSweep()
		})
		if err != nil {
			cm.log.Fatalf("Could not add fix notification cron job: %v", err)
		}
		cm.jobIDs["fix_notifications"] = id
		cm.log.Infof("Registered fix notification job with schedule: %s", cm.cfg.FixNotificationSchedule)
	}
}

func (cm *CronManager) runFixNotificationSweep() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runFixNotificationSweep")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	sent, err := cm.fixFlow.SendFixNotifications(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Fix notification sweep failed: %v", err)
		return
	}
	if sent > 0 {
		cm.log.Infof("Fix notification sweep sent %d emails", sent)
	}
}
