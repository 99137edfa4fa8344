package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lexhire/lexhire/pkg/alerts"
	"github.com/lexhire/lexhire/pkg/models"
	"github.com/lexhire/lexhire/pkg/taxonomy"
)

// CronManager manages scheduled jobs
type CronManager struct {
	cron       *cron.Cron
	dispatcher *alerts.Dispatcher
	taxonomy   *taxonomy.Service
	logger     *log.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(dispatcher *alerts.Dispatcher, taxonomyService *taxonomy.Service, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:       cron.New(),
		dispatcher: dispatcher,
		taxonomy:   taxonomyService,
		logger:     logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.logger.Println("Setting up cron jobs...")

	// Daily at 8 AM: dispatch daily digests
	_, err := cm.cron.AddFunc("0 8 * * *", func() {
		cm.runDispatch(models.FrequencyDaily)
	})
	if err != nil {
		return err
	}

	// Monday at 8 AM: dispatch weekly digests
	_, err = cm.cron.AddFunc("0 8 * * 1", func() {
		cm.runDispatch(models.FrequencyWeekly)
	})
	if err != nil {
		return err
	}

	// Nightly at 3 AM: refresh per-location listing counts
	_, err = cm.cron.AddFunc("0 3 * * *", func() {
		cm.logger.Println("🕐 Recalculating location job counts...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := cm.taxonomy.RecalculateJobCounts(ctx); err != nil {
			cm.logger.Printf("❌ Failed to recalculate job counts: %v", err)
			return
		}
		cm.logger.Println("✅ Location job counts refreshed")
	})
	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Println("  - Daily at 8 AM: dispatch daily digests")
	cm.logger.Println("  - Monday at 8 AM: dispatch weekly digests")
	cm.logger.Println("  - Daily at 3 AM: refresh location job counts")

	return nil
}

func (cm *CronManager) runDispatch(frequency string) {
	cm.logger.Printf("🕐 Running %s digest dispatch...", frequency)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	stats, err := cm.dispatcher.Run(ctx, frequency)
	if err != nil {
		if err == alerts.ErrRunInProgress {
			cm.logger.Printf("⚠️ %s digest run skipped: another run holds the lease", frequency)
			return
		}
		cm.logger.Printf("❌ %s digest run failed: %v", frequency, err)
		return
	}

	cm.logger.Printf("✅ %s digest run done: scanned=%d enqueued=%d skipped=%d failed=%d",
		frequency, stats.Scanned, stats.Enqueued, stats.Skipped, stats.Failed)
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	cm.cron.Stop()
}
