package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/services"
	"github.com/Franc-dev/galaxy-chat/services/openrouter"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron     *cron.Cron
	db       *gorm.DB
	quota    *services.QuotaService
	selector *openrouter.ModelSelector
}

// NewCronManager creates a new cron manager. The selector may be nil when
// no OpenRouter key is configured; the refresh job is skipped then.
func NewCronManager(db *gorm.DB, selector *openrouter.ModelSelector) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:     c,
		db:       db,
		quota:    services.NewQuotaService(db),
		selector: selector,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Nightly: reset stale quota windows. The lazy per-request reset
	// remains authoritative; this keeps idle accounts clean.
	_, err := m.cron.AddFunc("0 0 0 * * *", func() {
		m.logJobStart("quota_sweep")
		m.SweepQuotas()
	})
	if err != nil {
		return err
	}

	// Every 5 minutes: refresh the OpenRouter model cache so chat
	// requests mostly hit Redis
	if m.selector != nil {
		_, err = m.cron.AddFunc("0 */5 * * * *", func() {
			m.logJobStart("refresh_model_cache")
			m.RefreshModelCache()
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, details string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, details)
}

// logJobError logs a cron job failure
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Job failed: %s - %v", jobName, err)
}
