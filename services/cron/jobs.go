package cron

import (
	"context"
	"time"
)

// SweepQuotas resets message counters for users whose 24h window lapsed
func (m *CronManager) SweepQuotas() {
	if err := m.quota.SweepStaleWindows(); err != nil {
		m.logJobError("quota_sweep", err)
		return
	}
	m.logJobComplete("quota_sweep", "stale quota windows reset")
}

// RefreshModelCache re-fetches the OpenRouter catalog into Redis
func (m *CronManager) RefreshModelCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := m.selector.RefreshCache(ctx); err != nil {
		m.logJobError("refresh_model_cache", err)
		return
	}
	m.logJobComplete("refresh_model_cache", "model catalog cached")
}
