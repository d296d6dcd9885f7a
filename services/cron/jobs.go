package cron

import (
	"fmt"
	"time"

	"github.com/sentinelai/counsel-api/model"
)

const (
	removedEntryRetention = 30 * 24 * time.Hour
	cronLogRetention      = 90 * 24 * time.Hour
)

// PurgeRemovedShortlistEntries permanently deletes shortlist entries that
// were soft-deleted more than the retention window ago.
// Runs daily at 2 AM.
func (m *CronManager) PurgeRemovedShortlistEntries() {
	jobName := "purge_removed_shortlist_entries"

	cutoff := time.Now().Add(-removedEntryRetention)
	result := m.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&model.ShortlistEntry{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge shortlist entries: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d removed shortlist entries", result.RowsAffected))
}

// PruneCronJobLogs deletes finished cron job logs past the retention window.
// Runs daily at 3 AM.
func (m *CronManager) PruneCronJobLogs() {
	jobName := "prune_cron_job_logs"

	cutoff := time.Now().Add(-cronLogRetention)
	result := m.db.Unscoped().
		Where("started_at < ? AND status IN ?", cutoff, []string{"completed", "failed"}).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to prune cron job logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Pruned %d cron job logs", result.RowsAffected))
}
