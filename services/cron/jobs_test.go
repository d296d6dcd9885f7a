package cron

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sentinelai/counsel-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ShortlistEntry{}, &model.CronJobLog{}))
	return db
}

func TestPurgeRemovedShortlistEntries(t *testing.T) {
	db := newTestDB(t)
	manager := NewCronManager(db)

	old := model.ShortlistEntry{UserID: "u1", UniversityName: "Old U", Country: "Canada", Category: "target"}
	fresh := model.ShortlistEntry{UserID: "u1", UniversityName: "Fresh U", Country: "Canada", Category: "safe"}
	kept := model.ShortlistEntry{UserID: "u1", UniversityName: "Kept U", Country: "Canada", Category: "dream"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)
	require.NoError(t, db.Create(&kept).Error)

	// Soft delete two entries and age one past the retention window.
	require.NoError(t, db.Delete(&old).Error)
	require.NoError(t, db.Delete(&fresh).Error)
	aged := time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, db.Unscoped().Model(&model.ShortlistEntry{}).
		Where("id = ?", old.ID).
		Update("deleted_at", aged).Error)

	manager.logJobStart("purge_removed_shortlist_entries")
	manager.PurgeRemovedShortlistEntries()

	var total int64
	require.NoError(t, db.Unscoped().Model(&model.ShortlistEntry{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)

	var log model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", "purge_removed_shortlist_entries").First(&log).Error)
	assert.Equal(t, "completed", log.Status)
	assert.Contains(t, log.Message, "Purged 1")
}

func TestPruneCronJobLogs(t *testing.T) {
	db := newTestDB(t)
	manager := NewCronManager(db)

	stale := model.CronJobLog{JobName: "old_job", Status: "completed", StartedAt: time.Now().Add(-120 * 24 * time.Hour)}
	recent := model.CronJobLog{JobName: "recent_job", Status: "failed", StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&recent).Error)

	manager.logJobStart("prune_cron_job_logs")
	manager.PruneCronJobLogs()

	var names []string
	require.NoError(t, db.Model(&model.CronJobLog{}).Pluck("job_name", &names).Error)
	assert.NotContains(t, names, "old_job")
	assert.Contains(t, names, "recent_job")
}
