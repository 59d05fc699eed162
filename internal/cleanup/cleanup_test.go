package cleanup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"monitoring-portal/internal/cleanup"
	"monitoring-portal/internal/database"
	"monitoring-portal/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.InitSchema(db))
	return db
}

func seedSnapshot(t *testing.T, db *gorm.DB, name string, status models.SnapshotStatus, ageDays int) *models.ResultFrameworkSnapshot {
	t.Helper()
	snapshot := &models.ResultFrameworkSnapshot{
		Name:   name,
		Status: status,
		Data:   []byte(`{"sections":[],"metadata":{}}`),
	}
	require.NoError(t, db.Create(snapshot).Error)

	// Backdate the creation timestamp past the retention window.
	aged := time.Now().AddDate(0, 0, -ageDays)
	require.NoError(t, db.Model(snapshot).Update("snapshot_date", aged).Error)
	return snapshot
}

func snapshotCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ResultFrameworkSnapshot{}).Count(&n).Error)
	return n
}

func TestFindExpiredDrafts(t *testing.T) {
	db := newTestDB(t)
	svc := cleanup.NewService(db)

	seedSnapshot(t, db, "old draft", models.SnapshotStatusDraft, 120)
	seedSnapshot(t, db, "fresh draft", models.SnapshotStatusDraft, 10)
	seedSnapshot(t, db, "old finalized", models.SnapshotStatusFinalized, 120)

	expired, err := svc.FindExpiredDrafts(90)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "old draft", expired[0].Name)
}

func TestRun_DeletesAndLogs(t *testing.T) {
	db := newTestDB(t)
	svc := cleanup.NewService(db)

	old := seedSnapshot(t, db, "old draft", models.SnapshotStatusDraft, 120)
	seedSnapshot(t, db, "fresh draft", models.SnapshotStatusDraft, 10)
	seedSnapshot(t, db, "old finalized", models.SnapshotStatusFinalized, 120)

	cfg := cleanup.DefaultCleanupConfig()
	result, err := svc.Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TargetCount)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, []uint{old.ID}, result.DeletedSnapshots)
	assert.Equal(t, int64(2), snapshotCount(t, db))

	// The deletion left an audit log entry.
	logs, err := svc.GetRecentDeleteLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EntitySnapshot, logs[0].EntityType)
	assert.Equal(t, old.ID, logs[0].EntityID)
	assert.Equal(t, models.DeleteReasonExpired, logs[0].Reason)
}

func TestRun_DryRunLeavesRows(t *testing.T) {
	db := newTestDB(t)
	svc := cleanup.NewService(db)

	seedSnapshot(t, db, "old draft", models.SnapshotStatusDraft, 120)

	cfg := cleanup.DefaultCleanupConfig()
	cfg.DryRun = true
	result, err := svc.Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, result.DeletedCount)
	assert.True(t, result.DryRun)
	assert.Equal(t, int64(1), snapshotCount(t, db))

	logs, err := svc.GetRecentDeleteLogs(10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRun_SafetyLimit(t *testing.T) {
	db := newTestDB(t)
	svc := cleanup.NewService(db)

	seedSnapshot(t, db, "a", models.SnapshotStatusDraft, 120)
	seedSnapshot(t, db, "b", models.SnapshotStatusDraft, 120)

	cfg := cleanup.DefaultCleanupConfig()
	cfg.MaxDeletionCount = 1
	_, err := svc.Run(cfg)
	assert.ErrorContains(t, err, "safety check failed")
	assert.Equal(t, int64(2), snapshotCount(t, db))
}

func TestRun_PrunesOldReportFiles(t *testing.T) {
	db := newTestDB(t)
	svc := cleanup.NewService(db)

	dir := t.TempDir()
	oldFile := filepath.Join(dir, "results-framework-1-20250101.xlsx")
	freshFile := filepath.Join(dir, "results-framework-2-today.xlsx")
	ignored := filepath.Join(dir, "notes.txt")
	for _, path := range []string{oldFile, freshFile, ignored} {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	aged := time.Now().AddDate(0, 0, -120)
	require.NoError(t, os.Chtimes(oldFile, aged, aged))
	require.NoError(t, os.Chtimes(ignored, aged, aged))

	cfg := cleanup.DefaultCleanupConfig()
	cfg.ReportsDir = dir
	result, err := svc.Run(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PrunedFiles)
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
	assert.FileExists(t, ignored)
}
