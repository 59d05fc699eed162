package cleanup

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"monitoring-portal/internal/models"
)

// Service physically deletes stale DRAFT snapshots and prunes generated
// report files. FINALIZED snapshots are formal reporting records and are
// never touched.
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays    int    // Days to keep draft snapshots and report files (default: 90)
	MaxDeletionCount int    // Maximum number of snapshots to delete in one run (safety limit)
	DryRun           bool   // If true, only log what would be deleted without actually deleting
	ReportsDir       string // Directory of generated report files ("" skips file pruning)
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:    90,
		MaxDeletionCount: 1000,
		DryRun:           false,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount      int       `json:"target_count"`  // Number of draft snapshots eligible for deletion
	DeletedCount     int       `json:"deleted_count"` // Number of snapshots actually deleted
	PrunedFiles      int       `json:"pruned_files"`  // Number of report files removed
	ErrorCount       int       `json:"error_count"`   // Number of errors encountered
	DryRun           bool      `json:"dry_run"`       // Whether this was a dry run
	ExecutedAt       time.Time `json:"executed_at"`   // When the cleanup was executed
	DeletedSnapshots []uint    `json:"deleted_snapshots"`
	Errors           []string  `json:"errors,omitempty"` // Error messages
}

// FindExpiredDrafts finds DRAFT snapshots older than retentionDays.
func (s *Service) FindExpiredDrafts(retentionDays int) ([]models.ResultFrameworkSnapshot, error) {
	var snapshots []models.ResultFrameworkSnapshot

	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	err := s.db.Where("status = ? AND snapshot_date < ?",
		models.SnapshotStatusDraft,
		cutoffDate,
	).Find(&snapshots).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find expired draft snapshots: %w", err)
	}

	log.Printf("Cleanup: Found %d draft snapshots expired before %s", len(snapshots), cutoffDate.Format("2006-01-02"))
	return snapshots, nil
}

// Run performs the retention cleanup.
func (s *Service) Run(config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	expired, err := s.FindExpiredDrafts(config.RetentionDays)
	if err != nil {
		return nil, err
	}

	result.TargetCount = len(expired)

	// Safety check: abort if too many snapshots would be deleted
	if config.MaxDeletionCount > 0 && result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d snapshots exceed max deletion limit of %d",
			result.TargetCount, config.MaxDeletionCount)
	}

	for i := range expired {
		snap := &expired[i]
		if config.DryRun {
			log.Printf("Cleanup: [DRY-RUN] Would delete draft snapshot %d (%s, created %s)",
				snap.ID, snap.Name, snap.SnapshotDate.Format("2006-01-02"))
			result.DeletedSnapshots = append(result.DeletedSnapshots, snap.ID)
			result.DeletedCount++
			continue
		}

		// Delete log + row in one transaction
		err := s.db.Transaction(func(tx *gorm.DB) error {
			deleteLog := models.DeleteLog{
				EntityType: models.EntitySnapshot,
				EntityID:   snap.ID,
				Name:       snap.Name,
				Reason:     models.DeleteReasonExpired,
			}
			if err := tx.Create(&deleteLog).Error; err != nil {
				return err
			}
			return tx.Delete(snap).Error
		})
		if err != nil {
			errMsg := fmt.Sprintf("Failed to delete snapshot %d: %v", snap.ID, err)
			log.Printf("Cleanup: ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		log.Printf("Cleanup: Deleted draft snapshot %d (%s)", snap.ID, snap.Name)
		result.DeletedSnapshots = append(result.DeletedSnapshots, snap.ID)
		result.DeletedCount++
	}

	if config.ReportsDir != "" {
		pruned, errs := s.pruneReportFiles(config.ReportsDir, config.RetentionDays, config.DryRun)
		result.PrunedFiles = pruned
		result.Errors = append(result.Errors, errs...)
		result.ErrorCount += len(errs)
	}

	log.Printf("Cleanup: Completed: %d/%d snapshots deleted, %d files pruned, %d errors (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.PrunedFiles, result.ErrorCount, config.DryRun)

	return result, nil
}

// pruneReportFiles removes generated .xlsx files older than the retention
// window.
func (s *Service) pruneReportFiles(dir string, retentionDays int, dryRun bool) (int, []string) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, []string{fmt.Sprintf("failed to read reports dir: %v", err)}
	}

	pruned := 0
	var errs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xlsx") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if dryRun {
			log.Printf("Cleanup: [DRY-RUN] Would prune report file %s", path)
			pruned++
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Sprintf("failed to remove %s: %v", path, err))
			continue
		}
		pruned++
	}
	return pruned, errs
}

// GetDeleteStats returns statistics about deleted rows
func (s *Service) GetDeleteStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	// Total delete logs
	var totalDeleted int64
	if err := s.db.Model(&models.DeleteLog{}).Count(&totalDeleted).Error; err != nil {
		return nil, err
	}
	stats["total_deleted"] = totalDeleted

	// Delete logs by reason
	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := s.db.Model(&models.DeleteLog{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}

	reasonMap := make(map[string]int64)
	for _, rc := range reasonCounts {
		reasonMap[rc.Reason] = rc.Count
	}
	stats["by_reason"] = reasonMap

	// Recent deletions (last 30 days)
	var recentDeleted int64
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := s.db.Model(&models.DeleteLog{}).
		Where("deleted_at >= ?", thirtyDaysAgo).
		Count(&recentDeleted).Error; err != nil {
		return nil, err
	}
	stats["deleted_last_30_days"] = recentDeleted

	// Draft snapshots ready for deletion
	expired, err := s.FindExpiredDrafts(90)
	if err != nil {
		return nil, err
	}
	stats["expired_drafts"] = len(expired)

	return stats, nil
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	err := s.db.Order("deleted_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
