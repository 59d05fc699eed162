package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"monitoring-portal/internal/cleanup"
	"monitoring-portal/internal/models"
	"monitoring-portal/internal/ratelimit"
	"monitoring-portal/internal/scheduler"
	"monitoring-portal/internal/search"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db             *gorm.DB
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	searchClient   *search.SearchClient
	limiter        *ratelimit.RateLimiter
	reportsDir     string
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, searchClient *search.SearchClient, limiter *ratelimit.RateLimiter, reportsDir string) *AdminHandler {
	return &AdminHandler{
		db:             db,
		scheduler:      sched,
		cleanupService: cleanup.NewService(db),
		searchClient:   searchClient,
		limiter:        limiter,
		reportsDir:     reportsDir,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	var sectionCount, indicatorCount, achievementCount int64
	h.db.Model(&models.Section{}).Count(&sectionCount)
	h.db.Model(&models.Indicator{}).Count(&indicatorCount)
	h.db.Model(&models.IndicatorAchievement{}).Count(&achievementCount)

	stats["framework"] = map[string]interface{}{
		"sections":     sectionCount,
		"indicators":   indicatorCount,
		"achievements": achievementCount,
	}

	// Snapshot counts by lifecycle status
	var draftCount, finalizedCount int64
	h.db.Model(&models.ResultFrameworkSnapshot{}).Where("status = ?", models.SnapshotStatusDraft).Count(&draftCount)
	h.db.Model(&models.ResultFrameworkSnapshot{}).Where("status = ?", models.SnapshotStatusFinalized).Count(&finalizedCount)
	stats["snapshots"] = map[string]interface{}{
		"draft":     draftCount,
		"finalized": finalizedCount,
		"total":     draftCount + finalizedCount,
	}

	// Field data recorded in the last 30 days
	last30d := time.Now().AddDate(0, 0, -30)
	var recentAchievements, recentTransfers int64
	h.db.Model(&models.IndicatorAchievement{}).Where("created_at >= ?", last30d).Count(&recentAchievements)
	h.db.Model(&models.MonetaryTransfer{}).Where("planned_date >= ?", last30d).Count(&recentTransfers)
	stats["recent_activity"] = map[string]interface{}{
		"achievements_last_30d": recentAchievements,
		"transfers_last_30d":    recentTransfers,
	}

	if h.limiter != nil {
		stats["rate_limit"] = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerSnapshot runs the scheduled snapshot build immediately
func (h *AdminHandler) TriggerSnapshot(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}
	if err := h.scheduler.RunNow(); err != nil {
		log.Printf("Admin: manual snapshot run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "snapshot created"})
}

// RunCleanup deletes expired draft snapshots and stale report files
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	cfg := cleanup.DefaultCleanupConfig()
	cfg.ReportsDir = h.reportsDir
	cfg.DryRun = c.Query("dry_run") == "true"
	if raw := c.Query("retention_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "retention_days must be a positive integer"})
			return
		}
		cfg.RetentionDays = days
	}

	result, err := h.cleanupService.Run(cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCleanupLogs returns recent deletion log entries
func (h *AdminHandler) GetCleanupLogs(c *gin.Context) {
	logs, err := h.cleanupService.GetRecentDeleteLogs(parseLimit(c, 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.cleanupService.GetDeleteStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "stats": stats})
}

// ReindexSearch pushes every indicator into the search index
func (h *AdminHandler) ReindexSearch(c *gin.Context) {
	if h.searchClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search not configured"})
		return
	}

	var indicators []models.Indicator
	if err := h.db.Find(&indicators).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sections := make(map[uint]*models.Section)
	docs := make([]search.IndicatorDocument, 0, len(indicators))
	for i := range indicators {
		var section *models.Section
		if indicators[i].SectionID != nil {
			if cached, ok := sections[*indicators[i].SectionID]; ok {
				section = cached
			} else {
				var s models.Section
				if err := h.db.First(&s, *indicators[i].SectionID).Error; err == nil {
					sections[s.ID] = &s
					section = &s
				}
			}
		}
		docs = append(docs, search.NewIndicatorDocument(&indicators[i], section))
	}

	if err := h.searchClient.IndexIndicators(docs); err != nil {
		log.Printf("Admin: reindex failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reindex complete", "indexed": len(docs)})
}

// ResetRateLimit clears the snapshot-build rate limiter windows
func (h *AdminHandler) ResetRateLimit(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiting disabled"})
		return
	}
	h.limiter.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "rate limiter reset"})
}
