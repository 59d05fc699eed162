package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"monitoring-portal/internal/ratelimit"
	"monitoring-portal/internal/report"
	"monitoring-portal/internal/resultframework"
)

// SnapshotHandler serves snapshot lifecycle and document endpoints.
type SnapshotHandler struct {
	framework  *resultframework.Service
	limiter    *ratelimit.RateLimiter
	reportsDir string
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(framework *resultframework.Service, limiter *ratelimit.RateLimiter, reportsDir string) *SnapshotHandler {
	return &SnapshotHandler{
		framework:  framework,
		limiter:    limiter,
		reportsDir: reportsDir,
	}
}

// ListSnapshots returns snapshots, newest first
func (h *SnapshotHandler) ListSnapshots(c *gin.Context) {
	snapshots, err := h.framework.ListSnapshots(parseLimit(c, 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots, "count": len(snapshots)})
}

// GetSnapshot returns one snapshot including its frozen payload
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot id"})
		return
	}

	snapshot, err := h.framework.GetSnapshot(id)
	if err != nil {
		h.snapshotError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// CreateSnapshot builds a new snapshot of the whole results framework.
// Rate limited: one build runs a query per indicator.
func (h *SnapshotHandler) CreateSnapshot(c *gin.Context) {
	if h.limiter != nil && !h.limiter.AllowRequest() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "snapshot build rate limit exceeded, try again later"})
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		CreatedBy   string `json:"created_by"`
		DateFrom    string `json:"date_from"`
		DateTo      string `json:"date_to"`
		Finalize    bool   `json:"finalize"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dateFrom, dateTo *time.Time
	if req.DateFrom != "" {
		t, err := timeParse(req.DateFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_from must be YYYY-MM-DD"})
			return
		}
		dateFrom = &t
	}
	if req.DateTo != "" {
		t, err := timeParse(req.DateTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_to must be YYYY-MM-DD"})
			return
		}
		dateTo = &t
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = "api"
	}

	snapshot, err := h.framework.CreateSnapshot(req.Name, req.Description, createdBy, dateFrom, dateTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Finalize {
		snapshot, err = h.framework.FinalizeSnapshot(snapshot.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, snapshot)
}

// FinalizeSnapshot flips a draft snapshot to FINALIZED
func (h *SnapshotHandler) FinalizeSnapshot(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot id"})
		return
	}

	snapshot, err := h.framework.FinalizeSnapshot(id)
	if err != nil {
		h.snapshotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "snapshot finalized", "snapshot": snapshot})
}

// DownloadDocument renders the snapshot to an Excel workbook and serves
// the file. Without an id the latest snapshot is used.
func (h *SnapshotHandler) DownloadDocument(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot id"})
		return
	}

	snapshot, err := h.framework.GetSnapshot(id)
	if err != nil {
		h.snapshotError(c, err)
		return
	}

	if err := os.MkdirAll(h.reportsDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("results-framework-%d-%s.xlsx", snapshot.ID, time.Now().Format("20060102-150405"))
	path := filepath.Join(h.reportsDir, filename)
	if err := report.WriteSnapshot(snapshot, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.FileAttachment(path, filename)
}

// snapshotError maps service errors to HTTP statuses.
func (h *SnapshotHandler) snapshotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, resultframework.ErrSnapshotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, resultframework.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
