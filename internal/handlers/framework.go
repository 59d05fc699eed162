package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"monitoring-portal/internal/models"
	"monitoring-portal/internal/resultframework"
	"monitoring-portal/internal/search"
)

// FrameworkHandler serves the results-framework CRUD and calculation
// endpoints.
type FrameworkHandler struct {
	db           *gorm.DB
	framework    *resultframework.Service
	searchClient *search.SearchClient
}

// NewFrameworkHandler creates a new framework handler. searchClient may be
// nil when the search engine is not configured.
func NewFrameworkHandler(db *gorm.DB, framework *resultframework.Service, searchClient *search.SearchClient) *FrameworkHandler {
	return &FrameworkHandler{
		db:           db,
		framework:    framework,
		searchClient: searchClient,
	}
}

// ListSections returns all sections with their indicators
func (h *FrameworkHandler) ListSections(c *gin.Context) {
	var sections []models.Section
	if err := h.db.Preload("Indicators").Order("sort_order, id").Find(&sections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections, "count": len(sections)})
}

// CreateSection creates a new section
func (h *FrameworkHandler) CreateSection(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		SortOrder int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	section := models.Section{Name: req.Name, SortOrder: req.SortOrder}
	if err := h.db.Create(&section).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, section)
}

// ListIndicators returns indicators, optionally filtered by section
func (h *FrameworkHandler) ListIndicators(c *gin.Context) {
	q := h.db.Model(&models.Indicator{}).Order("id")
	if raw := c.Query("section_id"); raw != "" {
		q = q.Where("section_id = ?", raw)
	}

	var indicators []models.Indicator
	if err := q.Find(&indicators).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"indicators": indicators, "count": len(indicators)})
}

// GetIndicator returns one indicator with its achievements and rules
func (h *FrameworkHandler) GetIndicator(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}

	var indicator models.Indicator
	err := h.db.Preload("Achievements").Preload("Rules").First(&indicator, id).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "indicator not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, indicator)
}

type indicatorRequest struct {
	SectionID   *uint           `json:"section_id"`
	Name        string          `json:"name" binding:"required"`
	PBCCode     string          `json:"pbc_code"`
	Baseline    decimal.Decimal `json:"baseline"`
	Target      decimal.Decimal `json:"target"`
	Observation string          `json:"observation"`
}

// CreateIndicator creates a new indicator
func (h *FrameworkHandler) CreateIndicator(c *gin.Context) {
	var req indicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	indicator := models.Indicator{
		SectionID:   req.SectionID,
		Name:        req.Name,
		PBCCode:     req.PBCCode,
		Baseline:    req.Baseline,
		Target:      req.Target,
		Observation: req.Observation,
	}
	if err := h.db.Create(&indicator).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reindex(&indicator)
	c.JSON(http.StatusCreated, indicator)
}

// UpdateIndicator updates an existing indicator
func (h *FrameworkHandler) UpdateIndicator(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}

	var indicator models.Indicator
	if err := h.db.First(&indicator, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "indicator not found"})
		return
	}

	var req indicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	indicator.SectionID = req.SectionID
	indicator.Name = req.Name
	indicator.PBCCode = req.PBCCode
	indicator.Baseline = req.Baseline
	indicator.Target = req.Target
	indicator.Observation = req.Observation

	if err := h.db.Save(&indicator).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reindex(&indicator)
	c.JSON(http.StatusOK, indicator)
}

// DeleteIndicator deletes an indicator and its achievements, leaving an
// audit row.
func (h *FrameworkHandler) DeleteIndicator(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}

	var indicator models.Indicator
	if err := h.db.First(&indicator, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "indicator not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		deleteLog := models.DeleteLog{
			EntityType: models.EntityIndicator,
			EntityID:   indicator.ID,
			Name:       indicator.Name,
			Reason:     models.DeleteReasonManual,
		}
		if err := tx.Create(&deleteLog).Error; err != nil {
			return err
		}
		if err := tx.Where("indicator_id = ?", indicator.ID).Delete(&models.IndicatorAchievement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("indicator_id = ?", indicator.ID).Delete(&models.IndicatorCalculationRule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&indicator).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.searchClient != nil {
		if err := h.searchClient.DeleteIndicator(indicator.ID); err != nil {
			log.Printf("Handlers: failed to remove indicator %d from search index: %v", indicator.ID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "indicator deleted", "id": indicator.ID})
}

// ListAchievements returns an indicator's achievement time series
func (h *FrameworkHandler) ListAchievements(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}

	var achievements []models.IndicatorAchievement
	err := h.db.Where("indicator_id = ?", id).
		Order("COALESCE(date, created_at) DESC, id DESC").
		Limit(parseLimit(c, 100)).
		Find(&achievements).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievements, "count": len(achievements)})
}

// CreateAchievement appends a manual achievement record
func (h *FrameworkHandler) CreateAchievement(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}
	if _, err := h.framework.GetIndicator(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		Achieved decimal.Decimal `json:"achieved"`
		Comment  string          `json:"comment"`
		Date     string          `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	achievement := models.IndicatorAchievement{
		IndicatorID: id,
		Achieved:    req.Achieved,
		Comment:     req.Comment,
	}
	if req.Date != "" {
		t, err := timeParse(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		achievement.Date = &t
	}

	if err := h.db.Create(&achievement).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, achievement)
}

// SetCalculationRule replaces an indicator's active calculation rule.
// Earlier rules are kept inactive for audit.
func (h *FrameworkHandler) SetCalculationRule(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}
	if _, err := h.framework.GetIndicator(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		CalculationType   models.CalculationType `json:"calculation_type" binding:"required"`
		CalculationMethod string                 `json:"calculation_method"`
		CalculationConfig string                 `json:"calculation_config"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.CalculationType {
	case models.CalculationManual, models.CalculationSystem, models.CalculationMixed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "calculation_type must be MANUAL, SYSTEM or MIXED"})
		return
	}

	rule := models.IndicatorCalculationRule{
		IndicatorID: id,
		Type:        req.CalculationType,
		Method:      req.CalculationMethod,
		Config:      req.CalculationConfig,
		IsActive:    true,
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.IndicatorCalculationRule{}).
			Where("indicator_id = ?", id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&rule).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// CalculateIndicator runs the calculation dispatcher for one indicator
func (h *FrameworkHandler) CalculateIndicator(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}
	if _, err := h.framework.GetIndicator(id); err != nil {
		if errors.Is(err, resultframework.ErrIndicatorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	opts, ok := calcOptionsFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or location filter"})
		return
	}

	result := h.framework.CalculateIndicatorValue(id, opts)
	c.JSON(http.StatusOK, gin.H{"indicator_id": id, "result": result})
}

// SearchIndicators searches the indicator index, falling back to a
// database filter when the search engine is unavailable
func (h *FrameworkHandler) SearchIndicators(c *gin.Context) {
	query := c.Query("q")
	limit := parseLimit(c, 20)

	var sectionID *uint
	if raw := c.Query("section_id"); raw != "" {
		id, ok := parseUintQuery(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section_id"})
			return
		}
		sectionID = &id
	}

	if h.searchClient != nil {
		docs, err := h.searchClient.Search(query, sectionID, int64(limit))
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"indicators": docs, "count": len(docs), "source": "search"})
			return
		}
		log.Printf("Handlers: search engine unavailable, falling back to database: %v", err)
	}

	indicators, err := search.FilterIndicators(h.db, search.FilterParams{
		Query:     query,
		SectionID: sectionID,
		Limit:     limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"indicators": indicators, "count": len(indicators), "source": "database"})
}

// reindex pushes an indicator into the search index, best effort.
func (h *FrameworkHandler) reindex(indicator *models.Indicator) {
	if h.searchClient == nil {
		return
	}
	var section *models.Section
	if indicator.SectionID != nil {
		var s models.Section
		if err := h.db.First(&s, *indicator.SectionID).Error; err == nil {
			section = &s
		}
	}
	if err := h.searchClient.IndexIndicator(search.NewIndicatorDocument(indicator, section)); err != nil {
		log.Printf("Handlers: failed to index indicator %d: %v", indicator.ID, err)
	}
}
