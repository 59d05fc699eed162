package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"monitoring-portal/internal/models"
)

// ActivityHandler serves the field-collected records: trainings, behavior
// change sessions, micro-projects and monetary transfers.
type ActivityHandler struct {
	db *gorm.DB
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{db: db}
}

type activityRequest struct {
	LocationID         *uint  `json:"location_id"`
	Date               string `json:"date" binding:"required"`
	Theme              string `json:"theme"`
	Type               string `json:"type"`
	MaleParticipants   int    `json:"male_participants"`
	FemaleParticipants int    `json:"female_participants"`
	TwaParticipants    int    `json:"twa_participants"`
}

func (r *activityRequest) date() (time.Time, error) {
	return timeParse(r.Date)
}

// CreateTraining records a training session (PENDING until validated)
func (h *ActivityHandler) CreateTraining(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := req.date()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	training := models.Training{
		LocationID:         req.LocationID,
		Date:               date,
		Theme:              req.Theme,
		MaleParticipants:   req.MaleParticipants,
		FemaleParticipants: req.FemaleParticipants,
		TwaParticipants:    req.TwaParticipants,
		Status:             models.ActivityPending,
	}
	if err := h.db.Create(&training).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, training)
}

// ListTrainings returns training sessions, newest first
func (h *ActivityHandler) ListTrainings(c *gin.Context) {
	var trainings []models.Training
	if err := h.db.Order("date DESC, id DESC").Limit(parseLimit(c, 100)).Find(&trainings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trainings": trainings, "count": len(trainings)})
}

// CreateBehaviorChangeSession records a sensitization session
func (h *ActivityHandler) CreateBehaviorChangeSession(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := req.date()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	session := models.BehaviorChangeSession{
		LocationID:         req.LocationID,
		Date:               date,
		Theme:              req.Theme,
		MaleParticipants:   req.MaleParticipants,
		FemaleParticipants: req.FemaleParticipants,
		TwaParticipants:    req.TwaParticipants,
		Status:             models.ActivityPending,
	}
	if err := h.db.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, session)
}

// CreateMicroProject records a livelihood micro-project
func (h *ActivityHandler) CreateMicroProject(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := req.date()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	project := models.MicroProject{
		LocationID:         req.LocationID,
		Date:               date,
		Type:               req.Type,
		MaleParticipants:   req.MaleParticipants,
		FemaleParticipants: req.FemaleParticipants,
		TwaParticipants:    req.TwaParticipants,
		Status:             models.ActivityPending,
	}
	if err := h.db.Create(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ReviewActivity applies a validation decision to a field record. Only
// VALIDATED or REJECTED are accepted; anything else is a state error and
// no mutation happens.
func (h *ActivityHandler) ReviewActivity(c *gin.Context) {
	kind := c.Param("kind")
	id, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	var req struct {
		Status models.ActivityStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.IsReviewOutcome() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "status must be VALIDATED or REJECTED"})
		return
	}

	var model interface{}
	switch kind {
	case "trainings":
		model = &models.Training{}
	case "behavior-change-sessions":
		model = &models.BehaviorChangeSession{}
	case "micro-projects":
		model = &models.MicroProject{}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown activity kind: " + kind})
		return
	}

	res := h.db.Model(model).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "record reviewed", "id": id, "status": req.Status})
}

// CreateTransfer records a monetary transfer round
func (h *ActivityHandler) CreateTransfer(c *gin.Context) {
	var req struct {
		LocationID           *uint           `json:"location_id"`
		Programme            string          `json:"programme"`
		PlannedDate          string          `json:"planned_date" binding:"required"`
		PaidDate             string          `json:"paid_date"`
		PlannedBeneficiaries int             `json:"planned_beneficiaries"`
		PaidBeneficiaries    int             `json:"paid_beneficiaries"`
		PlannedWomen         int             `json:"planned_women"`
		PaidWomen            int             `json:"paid_women"`
		PlannedAmount        decimal.Decimal `json:"planned_amount"`
		PaidAmount           decimal.Decimal `json:"paid_amount"`
		PaymentAgency        string          `json:"payment_agency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	planned, err := timeParse(req.PlannedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "planned_date must be YYYY-MM-DD"})
		return
	}

	transfer := models.MonetaryTransfer{
		LocationID:           req.LocationID,
		Programme:            req.Programme,
		PlannedDate:          planned,
		PlannedBeneficiaries: req.PlannedBeneficiaries,
		PaidBeneficiaries:    req.PaidBeneficiaries,
		PlannedWomen:         req.PlannedWomen,
		PaidWomen:            req.PaidWomen,
		PlannedAmount:        req.PlannedAmount,
		PaidAmount:           req.PaidAmount,
		PaymentAgency:        req.PaymentAgency,
	}
	if req.PaidDate != "" {
		paid, err := timeParse(req.PaidDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "paid_date must be YYYY-MM-DD"})
			return
		}
		transfer.PaidDate = &paid
	}

	if err := h.db.Create(&transfer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

// ListTransfers returns transfer rounds, newest first
func (h *ActivityHandler) ListTransfers(c *gin.Context) {
	var transfers []models.MonetaryTransfer
	if err := h.db.Order("planned_date DESC, id DESC").Limit(parseLimit(c, 100)).Find(&transfers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers, "count": len(transfers)})
}
