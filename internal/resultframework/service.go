package resultframework

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"monitoring-portal/internal/models"
)

// Service computes indicator values and builds results-framework
// snapshots. All snapshot writes happen inside one transaction; individual
// indicator failures are embedded in the payload instead of aborting the
// build.
type Service struct {
	db           *gorm.DB
	buildTimeout time.Duration
}

// NewService creates a new result framework service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:           db,
		buildTimeout: 5 * time.Minute,
	}
}

// SetBuildTimeout overrides the overall budget for one snapshot build.
// The build runs O(indicators) independent queries, so an unresponsive
// database would otherwise stall the caller indefinitely.
func (s *Service) SetBuildTimeout(d time.Duration) {
	if d > 0 {
		s.buildTimeout = d
	}
}

// CreateSnapshot calculates every indicator, persists auto-generated
// achievements for positive SYSTEM/MIXED values, and freezes the whole
// result set into a new DRAFT snapshot row. Returns the stored snapshot.
func (s *Service) CreateSnapshot(name, description, user string, dateFrom, dateTo *time.Time) (*models.ResultFrameworkSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.buildTimeout)
	defer cancel()

	var snapshot *models.ResultFrameworkSnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		data, err := s.buildSnapshotData(tx, name, user, dateFrom, dateTo)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot payload: %w", err)
		}

		snapshot = &models.ResultFrameworkSnapshot{
			Name:        name,
			Description: description,
			Status:      models.SnapshotStatusDraft,
			Data:        payload,
			CreatedBy:   user,
			DateFrom:    dateFrom,
			DateTo:      dateTo,
		}
		return tx.Create(snapshot).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("ResultFramework: created snapshot %d (%s) by %s", snapshot.ID, snapshot.Name, user)
	return snapshot, nil
}

// buildSnapshotData runs the calculation loop over every section and
// indicator, in stable order, and assembles the frozen document.
func (s *Service) buildSnapshotData(tx *gorm.DB, snapshotName, user string, dateFrom, dateTo *time.Time) (*models.SnapshotData, error) {
	var sections []models.Section
	if err := tx.Order("sort_order, id").Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("failed to load sections: %w", err)
	}

	data := &models.SnapshotData{
		Metadata: models.SnapshotMetadata{
			CreatedDate: time.Now(),
			CreatedBy:   user,
			DateFrom:    dateFrom,
			DateTo:      dateTo,
		},
	}

	opts := CalcOptions{DateFrom: dateFrom, DateTo: dateTo}

	for _, section := range sections {
		var indicators []models.Indicator
		if err := tx.Where("section_id = ?", section.ID).Order("id").Find(&indicators).Error; err != nil {
			return nil, fmt.Errorf("failed to load indicators of section %d: %w", section.ID, err)
		}

		snap := models.SnapshotSection{ID: section.ID, Name: section.Name}
		for i := range indicators {
			record, err := s.snapshotIndicator(tx, &indicators[i], opts, snapshotName)
			if err != nil {
				return nil, err
			}
			snap.Indicators = append(snap.Indicators, record)
		}
		data.Sections = append(data.Sections, snap)
	}

	// Indicators outside any section still belong in the report.
	var orphans []models.Indicator
	if err := tx.Where("section_id IS NULL").Order("id").Find(&orphans).Error; err != nil {
		return nil, fmt.Errorf("failed to load unsectioned indicators: %w", err)
	}
	if len(orphans) > 0 {
		snap := models.SnapshotSection{ID: 0, Name: "Unclassified"}
		for i := range orphans {
			record, err := s.snapshotIndicator(tx, &orphans[i], opts, snapshotName)
			if err != nil {
				return nil, err
			}
			snap.Indicators = append(snap.Indicators, record)
		}
		data.Sections = append(data.Sections, snap)
	}

	return data, nil
}

// snapshotIndicator calculates one indicator and, for positive
// system-derived values, appends the audit achievement row.
func (s *Service) snapshotIndicator(tx *gorm.DB, indicator *models.Indicator, opts CalcOptions, snapshotName string) (models.SnapshotIndicator, error) {
	result := s.calculate(tx, indicator.ID, opts)

	record := models.SnapshotIndicator{
		ID:              indicator.ID,
		Name:            indicator.Name,
		PBCCode:         indicator.PBCCode,
		Baseline:        indicator.Baseline,
		Target:          indicator.Target,
		Achieved:        result.Value,
		Percentage:      models.Percentage(result.Value, indicator.Target),
		CalculationType: result.CalculationType,
		Observation:     indicator.Observation,
		GenderBreakdown: result.GenderBreakdown,
		Error:           result.Error,
	}

	// System-derived positive values accumulate an audit trail of computed
	// achievements, distinct from manually entered ones.
	computed := result.CalculationType == models.CalculationSystem ||
		result.CalculationType == models.CalculationMixed
	if computed && result.Value.IsPositive() {
		achievement := models.IndicatorAchievement{
			IndicatorID: indicator.ID,
			Achieved:    result.Value,
			Comment:     fmt.Sprintf("Auto-generated from snapshot %q", snapshotName),
		}
		if err := tx.Create(&achievement).Error; err != nil {
			return record, fmt.Errorf("failed to store achievement for indicator %d: %w", indicator.ID, err)
		}
	}

	return record, nil
}

// FinalizeSnapshot flips a DRAFT snapshot to FINALIZED. Finalizing an
// already-FINALIZED snapshot is rejected and leaves the row untouched.
func (s *Service) FinalizeSnapshot(id uint) (*models.ResultFrameworkSnapshot, error) {
	snapshot, err := s.GetSnapshot(id)
	if err != nil {
		return nil, err
	}
	if snapshot.IsFinalized() {
		return nil, fmt.Errorf("%w: snapshot %d", ErrAlreadyFinalized, id)
	}

	snapshot.Status = models.SnapshotStatusFinalized
	if err := s.db.Model(snapshot).Update("status", models.SnapshotStatusFinalized).Error; err != nil {
		return nil, err
	}
	log.Printf("ResultFramework: finalized snapshot %d (%s)", snapshot.ID, snapshot.Name)
	return snapshot, nil
}

// GetSnapshot loads one snapshot by id.
func (s *Service) GetSnapshot(id uint) (*models.ResultFrameworkSnapshot, error) {
	var snapshot models.ResultFrameworkSnapshot
	if err := s.db.First(&snapshot, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: id %d", ErrSnapshotNotFound, id)
		}
		return nil, err
	}
	return &snapshot, nil
}

// LatestSnapshot returns the most recent snapshot, or ErrSnapshotNotFound
// when none exists yet.
func (s *Service) LatestSnapshot() (*models.ResultFrameworkSnapshot, error) {
	var snapshot models.ResultFrameworkSnapshot
	err := s.db.Order("id DESC").First(&snapshot).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: none created yet", ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshots returns snapshots newest first.
func (s *Service) ListSnapshots(limit int) ([]models.ResultFrameworkSnapshot, error) {
	var snapshots []models.ResultFrameworkSnapshot
	q := s.db.Order("snapshot_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// GetIndicator loads one indicator by id.
func (s *Service) GetIndicator(id uint) (*models.Indicator, error) {
	var indicator models.Indicator
	if err := s.db.First(&indicator, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: id %d", ErrIndicatorNotFound, id)
		}
		return nil, err
	}
	return &indicator, nil
}
