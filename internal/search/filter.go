package search

import (
	"gorm.io/gorm"

	"monitoring-portal/internal/models"
)

// FilterParams narrows the database fallback search.
type FilterParams struct {
	Query     string
	SectionID *uint
	Limit     int
}

// FilterIndicators is the database-side fallback used when the search
// engine is unavailable: a LIKE match on name and PBC code.
func FilterIndicators(db *gorm.DB, params FilterParams) ([]models.Indicator, error) {
	if params.Limit == 0 {
		params.Limit = 20
	}

	q := db.Model(&models.Indicator{})
	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		q = q.Where("name LIKE ? OR pbc_code LIKE ?", pattern, pattern)
	}
	if params.SectionID != nil {
		q = q.Where("section_id = ?", *params.SectionID)
	}

	var indicators []models.Indicator
	if err := q.Order("id").Limit(params.Limit).Find(&indicators).Error; err != nil {
		return nil, err
	}
	return indicators, nil
}
