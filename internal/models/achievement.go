package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndicatorAchievement is one dated observation of an indicator's measured
// value. Achievements are append-only: repeated snapshot builds and manual
// entries accumulate a time series, and the "current value" is whatever
// record is latest within the caller's date filter.
type IndicatorAchievement struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	IndicatorID uint            `gorm:"type:bigint;not null;index" json:"indicator_id"`
	Achieved    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"achieved"`
	Comment     string          `gorm:"type:text" json:"comment,omitempty"`
	// Date is the explicit as-of date of the observation, distinct from the
	// row creation timestamp. Nil means "as of creation time".
	Date      *time.Time `gorm:"type:date;index" json:"date,omitempty"`
	CreatedAt time.Time  `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (IndicatorAchievement) TableName() string {
	return "indicator_achievements"
}

// EffectiveDate returns the as-of date when set, otherwise the creation time.
func (a *IndicatorAchievement) EffectiveDate() time.Time {
	if a.Date != nil {
		return *a.Date
	}
	return a.CreatedAt
}
