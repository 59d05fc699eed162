package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Section is a thematic grouping of indicators in the results framework
// (e.g. "Development Objectives", "Intermediate Outcomes").
type Section struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	SortOrder int       `gorm:"type:int;not null;default:0;index" json:"sort_order"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`

	Indicators []Indicator `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"indicators,omitempty"`
}

// TableName specifies the table name
func (Section) TableName() string {
	return "result_framework_sections"
}

// Indicator is a single measurable target of the results framework.
// Target is used as a denominator in percentage calculations; a zero or
// negative target yields an achievement percentage of 0, never an error.
type Indicator struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	SectionID   *uint           `gorm:"type:bigint;index" json:"section_id,omitempty"`
	Name        string          `gorm:"type:varchar(500);not null" json:"name"`
	PBCCode     string          `gorm:"type:varchar(50)" json:"pbc_code,omitempty"`
	Baseline    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"baseline"`
	Target      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"target"`
	Observation string          `gorm:"type:text" json:"observation,omitempty"`
	CreatedAt   time.Time       `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`

	Achievements []IndicatorAchievement     `gorm:"foreignKey:IndicatorID;constraint:OnDelete:CASCADE" json:"achievements,omitempty"`
	Rules        []IndicatorCalculationRule `gorm:"foreignKey:IndicatorID;constraint:OnDelete:CASCADE" json:"rules,omitempty"`
}

// TableName specifies the table name
func (Indicator) TableName() string {
	return "result_framework_indicators"
}

// AchievementPercentage computes achieved/target*100, guarding non-positive
// targets as 0 so a misconfigured indicator never breaks a report.
func (i *Indicator) AchievementPercentage(achieved decimal.Decimal) float64 {
	return Percentage(achieved, i.Target)
}

// Percentage returns achieved/target*100 rounded to one decimal place,
// or 0 when target is zero or negative.
func Percentage(achieved, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	pct, _ := achieved.Div(target).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return pct
}
