package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ResultFrameworkSnapshot is an immutable-by-convention point-in-time
// capture of the entire results framework. The payload denormalizes every
// indicator's values into JSON at creation time, so historical reports are
// decoupled from later schema or data changes; it never references live
// rows by foreign key.
type ResultFrameworkSnapshot struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Status      SnapshotStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	// Data is the frozen SnapshotData document, stored as JSON.
	Data         json.RawMessage `gorm:"type:json" json:"data"`
	CreatedBy    string          `gorm:"type:varchar(100)" json:"created_by"`
	SnapshotDate time.Time       `gorm:"type:datetime;not null;autoCreateTime;index" json:"snapshot_date"`
	DateFrom     *time.Time      `gorm:"type:date" json:"date_from,omitempty"`
	DateTo       *time.Time      `gorm:"type:date" json:"date_to,omitempty"`
}

// TableName specifies the table name
func (ResultFrameworkSnapshot) TableName() string {
	return "result_framework_snapshots"
}

// SnapshotStatus is the lifecycle state of a snapshot
type SnapshotStatus string

const (
	SnapshotStatusDraft     SnapshotStatus = "DRAFT"
	SnapshotStatusFinalized SnapshotStatus = "FINALIZED"
)

// IsFinalized reports whether the snapshot payload is frozen.
func (s *ResultFrameworkSnapshot) IsFinalized() bool {
	return s.Status == SnapshotStatusFinalized
}

// Payload unmarshals the stored JSON document.
func (s *ResultFrameworkSnapshot) Payload() (*SnapshotData, error) {
	var data SnapshotData
	if err := json.Unmarshal(s.Data, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SnapshotData is the structured document frozen into a snapshot row.
type SnapshotData struct {
	Sections []SnapshotSection `json:"sections"`
	Metadata SnapshotMetadata  `json:"metadata"`
}

// SnapshotSection groups the frozen indicator records of one section.
type SnapshotSection struct {
	ID         uint                `json:"id"`
	Name       string              `json:"name"`
	Indicators []SnapshotIndicator `json:"indicators"`
}

// SnapshotIndicator is one indicator's state at snapshot time.
type SnapshotIndicator struct {
	ID              uint             `json:"id"`
	Name            string           `json:"name"`
	PBCCode         string           `json:"pbc,omitempty"`
	Baseline        decimal.Decimal  `json:"baseline"`
	Target          decimal.Decimal  `json:"target"`
	Achieved        decimal.Decimal  `json:"achieved"`
	Percentage      float64          `json:"percentage"`
	CalculationType CalculationType  `json:"calculation_type"`
	Observation     string           `json:"observation,omitempty"`
	GenderBreakdown *GenderBreakdown `json:"gender_breakdown,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// SnapshotMetadata records how and when the snapshot was built.
type SnapshotMetadata struct {
	CreatedDate time.Time  `json:"created_date"`
	CreatedBy   string     `json:"created_by"`
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
}

// GenderBreakdown splits a participant or beneficiary count by gender.
// Twa participants are tracked separately for the program's inclusion
// reporting.
type GenderBreakdown struct {
	Male   int64 `json:"male"`
	Female int64 `json:"female"`
	Twa    int64 `json:"twa,omitempty"`
	Total  int64 `json:"total"`
}
