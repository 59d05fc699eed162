package models

import "time"

// DeleteLog is an audit record of physically deleted rows (draft
// snapshots removed by retention cleanup, indicators deleted by admins).
type DeleteLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   uint      `gorm:"type:bigint;not null;index" json:"entity_id"`
	Name       string    `gorm:"type:text" json:"name"`
	DeletedBy  string    `gorm:"type:varchar(100)" json:"deleted_by,omitempty"`
	DeletedAt  time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"deleted_at"`
	Reason     string    `gorm:"type:varchar(50);not null" json:"reason"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// EntityType constants
const (
	EntitySnapshot  = "snapshot"
	EntityIndicator = "indicator"
)

// DeleteReason constants
const (
	DeleteReasonExpired = "retention_expired"
	DeleteReasonManual  = "manual_deletion"
)
