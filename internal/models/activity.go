package models

import "time"

// ActivityStatus is the field-validation state of an activity record.
// Only VALIDATED records count toward system-computed indicators.
type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "PENDING"
	ActivityValidated ActivityStatus = "VALIDATED"
	ActivityRejected  ActivityStatus = "REJECTED"
)

// IsReviewOutcome reports whether a status is a valid validation decision.
// Field records can only be reviewed into VALIDATED or REJECTED.
func (s ActivityStatus) IsReviewOutcome() bool {
	return s == ActivityValidated || s == ActivityRejected
}

// Training is one field-reported training session with participant counts.
type Training struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	LocationID         *uint          `gorm:"type:bigint;index" json:"location_id,omitempty"`
	Date               time.Time      `gorm:"type:date;not null;index" json:"date"`
	Theme              string         `gorm:"type:varchar(255)" json:"theme,omitempty"`
	MaleParticipants   int            `gorm:"type:int;not null;default:0" json:"male_participants"`
	FemaleParticipants int            `gorm:"type:int;not null;default:0" json:"female_participants"`
	TwaParticipants    int            `gorm:"type:int;not null;default:0" json:"twa_participants"`
	Status             ActivityStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt          time.Time      `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Training) TableName() string {
	return "trainings"
}

// BehaviorChangeSession is one community sensitization session on
// nutrition, hygiene or financial practices.
type BehaviorChangeSession struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	LocationID         *uint          `gorm:"type:bigint;index" json:"location_id,omitempty"`
	Date               time.Time      `gorm:"type:date;not null;index" json:"date"`
	Theme              string         `gorm:"type:varchar(255)" json:"theme,omitempty"`
	MaleParticipants   int            `gorm:"type:int;not null;default:0" json:"male_participants"`
	FemaleParticipants int            `gorm:"type:int;not null;default:0" json:"female_participants"`
	TwaParticipants    int            `gorm:"type:int;not null;default:0" json:"twa_participants"`
	Status             ActivityStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt          time.Time      `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (BehaviorChangeSession) TableName() string {
	return "behavior_change_sessions"
}

// MicroProject is one livelihood micro-project financed for beneficiaries.
type MicroProject struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	LocationID         *uint          `gorm:"type:bigint;index" json:"location_id,omitempty"`
	Date               time.Time      `gorm:"type:date;not null;index" json:"date"`
	Type               string         `gorm:"type:varchar(100)" json:"type,omitempty"`
	MaleParticipants   int            `gorm:"type:int;not null;default:0" json:"male_participants"`
	FemaleParticipants int            `gorm:"type:int;not null;default:0" json:"female_participants"`
	TwaParticipants    int            `gorm:"type:int;not null;default:0" json:"twa_participants"`
	Status             ActivityStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt          time.Time      `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (MicroProject) TableName() string {
	return "micro_projects"
}
