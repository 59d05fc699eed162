package models

import "time"

// Sex codes used across the registry and activity logs
const (
	SexMale   = "M"
	SexFemale = "F"
)

// Household is one registered household of the social registry.
type Household struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	SocialID         string     `gorm:"type:varchar(32);uniqueIndex" json:"social_id"`
	LocationID       *uint      `gorm:"type:bigint;index" json:"location_id,omitempty"`
	Members          int        `gorm:"type:int;not null;default:1" json:"members"`
	HeadSex          string     `gorm:"type:varchar(1)" json:"head_sex,omitempty"`
	Vulnerable       bool       `gorm:"type:boolean;not null;default:false;index" json:"vulnerable"`
	RegistrationDate *time.Time `gorm:"type:date;index" json:"registration_date,omitempty"`
	CreatedAt        time.Time  `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Household) TableName() string {
	return "households"
}

// BeneficiaryStatus is the enrollment state of a group beneficiary
type BeneficiaryStatus string

const (
	BeneficiaryActive    BeneficiaryStatus = "ACTIVE"
	BeneficiarySuspended BeneficiaryStatus = "SUSPENDED"
	BeneficiaryExited    BeneficiaryStatus = "EXITED"
)

// GroupBeneficiary is one household's enrollment in the cash-transfer
// program, with the designated payment recipient.
type GroupBeneficiary struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	HouseholdID  uint              `gorm:"type:bigint;not null;index" json:"household_id"`
	Status       BeneficiaryStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	RecipientSex string            `gorm:"type:varchar(1)" json:"recipient_sex,omitempty"`
	EnrolledAt   *time.Time        `gorm:"type:date;index" json:"enrolled_at,omitempty"`
	CreatedAt    time.Time         `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`

	Household Household `gorm:"foreignKey:HouseholdID" json:"-"`
}

// TableName specifies the table name
func (GroupBeneficiary) TableName() string {
	return "group_beneficiaries"
}
