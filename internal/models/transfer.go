package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonetaryTransfer is one planned (and possibly executed) cash-transfer
// round in a location, as reported by the payment agency.
type MonetaryTransfer struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	LocationID *uint  `gorm:"type:bigint;index" json:"location_id,omitempty"`
	Programme  string `gorm:"type:varchar(100);index" json:"programme,omitempty"`

	PlannedDate time.Time  `gorm:"type:date;not null;index" json:"planned_date"`
	PaidDate    *time.Time `gorm:"type:date;index" json:"paid_date,omitempty"`

	PlannedBeneficiaries int `gorm:"type:int;not null;default:0" json:"planned_beneficiaries"`
	PaidBeneficiaries    int `gorm:"type:int;not null;default:0" json:"paid_beneficiaries"`

	PlannedWomen int `gorm:"type:int;not null;default:0" json:"planned_women"`
	PaidWomen    int `gorm:"type:int;not null;default:0" json:"paid_women"`

	PlannedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"planned_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_amount"`

	PaymentAgency string    `gorm:"type:varchar(100)" json:"payment_agency,omitempty"`
	CreatedAt     time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (MonetaryTransfer) TableName() string {
	return "monetary_transfers"
}

// IsPaid reports whether the transfer round has been executed.
func (t *MonetaryTransfer) IsPaid() bool {
	return t.PaidDate != nil
}

// PaidWithin reports whether payment happened within days of the plan.
func (t *MonetaryTransfer) PaidWithin(days int) bool {
	if t.PaidDate == nil {
		return false
	}
	return !t.PaidDate.After(t.PlannedDate.AddDate(0, 0, days))
}
