package models

import (
	"encoding/json"
	"time"
)

// CalculationType selects where an indicator's value comes from.
type CalculationType string

const (
	CalculationManual CalculationType = "MANUAL" // entered by M&E staff
	CalculationSystem CalculationType = "SYSTEM" // computed from source tables
	CalculationMixed  CalculationType = "MIXED"  // blend of both
)

// CombineMethod controls how MIXED rules blend system and manual values.
type CombineMethod string

const (
	CombineAdd     CombineMethod = "add"
	CombineMax     CombineMethod = "max"
	CombineReplace CombineMethod = "replace"
	// CombineUnknown marks a combine_method key that is present but not
	// recognized (including empty string); the calculator then keeps the
	// system value and ignores the manual one.
	CombineUnknown CombineMethod = ""
)

// IndicatorCalculationRule binds an indicator to a calculation strategy.
// At most one active rule per indicator is consulted; an indicator with no
// active rule is implicitly MANUAL.
type IndicatorCalculationRule struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	IndicatorID uint            `gorm:"type:bigint;not null;index" json:"indicator_id"`
	Type        CalculationType `gorm:"column:calculation_type;type:varchar(20);not null;default:'MANUAL'" json:"calculation_type"`
	// Method is a stable key into the calculation registry, used when Type
	// is SYSTEM or MIXED.
	Method string `gorm:"column:calculation_method;type:varchar(100)" json:"calculation_method,omitempty"`
	// Config is a free-form JSON configuration map. Recognized keys:
	// combine_method (add|max|replace) for MIXED rules.
	Config    string    `gorm:"column:calculation_config;type:text" json:"calculation_config,omitempty"`
	IsActive  bool      `gorm:"type:boolean;not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (IndicatorCalculationRule) TableName() string {
	return "indicator_calculation_rules"
}

// ConfigMap parses the stored configuration JSON. A missing or malformed
// config yields an empty map.
func (r *IndicatorCalculationRule) ConfigMap() map[string]interface{} {
	cfg := make(map[string]interface{})
	if r.Config == "" {
		return cfg
	}
	if err := json.Unmarshal([]byte(r.Config), &cfg); err != nil {
		return map[string]interface{}{}
	}
	return cfg
}

// CombineMethod returns the blend policy for a MIXED rule. The default
// "add" applies only when the combine_method key is literally absent; a
// present-but-unrecognized value (empty string included) returns
// CombineUnknown, and the calculator falls back to the system value alone.
func (r *IndicatorCalculationRule) CombineMethod() CombineMethod {
	cfg := r.ConfigMap()
	raw, ok := cfg["combine_method"]
	if !ok {
		return CombineAdd
	}
	s, _ := raw.(string)
	switch CombineMethod(s) {
	case CombineAdd, CombineMax, CombineReplace:
		return CombineMethod(s)
	default:
		return CombineUnknown
	}
}
