package models_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"monitoring-portal/internal/models"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		achieved string
		target   string
		want     float64
	}{
		{"half way", "50", "100", 50},
		{"over target", "150", "100", 150},
		{"rounded to one decimal", "1", "3", 33.3},
		{"zero target", "50", "0", 0},
		{"negative target", "50", "-10", 0},
		{"zero achieved", "0", "100", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			achieved := decimal.RequireFromString(tt.achieved)
			target := decimal.RequireFromString(tt.target)
			assert.Equal(t, tt.want, models.Percentage(achieved, target))
		})
	}
}

func TestCombineMethod_DefaultOnlyWhenAbsent(t *testing.T) {
	// No combine_method key at all: the default is add.
	rule := models.IndicatorCalculationRule{Config: `{"timeliness_days": 15}`}
	assert.Equal(t, models.CombineAdd, rule.CombineMethod())

	// Empty config behaves like an absent key.
	rule = models.IndicatorCalculationRule{}
	assert.Equal(t, models.CombineAdd, rule.CombineMethod())

	// A present but unrecognized value is NOT defaulted.
	rule = models.IndicatorCalculationRule{Config: `{"combine_method": "divide"}`}
	assert.Equal(t, models.CombineUnknown, rule.CombineMethod())

	// Same for an explicit empty string.
	rule = models.IndicatorCalculationRule{Config: `{"combine_method": ""}`}
	assert.Equal(t, models.CombineUnknown, rule.CombineMethod())
}

func TestCombineMethod_RecognizedValues(t *testing.T) {
	for _, m := range []string{"add", "max", "replace"} {
		rule := models.IndicatorCalculationRule{Config: `{"combine_method": "` + m + `"}`}
		assert.Equal(t, models.CombineMethod(m), rule.CombineMethod())
	}
}

func TestConfigMap_MalformedJSON(t *testing.T) {
	rule := models.IndicatorCalculationRule{Config: `{not json`}
	assert.Empty(t, rule.ConfigMap())
}

func TestActivityStatus_IsReviewOutcome(t *testing.T) {
	assert.True(t, models.ActivityValidated.IsReviewOutcome())
	assert.True(t, models.ActivityRejected.IsReviewOutcome())
	assert.False(t, models.ActivityPending.IsReviewOutcome())
	assert.False(t, models.ActivityStatus("ARCHIVED").IsReviewOutcome())
}

func TestAchievement_EffectiveDate(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	asOf := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	a := models.IndicatorAchievement{CreatedAt: created}
	assert.Equal(t, created, a.EffectiveDate())

	a.Date = &asOf
	assert.Equal(t, asOf, a.EffectiveDate())
}

func TestTransfer_PaidWithin(t *testing.T) {
	planned := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	onTime := planned.AddDate(0, 0, 30)
	late := planned.AddDate(0, 0, 31)

	transfer := models.MonetaryTransfer{PlannedDate: planned}
	assert.False(t, transfer.IsPaid())
	assert.False(t, transfer.PaidWithin(30))

	transfer.PaidDate = &onTime
	assert.True(t, transfer.IsPaid())
	assert.True(t, transfer.PaidWithin(30))

	transfer.PaidDate = &late
	assert.False(t, transfer.PaidWithin(30))
}

func TestSnapshot_IsFinalized(t *testing.T) {
	s := models.ResultFrameworkSnapshot{Status: models.SnapshotStatusDraft}
	assert.False(t, s.IsFinalized())
	s.Status = models.SnapshotStatusFinalized
	assert.True(t, s.IsFinalized())
}
