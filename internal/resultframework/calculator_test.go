package resultframework_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-portal/internal/models"
	"monitoring-portal/internal/resultframework"
)

func TestCalculate_ManualLatestWins(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Grievances resolved", 100)

	seedAchievement(t, db, indicator.ID, 10, date(2026, 1, 10))
	seedAchievement(t, db, indicator.ID, 20, date(2026, 1, 20))

	// No filter: the most recent as-of date wins.
	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Empty(t, result.Error)
	assert.Equal(t, models.CalculationManual, result.CalculationType)
	assert.True(t, result.Value.Equal(decimal.NewFromInt(20)), "got %s", result.Value)

	// A date ceiling excludes the later record.
	result = svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{
		DateTo: date(2026, 1, 15),
	})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(10)), "got %s", result.Value)
}

func TestCalculate_ManualTieBrokenByInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Committees operational", 50)

	sameDay := date(2026, 2, 1)
	seedAchievement(t, db, indicator.ID, 30, sameDay)
	seedAchievement(t, db, indicator.ID, 35, sameDay)

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(35)), "got %s", result.Value)
}

func TestCalculate_ManualNoAchievements(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Empty indicator", 10)

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Empty(t, result.Error)
	assert.True(t, result.Value.IsZero())
}

func TestCalculate_IndicatorNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)

	result := svc.CalculateIndicatorValue(9999, resultframework.CalcOptions{})
	assert.Contains(t, result.Error, "not found")
	assert.True(t, result.Value.IsZero())
}

func TestCalculate_SystemCount(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Households registered", 100)
	seedRule(t, db, indicator.ID, models.CalculationSystem, "count_households_registered", "")

	seedHouseholds(t, db, 3, nil, false)

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Empty(t, result.Error)
	assert.Equal(t, models.CalculationSystem, result.CalculationType)
	assert.True(t, result.Value.Equal(decimal.NewFromInt(3)), "got %s", result.Value)
}

func TestCalculate_SystemUnknownMethod(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Broken indicator", 100)
	seedRule(t, db, indicator.ID, models.CalculationSystem, "count_unicorns", "")

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Equal(t, "Unknown calculation method: count_unicorns", result.Error)
	assert.True(t, result.Value.IsZero())
	assert.Equal(t, models.CalculationSystem, result.CalculationType)
}

func TestCalculate_SystemLocationFilter(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)

	province := seedLocation(t, db, "Gitega", models.LocationProvince, nil)
	commune := seedLocation(t, db, "Makebuko", models.LocationCommune, province)
	colline := seedLocation(t, db, "Nyabiraba", models.LocationColline, commune)
	other := seedLocation(t, db, "Elsewhere", models.LocationColline, nil)

	seedHouseholds(t, db, 2, &colline.ID, false)
	seedHouseholds(t, db, 5, &other.ID, false)

	indicator := seedIndicator(t, db, nil, "Households registered", 100)
	seedRule(t, db, indicator.ID, models.CalculationSystem, "count_households_registered", "")

	// Filtering by the province resolves the whole subtree down to the
	// colline where the households live.
	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{
		LocationID: &province.ID,
	})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(2)), "got %s", result.Value)
}

func TestCalculate_MixedAdd(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Mixed indicator", 100)
	seedRule(t, db, indicator.ID, models.CalculationMixed, "count_households_registered", `{"combine_method": "add"}`)

	seedHouseholds(t, db, 3, nil, false)
	seedAchievement(t, db, indicator.ID, 5, date(2026, 1, 10))

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Empty(t, result.Error)
	assert.Equal(t, models.CalculationMixed, result.CalculationType)
	assert.True(t, result.Value.Equal(decimal.NewFromInt(8)), "got %s", result.Value)
	require.NotNil(t, result.SystemValue)
	require.NotNil(t, result.ManualValue)
	assert.True(t, result.SystemValue.Equal(decimal.NewFromInt(3)))
	assert.True(t, result.ManualValue.Equal(decimal.NewFromInt(5)))
}

func TestCalculate_MixedDefaultsToAdd(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Mixed indicator", 100)
	seedRule(t, db, indicator.ID, models.CalculationMixed, "count_households_registered", "")

	seedHouseholds(t, db, 3, nil, false)
	seedAchievement(t, db, indicator.ID, 5, date(2026, 1, 10))

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(8)), "got %s", result.Value)
}

func TestCalculate_MixedMax(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Mixed indicator", 100)
	seedRule(t, db, indicator.ID, models.CalculationMixed, "count_households_registered", `{"combine_method": "max"}`)

	seedHouseholds(t, db, 3, nil, false)
	seedAchievement(t, db, indicator.ID, 5, date(2026, 1, 10))

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(5)), "got %s", result.Value)
}

func TestCalculate_MixedReplace(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Mixed indicator", 100)
	seedRule(t, db, indicator.ID, models.CalculationMixed, "count_households_registered", `{"combine_method": "replace"}`)

	seedHouseholds(t, db, 3, nil, false)

	// Without a manual record the system value stands.
	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(3)), "got %s", result.Value)

	// A positive manual record replaces it.
	seedAchievement(t, db, indicator.ID, 7, date(2026, 1, 10))
	result = svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(7)), "got %s", result.Value)
}

func TestCalculate_MixedUnrecognizedCombineKeepsSystemValue(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Mixed indicator", 100)
	seedRule(t, db, indicator.ID, models.CalculationMixed, "count_households_registered", `{"combine_method": "divide"}`)

	seedHouseholds(t, db, 3, nil, false)
	seedAchievement(t, db, indicator.ID, 5, date(2026, 1, 10))

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Empty(t, result.Error)
	assert.True(t, result.Value.Equal(decimal.NewFromInt(3)), "got %s", result.Value)
}

func TestCalculate_MixedUnknownMethodContributesZero(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Mixed indicator", 100)
	seedRule(t, db, indicator.ID, models.CalculationMixed, "count_unicorns", "")

	seedAchievement(t, db, indicator.ID, 5, date(2026, 1, 10))

	// The bad method key is silent in MIXED: system contributes zero and
	// the default add yields the manual value.
	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Empty(t, result.Error)
	assert.True(t, result.Value.Equal(decimal.NewFromInt(5)), "got %s", result.Value)
	require.NotNil(t, result.SystemValue)
	assert.True(t, result.SystemValue.IsZero())
}

func TestCalculate_LatestActiveRuleWins(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Re-ruled indicator", 100)

	seedHouseholds(t, db, 3, nil, true)
	seedRule(t, db, indicator.ID, models.CalculationSystem, "count_households_registered", "")
	seedRule(t, db, indicator.ID, models.CalculationSystem, "count_vulnerable_households", "")

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(3)), "got %s", result.Value)

	// Deactivate both: the indicator falls back to MANUAL.
	require.NoError(t, db.Model(&models.IndicatorCalculationRule{}).
		Where("indicator_id = ?", indicator.ID).
		Update("is_active", false).Error)
	result = svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{})
	assert.Equal(t, models.CalculationManual, result.CalculationType)
}

func TestCalculate_DateFilterOnSystemMethod(t *testing.T) {
	db := newTestDB(t)
	svc := resultframework.NewService(db)
	indicator := seedIndicator(t, db, nil, "Households registered", 100)
	seedRule(t, db, indicator.ID, models.CalculationSystem, "count_households_registered", "")

	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Household{SocialID: "HH-JAN", RegistrationDate: &jan, Members: 4}).Error)
	require.NoError(t, db.Create(&models.Household{SocialID: "HH-MAR", RegistrationDate: &mar, Members: 4}).Error)

	result := svc.CalculateIndicatorValue(indicator.ID, resultframework.CalcOptions{
		DateFrom: date(2026, 1, 1),
		DateTo:   date(2026, 1, 31),
	})
	assert.True(t, result.Value.Equal(decimal.NewFromInt(1)), "got %s", result.Value)
}
