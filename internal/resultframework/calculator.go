package resultframework

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"monitoring-portal/internal/models"
)

// CalcOptions are the caller-supplied filters for one indicator
// calculation.
type CalcOptions struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	LocationID *uint
}

// CalcResult is the outcome of one indicator calculation. A calculation
// never fails hard: configuration mistakes and query errors surface as the
// Error field with a zero Value, so a snapshot build degrades per
// indicator instead of aborting.
type CalcResult struct {
	Value           decimal.Decimal         `json:"value"`
	CalculationType models.CalculationType  `json:"calculation_type"`
	SystemValue     *decimal.Decimal        `json:"system_value,omitempty"`
	ManualValue     *decimal.Decimal        `json:"manual_value,omitempty"`
	GenderBreakdown *models.GenderBreakdown `json:"gender_breakdown,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

func errorResult(calcType models.CalculationType, msg string) CalcResult {
	return CalcResult{
		Value:           decimal.Zero,
		CalculationType: calcType,
		Error:           msg,
	}
}

// CalculateIndicatorValue resolves the indicator's active calculation rule
// and dispatches to the MANUAL, SYSTEM or MIXED path. No rule means
// MANUAL. Every failure is converted into a zero-valued result with an
// error message; nothing propagates.
func (s *Service) CalculateIndicatorValue(indicatorID uint, opts CalcOptions) (result CalcResult) {
	return s.calculate(s.db, indicatorID, opts)
}

func (s *Service) calculate(db *gorm.DB, indicatorID uint, opts CalcOptions) (result CalcResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ResultFramework: calculation for indicator %d panicked: %v", indicatorID, r)
			result = errorResult(models.CalculationManual, fmt.Sprintf("%v", r))
		}
	}()

	var indicator models.Indicator
	if err := db.First(&indicator, indicatorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errorResult(models.CalculationManual, fmt.Sprintf("indicator %d not found", indicatorID))
		}
		return errorResult(models.CalculationManual, err.Error())
	}

	rule, err := s.activeRule(db, indicatorID)
	if err != nil {
		return errorResult(models.CalculationManual, err.Error())
	}

	params, err := s.methodParams(db, rule, opts)
	if err != nil {
		return errorResult(models.CalculationManual, err.Error())
	}

	switch {
	case rule == nil || rule.Type == models.CalculationManual:
		return s.manualValue(db, indicatorID, opts)

	case rule.Type == models.CalculationSystem:
		method, ok := LookupMethod(rule.Method)
		if !ok {
			return errorResult(models.CalculationSystem,
				fmt.Sprintf("Unknown calculation method: %s", rule.Method))
		}
		res := method(db, params)
		return CalcResult{
			Value:           res.Value,
			CalculationType: models.CalculationSystem,
			GenderBreakdown: res.GenderBreakdown,
		}

	default: // MIXED
		return s.mixedValue(db, rule, params, indicatorID, opts)
	}
}

// activeRule loads the indicator's active calculation rule. When several
// rows are flagged active only the most recent one is consulted.
func (s *Service) activeRule(db *gorm.DB, indicatorID uint) (*models.IndicatorCalculationRule, error) {
	var rule models.IndicatorCalculationRule
	err := db.Where("indicator_id = ? AND is_active = ?", indicatorID, true).
		Order("id DESC").
		First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// methodParams converts caller options into registry parameters, resolving
// the location subtree up front.
func (s *Service) methodParams(db *gorm.DB, rule *models.IndicatorCalculationRule, opts CalcOptions) (MethodParams, error) {
	params := MethodParams{
		DateFrom: opts.DateFrom,
		DateTo:   opts.DateTo,
	}
	if rule != nil {
		params.Config = rule.ConfigMap()
	}
	if opts.LocationID != nil {
		ids, err := ResolveSubtree(db, *opts.LocationID)
		if err != nil {
			return params, err
		}
		params.LocationIDs = ids
	}
	return params, nil
}

// manualValue is the MANUAL path: the most recent achievement matching the
// date filter wins, ties broken by insertion order; no achievement in
// range means zero.
func (s *Service) manualValue(db *gorm.DB, indicatorID uint, opts CalcOptions) CalcResult {
	achieved, found, err := s.latestAchievement(db, indicatorID, opts)
	if err != nil {
		return errorResult(models.CalculationManual, err.Error())
	}
	if !found {
		return CalcResult{Value: decimal.Zero, CalculationType: models.CalculationManual}
	}
	return CalcResult{Value: achieved, CalculationType: models.CalculationManual}
}

func (s *Service) latestAchievement(db *gorm.DB, indicatorID uint, opts CalcOptions) (decimal.Decimal, bool, error) {
	q := db.Model(&models.IndicatorAchievement{}).Where("indicator_id = ?", indicatorID)
	// The explicit as-of date governs filtering and ordering; rows without
	// one fall back to their creation timestamp.
	if opts.DateFrom != nil {
		q = q.Where("COALESCE(date, created_at) >= ?", *opts.DateFrom)
	}
	if opts.DateTo != nil {
		q = q.Where("COALESCE(date, created_at) <= ?", *opts.DateTo)
	}

	var achievement models.IndicatorAchievement
	err := q.Order("COALESCE(date, created_at) DESC, id DESC").First(&achievement).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return achievement.Achieved, true, nil
}

// mixedValue blends the registry value with the latest manual achievement
// per the rule's combine_method. An unknown method key contributes a system
// value of zero. A combine_method that is present but unrecognized keeps
// the system value and ignores the manual one.
func (s *Service) mixedValue(db *gorm.DB, rule *models.IndicatorCalculationRule, params MethodParams, indicatorID uint, opts CalcOptions) CalcResult {
	systemValue := decimal.Zero
	var breakdown *models.GenderBreakdown
	if method, ok := LookupMethod(rule.Method); ok {
		res := method(db, params)
		systemValue = res.Value
		breakdown = res.GenderBreakdown
	}

	manualValue, _, err := s.latestAchievement(db, indicatorID, opts)
	if err != nil {
		return errorResult(models.CalculationMixed, err.Error())
	}

	var final decimal.Decimal
	switch rule.CombineMethod() {
	case models.CombineAdd:
		final = systemValue.Add(manualValue)
	case models.CombineMax:
		if manualValue.GreaterThan(systemValue) {
			final = manualValue
		} else {
			final = systemValue
		}
	case models.CombineReplace:
		if manualValue.IsPositive() {
			final = manualValue
		} else {
			final = systemValue
		}
	default:
		final = systemValue
	}

	return CalcResult{
		Value:           final,
		CalculationType: models.CalculationMixed,
		SystemValue:     &systemValue,
		ManualValue:     &manualValue,
		GenderBreakdown: breakdown,
	}
}
