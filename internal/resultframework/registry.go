package resultframework

import (
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"monitoring-portal/internal/models"
)

// MethodParams carries the filters every calculation method honors.
type MethodParams struct {
	DateFrom *time.Time
	DateTo   *time.Time
	// LocationIDs is the resolved colline subtree; empty means no filter.
	LocationIDs []uint
	// Config is the rule's calculation_config map, for method-specific
	// knobs (e.g. timeliness_days).
	Config map[string]interface{}
}

// MethodResult is what a calculation method produces: a numeric value plus
// optional metadata. Methods are read-only and degrade to a zero value on
// query failure instead of failing the snapshot.
type MethodResult struct {
	Value           decimal.Decimal
	GenderBreakdown *models.GenderBreakdown
}

// CalculationMethod aggregates one indicator value from the source tables.
type CalculationMethod func(db *gorm.DB, p MethodParams) MethodResult

// registry maps stable method keys (stored in calculation rules) to their
// implementations. Adding an indicator means adding a key and a function
// here; the dispatcher never changes.
var registry = map[string]CalculationMethod{
	"count_households_registered":        countHouseholdsRegistered,
	"count_vulnerable_households":        countVulnerableHouseholds,
	"count_beneficiaries_active":         countBeneficiariesActive,
	"count_female_beneficiaries":         countFemaleBeneficiaries,
	"count_beneficiary_individuals":      countBeneficiaryIndividuals,
	"sum_transfers_paid_amount":          sumTransfersPaidAmount,
	"sum_transfers_planned_amount":       sumTransfersPlannedAmount,
	"count_transfer_beneficiaries_paid":  countTransferBeneficiariesPaid,
	"count_transfer_beneficiaries_planned": countTransferBeneficiariesPlanned,
	"count_women_transfer_recipients":    countWomenTransferRecipients,
	"calculate_payment_completion_rate":  calculatePaymentCompletionRate,
	"calculate_payment_timeliness":       calculatePaymentTimeliness,
	"calculate_average_transfer_amount":  calculateAverageTransferAmount,
	"count_training_sessions":            countTrainingSessions,
	"count_training_participants":        countTrainingParticipants,
	"count_behavior_change_sessions":     countBehaviorChangeSessions,
	"count_behavior_change_participants": countBehaviorChangeParticipants,
	"count_microprojects":                countMicroProjects,
	"count_microproject_participants":    countMicroProjectParticipants,
	"calculate_female_participation_rate": calculateFemaleParticipationRate,
	"count_communes_covered":             countCommunesCovered,
	"count_provinces_covered":            countProvincesCovered,
}

// LookupMethod resolves a calculation method key.
func LookupMethod(name string) (CalculationMethod, bool) {
	m, ok := registry[name]
	return m, ok
}

// MethodNames lists the registered method keys in stable order.
func MethodNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// query helpers

func dateRange(q *gorm.DB, column string, p MethodParams) *gorm.DB {
	if p.DateFrom != nil {
		q = q.Where(column+" >= ?", *p.DateFrom)
	}
	if p.DateTo != nil {
		q = q.Where(column+" <= ?", *p.DateTo)
	}
	return q
}

func inLocations(q *gorm.DB, column string, p MethodParams) *gorm.DB {
	if len(p.LocationIDs) > 0 {
		q = q.Where(column+" IN ?", p.LocationIDs)
	}
	return q
}

func zeroResult() MethodResult {
	return MethodResult{Value: decimal.Zero}
}

func countResult(n int64) MethodResult {
	return MethodResult{Value: decimal.NewFromInt(n)}
}

func configInt(cfg map[string]interface{}, key string, fallback int) int {
	raw, ok := cfg[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// participantRow is the shape of the participant-sum aggregation.
type participantRow struct {
	Male   int64
	Female int64
	Twa    int64
}

func (r participantRow) breakdown() *models.GenderBreakdown {
	return &models.GenderBreakdown{
		Male:   r.Male,
		Female: r.Female,
		Twa:    r.Twa,
		Total:  r.Male + r.Female,
	}
}

// validatedSessions counts VALIDATED activity rows of one table.
func validatedSessions(db *gorm.DB, table string, p MethodParams) MethodResult {
	var n int64
	q := db.Table(table).Where("status = ?", models.ActivityValidated)
	q = dateRange(q, "date", p)
	q = inLocations(q, "location_id", p)
	if err := q.Count(&n).Error; err != nil {
		log.Printf("ResultFramework: session count on %s failed: %v", table, err)
		return zeroResult()
	}
	return countResult(n)
}

// validatedParticipants sums participant counts of VALIDATED rows of one
// table, attaching the gender breakdown.
func validatedParticipants(db *gorm.DB, table string, p MethodParams) MethodResult {
	var row participantRow
	q := db.Table(table).
		Select("COALESCE(SUM(male_participants),0) AS male, COALESCE(SUM(female_participants),0) AS female, COALESCE(SUM(twa_participants),0) AS twa").
		Where("status = ?", models.ActivityValidated)
	q = dateRange(q, "date", p)
	q = inLocations(q, "location_id", p)
	if err := q.Scan(&row).Error; err != nil {
		log.Printf("ResultFramework: participant sum on %s failed: %v", table, err)
		return zeroResult()
	}
	return MethodResult{
		Value:           decimal.NewFromInt(row.Male + row.Female),
		GenderBreakdown: row.breakdown(),
	}
}

// ---------------------------------------------------------------------------
// beneficiary registry

func countHouseholdsRegistered(db *gorm.DB, p MethodParams) MethodResult {
	var n int64
	q := db.Model(&models.Household{})
	q = dateRange(q, "registration_date", p)
	q = inLocations(q, "location_id", p)
	if err := q.Count(&n).Error; err != nil {
		log.Printf("ResultFramework: household count failed: %v", err)
		return zeroResult()
	}
	return countResult(n)
}

func countVulnerableHouseholds(db *gorm.DB, p MethodParams) MethodResult {
	var n int64
	q := db.Model(&models.Household{}).Where("vulnerable = ?", true)
	q = dateRange(q, "registration_date", p)
	q = inLocations(q, "location_id", p)
	if err := q.Count(&n).Error; err != nil {
		log.Printf("ResultFramework: vulnerable household count failed: %v", err)
		return zeroResult()
	}
	return countResult(n)
}

// beneficiaryQuery builds the ACTIVE group-beneficiary query joined to
// households for location filtering.
func beneficiaryQuery(db *gorm.DB, p MethodParams) *gorm.DB {
	q := db.Model(&models.GroupBeneficiary{}).
		Joins("JOIN households ON households.id = group_beneficiaries.household_id").
		Where("group_beneficiaries.status = ?", models.BeneficiaryActive)
	q = dateRange(q, "group_beneficiaries.enrolled_at", p)
	q = inLocations(q, "households.location_id", p)
	return q
}

func countBeneficiariesActive(db *gorm.DB, p MethodParams) MethodResult {
	var rows []struct {
		RecipientSex string
		N            int64
	}
	q := beneficiaryQuery(db, p).
		Select("group_beneficiaries.recipient_sex AS recipient_sex, COUNT(*) AS n").
		Group("group_beneficiaries.recipient_sex")
	if err := q.Scan(&rows).Error; err != nil {
		log.Printf("ResultFramework: active beneficiary count failed: %v", err)
		return zeroResult()
	}
	bd := &models.GenderBreakdown{}
	for _, r := range rows {
		switch r.RecipientSex {
		case models.SexMale:
			bd.Male += r.N
		case models.SexFemale:
			bd.Female += r.N
		}
		bd.Total += r.N
	}
	return MethodResult{Value: decimal.NewFromInt(bd.Total), GenderBreakdown: bd}
}

func countFemaleBeneficiaries(db *gorm.DB, p MethodParams) MethodResult {
	var n int64
	q := beneficiaryQuery(db, p).Where("group_beneficiaries.recipient_sex = ?", models.SexFemale)
	if err := q.Count(&n).Error; err != nil {
		log.Printf("ResultFramework: female beneficiary count failed: %v", err)
		return zeroResult()
	}
	return countResult(n)
}

func countBeneficiaryIndividuals(db *gorm.DB, p MethodParams) MethodResult {
	var total struct{ N int64 }
	q := beneficiaryQuery(db, p).Select("COALESCE(SUM(households.members),0) AS n")
	if err := q.Scan(&total).Error; err != nil {
		log.Printf("ResultFramework: beneficiary individuals sum failed: %v", err)
		return zeroResult()
	}
	return countResult(total.N)
}

// ---------------------------------------------------------------------------
// transfer ledger

func transferQuery(db *gorm.DB, p MethodParams) *gorm.DB {
	q := db.Model(&models.MonetaryTransfer{})
	q = dateRange(q, "planned_date", p)
	q = inLocations(q, "location_id", p)
	return q
}

func sumTransferColumn(db *gorm.DB, p MethodParams, column string) MethodResult {
	var row struct{ Total decimal.Decimal }
	q := transferQuery(db, p).Select("COALESCE(SUM(" + column + "),0) AS total")
	if err := q.Scan(&row).Error; err != nil {
		log.Printf("ResultFramework: transfer sum of %s failed: %v", column, err)
		return zeroResult()
	}
	return MethodResult{Value: row.Total}
}

func sumTransfersPaidAmount(db *gorm.DB, p MethodParams) MethodResult {
	return sumTransferColumn(db, p, "paid_amount")
}

func sumTransfersPlannedAmount(db *gorm.DB, p MethodParams) MethodResult {
	return sumTransferColumn(db, p, "planned_amount")
}

func countTransferBeneficiariesPaid(db *gorm.DB, p MethodParams) MethodResult {
	return sumTransferColumn(db, p, "paid_beneficiaries")
}

func countTransferBeneficiariesPlanned(db *gorm.DB, p MethodParams) MethodResult {
	return sumTransferColumn(db, p, "planned_beneficiaries")
}

func countWomenTransferRecipients(db *gorm.DB, p MethodParams) MethodResult {
	return sumTransferColumn(db, p, "paid_women")
}

func calculatePaymentCompletionRate(db *gorm.DB, p MethodParams) MethodResult {
	paid := sumTransferColumn(db, p, "paid_beneficiaries").Value
	planned := sumTransferColumn(db, p, "planned_beneficiaries").Value
	if !planned.IsPositive() {
		return zeroResult()
	}
	return MethodResult{Value: paid.Div(planned).Mul(decimal.NewFromInt(100)).Round(1)}
}

func calculatePaymentTimeliness(db *gorm.DB, p MethodParams) MethodResult {
	days := configInt(p.Config, "timeliness_days", 30)

	var transfers []models.MonetaryTransfer
	q := transferQuery(db, p).Where("paid_date IS NOT NULL")
	if err := q.Find(&transfers).Error; err != nil {
		log.Printf("ResultFramework: timeliness query failed: %v", err)
		return zeroResult()
	}
	if len(transfers) == 0 {
		return zeroResult()
	}
	onTime := 0
	for i := range transfers {
		if transfers[i].PaidWithin(days) {
			onTime++
		}
	}
	pct := decimal.NewFromInt(int64(onTime)).
		Div(decimal.NewFromInt(int64(len(transfers)))).
		Mul(decimal.NewFromInt(100)).Round(1)
	return MethodResult{Value: pct}
}

func calculateAverageTransferAmount(db *gorm.DB, p MethodParams) MethodResult {
	var n int64
	q := transferQuery(db, p).Where("paid_date IS NOT NULL")
	if err := q.Count(&n).Error; err != nil || n == 0 {
		return zeroResult()
	}
	total := sumTransferColumn(db, p, "paid_amount").Value
	return MethodResult{Value: total.Div(decimal.NewFromInt(n)).Round(2)}
}

// ---------------------------------------------------------------------------
// activity logs

func countTrainingSessions(db *gorm.DB, p MethodParams) MethodResult {
	return validatedSessions(db, models.Training{}.TableName(), p)
}

func countTrainingParticipants(db *gorm.DB, p MethodParams) MethodResult {
	return validatedParticipants(db, models.Training{}.TableName(), p)
}

func countBehaviorChangeSessions(db *gorm.DB, p MethodParams) MethodResult {
	return validatedSessions(db, models.BehaviorChangeSession{}.TableName(), p)
}

func countBehaviorChangeParticipants(db *gorm.DB, p MethodParams) MethodResult {
	return validatedParticipants(db, models.BehaviorChangeSession{}.TableName(), p)
}

func countMicroProjects(db *gorm.DB, p MethodParams) MethodResult {
	return validatedSessions(db, models.MicroProject{}.TableName(), p)
}

func countMicroProjectParticipants(db *gorm.DB, p MethodParams) MethodResult {
	return validatedParticipants(db, models.MicroProject{}.TableName(), p)
}

func calculateFemaleParticipationRate(db *gorm.DB, p MethodParams) MethodResult {
	var total participantRow
	for _, table := range []string{
		models.Training{}.TableName(),
		models.BehaviorChangeSession{}.TableName(),
	} {
		res := validatedParticipants(db, table, p)
		if res.GenderBreakdown != nil {
			total.Male += res.GenderBreakdown.Male
			total.Female += res.GenderBreakdown.Female
		}
	}
	all := total.Male + total.Female
	if all == 0 {
		return zeroResult()
	}
	pct := decimal.NewFromInt(total.Female).
		Div(decimal.NewFromInt(all)).
		Mul(decimal.NewFromInt(100)).Round(1)
	return MethodResult{Value: pct}
}

// ---------------------------------------------------------------------------
// geographic coverage

// coveredAncestors counts the distinct ancestors (of the given level) of
// collines that have households with active beneficiaries.
func coveredAncestors(db *gorm.DB, p MethodParams, level models.LocationType) MethodResult {
	var locationIDs []uint
	q := beneficiaryQuery(db, p).
		Where("households.location_id IS NOT NULL").
		Distinct("households.location_id")
	if err := q.Pluck("households.location_id", &locationIDs).Error; err != nil {
		log.Printf("ResultFramework: coverage query failed: %v", err)
		return zeroResult()
	}
	seen := make(map[uint]bool)
	for _, id := range locationIDs {
		if ancestor := ancestorOfType(db, id, level); ancestor != 0 {
			seen[ancestor] = true
		}
	}
	return countResult(int64(len(seen)))
}

func countCommunesCovered(db *gorm.DB, p MethodParams) MethodResult {
	return coveredAncestors(db, p, models.LocationCommune)
}

func countProvincesCovered(db *gorm.DB, p MethodParams) MethodResult {
	return coveredAncestors(db, p, models.LocationProvince)
}
