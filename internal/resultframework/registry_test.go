package resultframework_test

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"monitoring-portal/internal/models"
	"monitoring-portal/internal/resultframework"
)

func TestMethodNames(t *testing.T) {
	names := resultframework.MethodNames()
	assert.Len(t, names, 22)
	assert.True(t, sort.StringsAreSorted(names))

	for _, name := range names {
		_, ok := resultframework.LookupMethod(name)
		assert.True(t, ok, "method %s not resolvable", name)
	}

	_, ok := resultframework.LookupMethod("count_unicorns")
	assert.False(t, ok)
}

func runMethod(t *testing.T, db *gorm.DB, name string, p resultframework.MethodParams) resultframework.MethodResult {
	t.Helper()
	method, ok := resultframework.LookupMethod(name)
	require.True(t, ok, "method %s not registered", name)
	return method(db, p)
}

func TestVulnerableHouseholdCount(t *testing.T) {
	db := newTestDB(t)
	seedHouseholds(t, db, 4, nil, false)
	seedHouseholds(t, db, 2, nil, true)

	res := runMethod(t, db, "count_vulnerable_households", resultframework.MethodParams{})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(2)), "got %s", res.Value)
}

var beneficiarySeq int

func seedBeneficiary(t *testing.T, db *gorm.DB, locationID *uint, status models.BeneficiaryStatus, recipientSex string, members int) {
	t.Helper()
	beneficiarySeq++
	household := models.Household{
		SocialID:   fmt.Sprintf("HH-BEN-%d", beneficiarySeq),
		LocationID: locationID,
		Members:    members,
	}
	require.NoError(t, db.Create(&household).Error)
	require.NoError(t, db.Create(&models.GroupBeneficiary{
		HouseholdID:  household.ID,
		Status:       status,
		RecipientSex: recipientSex,
	}).Error)
}

func TestActiveBeneficiaries_GenderBreakdown(t *testing.T) {
	db := newTestDB(t)
	seedBeneficiary(t, db, nil, models.BeneficiaryActive, models.SexFemale, 5)
	seedBeneficiary(t, db, nil, models.BeneficiaryActive, models.SexFemale, 3)
	seedBeneficiary(t, db, nil, models.BeneficiaryActive, models.SexMale, 4)
	seedBeneficiary(t, db, nil, models.BeneficiarySuspended, models.SexFemale, 2)

	res := runMethod(t, db, "count_beneficiaries_active", resultframework.MethodParams{})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(3)), "got %s", res.Value)
	require.NotNil(t, res.GenderBreakdown)
	assert.Equal(t, int64(2), res.GenderBreakdown.Female)
	assert.Equal(t, int64(1), res.GenderBreakdown.Male)
	assert.Equal(t, int64(3), res.GenderBreakdown.Total)

	females := runMethod(t, db, "count_female_beneficiaries", resultframework.MethodParams{})
	assert.True(t, females.Value.Equal(decimal.NewFromInt(2)))

	// Individuals sum household members of active enrollments only.
	individuals := runMethod(t, db, "count_beneficiary_individuals", resultframework.MethodParams{})
	assert.True(t, individuals.Value.Equal(decimal.NewFromInt(12)), "got %s", individuals.Value)
}

func seedTransfer(t *testing.T, db *gorm.DB, planned, paid int, paidDays *int, amount int64) {
	t.Helper()
	plannedDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	transfer := models.MonetaryTransfer{
		PlannedDate:          plannedDate,
		PlannedBeneficiaries: planned,
		PaidBeneficiaries:    paid,
		PaidAmount:           decimal.NewFromInt(amount),
		PlannedAmount:        decimal.NewFromInt(amount),
	}
	if paidDays != nil {
		paidDate := plannedDate.AddDate(0, 0, *paidDays)
		transfer.PaidDate = &paidDate
	}
	require.NoError(t, db.Create(&transfer).Error)
}

func TestPaymentCompletionRate(t *testing.T) {
	db := newTestDB(t)
	five, ninety := 5, 90
	seedTransfer(t, db, 100, 80, &five, 800)
	seedTransfer(t, db, 100, 70, &ninety, 700)

	res := runMethod(t, db, "calculate_payment_completion_rate", resultframework.MethodParams{})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(75)), "got %s", res.Value)
}

func TestPaymentCompletionRate_NoPlanned(t *testing.T) {
	db := newTestDB(t)
	res := runMethod(t, db, "calculate_payment_completion_rate", resultframework.MethodParams{})
	assert.True(t, res.Value.IsZero())
}

func TestPaymentTimeliness(t *testing.T) {
	db := newTestDB(t)
	ten, ninety := 10, 90
	seedTransfer(t, db, 100, 100, &ten, 1000)    // on time
	seedTransfer(t, db, 100, 100, &ninety, 1000) // late
	seedTransfer(t, db, 100, 0, nil, 0)          // unpaid, not counted

	res := runMethod(t, db, "calculate_payment_timeliness", resultframework.MethodParams{})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(50)), "got %s", res.Value)

	// A wider window from the rule config counts the late one as on time.
	res = runMethod(t, db, "calculate_payment_timeliness", resultframework.MethodParams{
		Config: map[string]interface{}{"timeliness_days": float64(120)},
	})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(100)), "got %s", res.Value)
}

func TestAverageTransferAmount(t *testing.T) {
	db := newTestDB(t)
	ten := 10
	seedTransfer(t, db, 10, 10, &ten, 300)
	seedTransfer(t, db, 10, 10, &ten, 500)
	seedTransfer(t, db, 10, 0, nil, 999) // unpaid, excluded from the average

	res := runMethod(t, db, "calculate_average_transfer_amount", resultframework.MethodParams{})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(400)), "got %s", res.Value)
}

func seedTraining(t *testing.T, db *gorm.DB, status models.ActivityStatus, male, female, twa int) {
	t.Helper()
	require.NoError(t, db.Create(&models.Training{
		Date:               time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		MaleParticipants:   male,
		FemaleParticipants: female,
		TwaParticipants:    twa,
		Status:             status,
	}).Error)
}

func TestTrainingCounts_OnlyValidated(t *testing.T) {
	db := newTestDB(t)
	seedTraining(t, db, models.ActivityValidated, 10, 30, 2)
	seedTraining(t, db, models.ActivityValidated, 5, 15, 0)
	seedTraining(t, db, models.ActivityPending, 100, 100, 0)
	seedTraining(t, db, models.ActivityRejected, 100, 100, 0)

	sessions := runMethod(t, db, "count_training_sessions", resultframework.MethodParams{})
	assert.True(t, sessions.Value.Equal(decimal.NewFromInt(2)), "got %s", sessions.Value)

	participants := runMethod(t, db, "count_training_participants", resultframework.MethodParams{})
	assert.True(t, participants.Value.Equal(decimal.NewFromInt(60)), "got %s", participants.Value)
	require.NotNil(t, participants.GenderBreakdown)
	assert.Equal(t, int64(45), participants.GenderBreakdown.Female)
	assert.Equal(t, int64(2), participants.GenderBreakdown.Twa)
}

func TestFemaleParticipationRate(t *testing.T) {
	db := newTestDB(t)
	seedTraining(t, db, models.ActivityValidated, 20, 60, 0)
	require.NoError(t, db.Create(&models.BehaviorChangeSession{
		Date:               time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		MaleParticipants:   10,
		FemaleParticipants: 10,
		Status:             models.ActivityValidated,
	}).Error)

	// 70 women out of 100 participants across both activity logs.
	res := runMethod(t, db, "calculate_female_participation_rate", resultframework.MethodParams{})
	assert.True(t, res.Value.Equal(decimal.NewFromInt(70)), "got %s", res.Value)
}

func TestFemaleParticipationRate_NoData(t *testing.T) {
	db := newTestDB(t)
	res := runMethod(t, db, "calculate_female_participation_rate", resultframework.MethodParams{})
	assert.True(t, res.Value.IsZero())
}

func TestGeographicCoverage(t *testing.T) {
	db := newTestDB(t)

	province := seedLocation(t, db, "Gitega", models.LocationProvince, nil)
	communeA := seedLocation(t, db, "Makebuko", models.LocationCommune, province)
	communeB := seedLocation(t, db, "Itaba", models.LocationCommune, province)
	collineA := seedLocation(t, db, "Nyabiraba", models.LocationColline, communeA)
	collineB := seedLocation(t, db, "Kibimba", models.LocationColline, communeB)
	// Colline with no beneficiaries.
	seedLocation(t, db, "Rutegama", models.LocationColline, communeA)

	seedBeneficiary(t, db, &collineA.ID, models.BeneficiaryActive, models.SexFemale, 4)
	seedBeneficiary(t, db, &collineB.ID, models.BeneficiaryActive, models.SexMale, 4)

	communes := runMethod(t, db, "count_communes_covered", resultframework.MethodParams{})
	assert.True(t, communes.Value.Equal(decimal.NewFromInt(2)), "got %s", communes.Value)

	provinces := runMethod(t, db, "count_provinces_covered", resultframework.MethodParams{})
	assert.True(t, provinces.Value.Equal(decimal.NewFromInt(1)), "got %s", provinces.Value)
}

func TestResolveSubtree(t *testing.T) {
	db := newTestDB(t)

	province := seedLocation(t, db, "Gitega", models.LocationProvince, nil)
	commune := seedLocation(t, db, "Makebuko", models.LocationCommune, province)
	colline := seedLocation(t, db, "Nyabiraba", models.LocationColline, commune)
	seedLocation(t, db, "Ngozi", models.LocationProvince, nil)

	ids, err := resultframework.ResolveSubtree(db, province.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{province.ID, commune.ID, colline.ID}, ids)

	leaf, err := resultframework.ResolveSubtree(db, colline.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{colline.ID}, leaf)
}
