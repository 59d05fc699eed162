package resultframework_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"monitoring-portal/internal/database"
	"monitoring-portal/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One in-memory SQLite database per connection; pin the pool to a
	// single connection so migrations and queries see the same schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.InitSchema(db))
	return db
}

func seedSection(t *testing.T, db *gorm.DB, name string, order int) *models.Section {
	t.Helper()
	section := &models.Section{Name: name, SortOrder: order}
	require.NoError(t, db.Create(section).Error)
	return section
}

func seedIndicator(t *testing.T, db *gorm.DB, section *models.Section, name string, target int64) *models.Indicator {
	t.Helper()
	indicator := &models.Indicator{Name: name, Target: decimal.NewFromInt(target)}
	if section != nil {
		indicator.SectionID = &section.ID
	}
	require.NoError(t, db.Create(indicator).Error)
	return indicator
}

func seedRule(t *testing.T, db *gorm.DB, indicatorID uint, calcType models.CalculationType, method, config string) *models.IndicatorCalculationRule {
	t.Helper()
	rule := &models.IndicatorCalculationRule{
		IndicatorID: indicatorID,
		Type:        calcType,
		Method:      method,
		Config:      config,
		IsActive:    true,
	}
	require.NoError(t, db.Create(rule).Error)
	return rule
}

func seedAchievement(t *testing.T, db *gorm.DB, indicatorID uint, achieved int64, asOf *time.Time) *models.IndicatorAchievement {
	t.Helper()
	achievement := &models.IndicatorAchievement{
		IndicatorID: indicatorID,
		Achieved:    decimal.NewFromInt(achieved),
		Date:        asOf,
	}
	require.NoError(t, db.Create(achievement).Error)
	return achievement
}

func seedHouseholds(t *testing.T, db *gorm.DB, n int, locationID *uint, vulnerable bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&models.Household{
			SocialID:   fmt.Sprintf("HH-%d-%d", time.Now().UnixNano(), i),
			Members:    4,
			LocationID: locationID,
			Vulnerable: vulnerable,
		}).Error)
	}
}

func seedLocation(t *testing.T, db *gorm.DB, name string, locType models.LocationType, parent *models.Location) *models.Location {
	t.Helper()
	location := &models.Location{Name: name, Type: locType}
	if parent != nil {
		location.ParentID = &parent.ID
	}
	require.NoError(t, db.Create(location).Error)
	return location
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
