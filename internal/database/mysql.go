package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"monitoring-portal/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return InitSchema(gdb.db)
}

// InitSchema migrates every table of the monitoring plugin.
func InitSchema(db *gorm.DB) error {
	// AutoMigrate will create tables if they don't exist
	return db.AutoMigrate(
		&models.Location{},
		&models.Household{},
		&models.GroupBeneficiary{},
		&models.MonetaryTransfer{},
		&models.Training{},
		&models.BehaviorChangeSession{},
		&models.MicroProject{},
		&models.Section{},
		&models.Indicator{},
		&models.IndicatorAchievement{},
		&models.IndicatorCalculationRule{},
		&models.ResultFrameworkSnapshot{},
		&models.DeleteLog{},
	)
}
