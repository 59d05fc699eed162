package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"monitoring-portal/internal/config"
	"monitoring-portal/internal/database"
	"monitoring-portal/internal/models"
	"monitoring-portal/internal/report"
	"monitoring-portal/internal/resultframework"
)

// Command-line runner for the results framework. Actions:
//
//	calculate  compute the current value of one indicator
//	snapshot   build (and optionally finalize) a snapshot
//	document   render a snapshot to an Excel workbook
//	setup      seed a starter framework into an empty database
//	all        snapshot then document in one run
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		action      = flag.String("action", "", "calculate | snapshot | document | setup | all")
		indicatorID = flag.Uint("indicator", 0, "indicator id for the calculate action")
		snapshotID  = flag.Uint("snapshot", 0, "snapshot id for the document action (0 = latest)")
		name        = flag.String("name", "", "snapshot name")
		dateFrom    = flag.String("from", "", "period start (YYYY-MM-DD)")
		dateTo      = flag.String("to", "", "period end (YYYY-MM-DD)")
		finalize    = flag.Bool("finalize", false, "finalize the snapshot after building")
		output      = flag.String("output", "", "output path for the document action")
		createdBy   = flag.String("user", "cli", "user recorded on created snapshots")
	)
	flag.Parse()

	if *action == "" {
		flag.Usage()
		os.Exit(2)
	}

	configPath := getEnv("CONFIG_PATH", "/app/config/portal_config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("CLI: using default config (%v)", err)
		cfg = config.DefaultConfig()
	}

	gormDB, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("CLI: database connection failed: %v", err)
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("CLI: schema init failed: %v", err)
	}

	framework := resultframework.NewService(gormDB.DB())
	framework.SetBuildTimeout(cfg.Snapshot.BuildTimeout())

	from, err := parseDateFlag(*dateFrom)
	if err != nil {
		log.Fatalf("CLI: invalid -from: %v", err)
	}
	to, err := parseDateFlag(*dateTo)
	if err != nil {
		log.Fatalf("CLI: invalid -to: %v", err)
	}

	switch *action {
	case "calculate":
		if *indicatorID == 0 {
			log.Fatal("CLI: calculate requires -indicator")
		}
		result := framework.CalculateIndicatorValue(*indicatorID, resultframework.CalcOptions{
			DateFrom: from,
			DateTo:   to,
		})
		printJSON(result)

	case "snapshot":
		snapshot := runSnapshot(framework, *name, *createdBy, from, to, *finalize)
		printJSON(snapshot)

	case "document":
		path := runDocument(framework, *snapshotID, *output, cfg.Reports.OutputDir)
		log.Printf("CLI: workbook written to %s", path)

	case "setup":
		if err := seedFramework(gormDB); err != nil {
			log.Fatalf("CLI: setup failed: %v", err)
		}
		log.Println("CLI: starter framework created")

	case "all":
		snapshot := runSnapshot(framework, *name, *createdBy, from, to, *finalize)
		path := runDocument(framework, snapshot.ID, *output, cfg.Reports.OutputDir)
		log.Printf("CLI: snapshot %d written to %s", snapshot.ID, path)

	default:
		log.Fatalf("CLI: unknown action %q", *action)
	}
}

func openDatabase(cfg *config.Config) (*database.GormDB, error) {
	dbType := cfg.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "postgres" {
		pg := cfg.Database.Postgres
		return database.NewPostgresDB(
			getEnvOrConfig(pg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portString(pg.Port), "DB_PORT", "5432"),
			getEnvOrConfig(pg.User, "DB_USER", "portal_user"),
			getEnvOrConfig(pg.Password, "DB_PASSWORD", "portal_pass"),
			getEnvOrConfig(pg.Database, "DB_NAME", "portal_db"),
			getEnvOrConfig(pg.SSLMode, "DB_SSLMODE", "disable"),
		)
	}

	my := cfg.Database.MySQL
	return database.NewGormDB(
		getEnvOrConfig(my.Host, "DB_HOST", "mysql"),
		getEnvOrConfig(portString(my.Port), "DB_PORT", "3306"),
		getEnvOrConfig(my.User, "DB_USER", "portal_user"),
		getEnvOrConfig(my.Password, "DB_PASSWORD", "portal_pass"),
		getEnvOrConfig(my.Database, "DB_NAME", "portal_db"),
	)
}

func runSnapshot(framework *resultframework.Service, name, user string, from, to *time.Time, finalize bool) *models.ResultFrameworkSnapshot {
	if name == "" {
		name = fmt.Sprintf("Snapshot %s", time.Now().Format("2006-01-02 15:04"))
	}
	snapshot, err := framework.CreateSnapshot(name, "", user, from, to)
	if err != nil {
		log.Fatalf("CLI: snapshot build failed: %v", err)
	}
	log.Printf("CLI: created snapshot %d (%s)", snapshot.ID, snapshot.Name)

	if finalize {
		snapshot, err = framework.FinalizeSnapshot(snapshot.ID)
		if err != nil {
			log.Fatalf("CLI: finalize failed: %v", err)
		}
		log.Printf("CLI: snapshot %d finalized", snapshot.ID)
	}
	return snapshot
}

func runDocument(framework *resultframework.Service, snapshotID uint, output, reportsDir string) string {
	var snapshot *models.ResultFrameworkSnapshot
	var err error
	if snapshotID == 0 {
		snapshot, err = framework.LatestSnapshot()
	} else {
		snapshot, err = framework.GetSnapshot(snapshotID)
	}
	if err != nil {
		log.Fatalf("CLI: snapshot lookup failed: %v", err)
	}

	if output == "" {
		if err := os.MkdirAll(reportsDir, 0o755); err != nil {
			log.Fatalf("CLI: cannot create reports dir: %v", err)
		}
		output = fmt.Sprintf("%s/results-framework-%d-%s.xlsx", reportsDir, snapshot.ID, time.Now().Format("20060102"))
	}
	if err := report.WriteSnapshot(snapshot, output); err != nil {
		log.Fatalf("CLI: document render failed: %v", err)
	}
	return output
}

// seedFramework creates a small starter framework so a fresh install has
// something to snapshot.
func seedFramework(gormDB *database.GormDB) error {
	db := gormDB.DB()

	var count int64
	if err := db.Model(&models.Section{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("database already contains %d sections, refusing to seed", count)
	}

	sections := []struct {
		name       string
		indicators []seedIndicator
	}{
		{
			name: "Social safety net",
			indicators: []seedIndicator{
				{"Households registered in the social registry", "PBC-1", 120000, "SYSTEM", "count_households_registered", ""},
				{"Active beneficiary households", "PBC-2", 56000, "SYSTEM", "count_beneficiaries_active", ""},
				{"Transfers paid on time", "PBC-3", 90, "SYSTEM", "calculate_payment_timeliness", `{"timeliness_days": 30}`},
			},
		},
		{
			name: "Livelihoods and human capital",
			indicators: []seedIndicator{
				{"Beneficiaries trained on income generating activities", "PBC-4", 30000, "SYSTEM", "count_training_participants", ""},
				{"Micro-projects financed", "PBC-5", 1500, "SYSTEM", "count_microprojects", ""},
				{"Share of women among participants", "PBC-6", 60, "MIXED", "calculate_female_participation_rate", `{"combine_method": "replace"}`},
			},
		},
		{
			name: "Project management",
			indicators: []seedIndicator{
				{"Communes covered by the programme", "", 80, "SYSTEM", "count_communes_covered", ""},
				{"Grievances resolved within standard", "", 95, "MANUAL", "", ""},
			},
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i, s := range sections {
			section := models.Section{Name: s.name, SortOrder: i + 1}
			if err := tx.Create(&section).Error; err != nil {
				return err
			}
			for _, in := range s.indicators {
				indicator := models.Indicator{
					SectionID: &section.ID,
					Name:      in.name,
					PBCCode:   in.pbcCode,
					Target:    decimal.NewFromInt(in.target),
				}
				if err := tx.Create(&indicator).Error; err != nil {
					return err
				}
				if in.calcType == "" || in.calcType == "MANUAL" {
					continue
				}
				rule := models.IndicatorCalculationRule{
					IndicatorID: indicator.ID,
					Type:        models.CalculationType(in.calcType),
					Method:      in.method,
					Config:      in.config,
					IsActive:    true,
				}
				if err := tx.Create(&rule).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

type seedIndicator struct {
	name     string
	pbcCode  string
	target   int64
	calcType string
	method   string
	config   string
}

func parseDateFlag(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("CLI: encode failed: %v", err)
	}
	fmt.Println(string(out))
}

func portString(port int) string {
	if port > 0 {
		return fmt.Sprintf("%d", port)
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
