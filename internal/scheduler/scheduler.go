package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"monitoring-portal/internal/config"
	"monitoring-portal/internal/resultframework"
)

// Scheduler builds the periodic reporting snapshot. One daily cron entry;
// per-indicator failures are embedded in the snapshot by the service, so
// a scheduled run only fails on infrastructure errors.
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	framework *resultframework.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(db *gorm.DB, framework *resultframework.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		db:        db,
		framework: framework,
		config:    cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Snapshot.AutoRunEnabled {
		log.Println("Scheduler: Automatic snapshots are disabled in configuration")
		return nil
	}

	// Parse daily run time (HH:MM format in config)
	cronSpec := s.parseDailyRunTime(s.config.Snapshot.AutoRunTime)

	// Add daily snapshot job
	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting automatic snapshot build...")
		if err := s.runAutomaticSnapshot(); err != nil {
			log.Printf("Scheduler: Automatic snapshot failed: %v", err)
		} else {
			log.Println("Scheduler: Automatic snapshot completed successfully")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily snapshot at %s (cron: %s)", s.config.Snapshot.AutoRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// runAutomaticSnapshot builds a snapshot covering the start of the current
// month up to now, named after the run date.
func (s *Scheduler) runAutomaticSnapshot() error {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	name := fmt.Sprintf("Automatic snapshot %s", now.Format("2006-01-02"))
	description := fmt.Sprintf("Scheduled results-framework snapshot covering %s to %s",
		from.Format("2006-01-02"), now.Format("2006-01-02"))

	createdBy := s.config.Snapshot.AutoCreatedBy
	if createdBy == "" {
		createdBy = "scheduler"
	}

	snapshot, err := s.framework.CreateSnapshot(name, description, createdBy, &from, &now)
	if err != nil {
		return err
	}

	log.Printf("Scheduler: Stored snapshot %d (%s)", snapshot.ID, snapshot.Name)
	return nil
}

// RunNow immediately executes the snapshot job (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - building snapshot...")
	return s.runAutomaticSnapshot()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	// timeStr is expected to be in "HH:MM" format
	// Convert to cron format: "minute hour * * *"
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 02:00", timeStr)
	return "0 2 * * *"
}
