// services/archive_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"glasspro-backend/models"
	"glasspro-backend/repositories"
	"glasspro-backend/store"
	"glasspro-backend/utils"
)

const DefaultArchiveSchedule = "0 3 * * *"

// ArchiveService moves completed jobs to archived once their date is old
// enough, for every tenant.
type ArchiveService struct {
	store     store.SyncedStore
	schedule  string
	afterDays int
	cron      *cron.Cron
	now       func() time.Time
}

func NewArchiveService(st store.SyncedStore, schedule string, afterDays int) *ArchiveService {
	if schedule == "" {
		schedule = DefaultArchiveSchedule
	}
	return &ArchiveService{
		store:     st,
		schedule:  schedule,
		afterDays: afterDays,
		now:       time.Now,
	}
}

func (s *ArchiveService) StartScheduler() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.SweepAll(ctx)
	}); err != nil {
		return fmt.Errorf("invalid archive schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	utils.Logger.Infof("Archive scheduler started (%s, after %d days)", s.schedule, s.afterDays)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *ArchiveService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SweepAll archives eligible jobs of every tenant and returns how many
// jobs changed. A failing tenant is logged and skipped.
func (s *ArchiveService) SweepAll(ctx context.Context) int {
	utils.Logger.Info("Starting archive sweep...")
	tenants, err := s.store.Tenants(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list tenants")
		return 0
	}

	total := 0
	for _, tenantID := range tenants {
		if tenantID == store.SystemTenant {
			continue
		}
		n, err := s.SweepTenant(ctx, tenantID)
		if err != nil {
			utils.Logger.WithError(err).Errorf("Tenant %s: archive sweep failed", tenantID)
		}
		total += n
	}
	utils.Logger.Infof("Archive sweep completed, %d jobs archived", total)
	return total
}

func (s *ArchiveService) SweepTenant(ctx context.Context, tenantID string) (int, error) {
	jobs := repositories.NewJobRepository(store.NewSession(tenantID, s.store))
	completed, err := jobs.ListByStatus(ctx, models.JobCompleted)
	if err != nil {
		return 0, err
	}

	now := s.now()
	archived := 0
	for _, job := range completed {
		if !s.due(job, now) {
			continue
		}
		if err := jobs.SetStatus(ctx, job.ID, models.JobArchived); err != nil {
			return archived, fmt.Errorf("archive job %s: %w", job.ID, err)
		}
		archived++
	}
	return archived, nil
}

func (s *ArchiveService) due(job models.Job, now time.Time) bool {
	if job.Date.IsZero() {
		return false
	}
	return utils.DaysBetween(job.Date, now) >= s.afterDays
}
