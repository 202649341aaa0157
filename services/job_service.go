// services/job_service.go
package services

import (
	"context"
	"time"

	"glasspro-backend/models"
	"glasspro-backend/pricing"
	"glasspro-backend/repositories"
	"glasspro-backend/store"
	"glasspro-backend/workorder"
)

// JobService runs the job form flow for one tenant: normalize the edit,
// recompute the price, reconcile it with the stored totals, then persist.
type JobService struct {
	jobs      *repositories.JobRepository
	customers *repositories.CustomerRepository
	profiles  *repositories.ProfileRepository
	now       func() time.Time
}

func NewJobService(session *store.Session) *JobService {
	return &JobService{
		jobs:      repositories.NewJobRepository(session),
		customers: repositories.NewCustomerRepository(session),
		profiles:  repositories.NewProfileRepository(session),
		now:       time.Now,
	}
}

// Reconcile recomputes the job's price with the given tax rate and lets the
// override policy decide whether the stored totals follow it.
func Reconcile(job *models.Job, taxRatePercent float64) bool {
	candidate := pricing.Compute(job.PricingInputs(), taxRatePercent).Total
	next, changed := pricing.Reconcile(job.Totals(), candidate)
	job.SetTotals(next)
	return changed
}

// draft builds a new job from a form without saving it. Totals typed into
// the form are applied after reconciliation and win.
func (s *JobService) draft(ctx context.Context, in models.JobInput) (models.Job, models.TenantProfile, error) {
	job, err := repositories.BuildJob(in, s.now())
	if err != nil {
		return models.Job{}, models.TenantProfile{}, err
	}
	if job.CustomerName == "" && job.CustomerID != "" {
		job.CustomerName = s.customerName(ctx, job.CustomerID)
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return models.Job{}, models.TenantProfile{}, err
	}
	Reconcile(&job, profile.SalesTaxRate)
	repositories.ApplyManualTotals(&job, in.TotalAmount, in.PaidAmount)
	return job, profile, nil
}

// edit applies a patch to a stored job without saving it. The price is only
// reconciled when a pricing field changed.
func (s *JobService) edit(ctx context.Context, id string, patch models.JobPatch) (before, after models.Job, profile models.TenantProfile, err error) {
	before, err = s.jobs.Get(ctx, id)
	if err != nil {
		return
	}
	after, err = repositories.ApplyJobPatch(before, patch)
	if err != nil {
		return
	}
	if patch.CustomerID != nil && patch.CustomerName == nil && after.CustomerID != before.CustomerID {
		after.CustomerName = s.customerName(ctx, after.CustomerID)
	}
	profile, err = s.profiles.Get(ctx)
	if err != nil {
		return
	}
	if patch.TouchesPricing() {
		Reconcile(&after, profile.SalesTaxRate)
	}
	repositories.ApplyManualTotals(&after, patch.TotalAmount, patch.PaidAmount)
	return
}

func (s *JobService) Create(ctx context.Context, in models.JobInput) (models.Job, error) {
	job, _, err := s.draft(ctx, in)
	if err != nil {
		return models.Job{}, err
	}
	return s.jobs.Create(ctx, job)
}

func (s *JobService) Update(ctx context.Context, id string, patch models.JobPatch) (models.Job, error) {
	before, after, _, err := s.edit(ctx, id, patch)
	if err != nil {
		return models.Job{}, err
	}
	return s.jobs.Save(ctx, before, after)
}

// Preview assembles the work order an unsaved form would produce.
func (s *JobService) Preview(ctx context.Context, in models.JobInput) (workorder.WorkOrder, error) {
	job, profile, err := s.draft(ctx, in)
	if err != nil {
		return workorder.WorkOrder{}, err
	}
	return workorder.Assemble(job, profile, s.customer(ctx, job.CustomerID)), nil
}

// PreviewUpdate assembles the work order a pending edit would produce.
func (s *JobService) PreviewUpdate(ctx context.Context, id string, patch models.JobPatch) (workorder.WorkOrder, error) {
	_, after, profile, err := s.edit(ctx, id, patch)
	if err != nil {
		return workorder.WorkOrder{}, err
	}
	return workorder.Assemble(after, profile, s.customer(ctx, after.CustomerID)), nil
}

// WorkOrder assembles the work order of a saved job from current state.
func (s *JobService) WorkOrder(ctx context.Context, id string) (workorder.WorkOrder, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return workorder.WorkOrder{}, err
	}
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return workorder.WorkOrder{}, err
	}
	return workorder.Assemble(job, profile, s.customer(ctx, job.CustomerID)), nil
}

// customer returns nil when the job has no customer or it was deleted.
func (s *JobService) customer(ctx context.Context, id string) *models.Customer {
	if id == "" {
		return nil
	}
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return nil
	}
	return &c
}

func (s *JobService) customerName(ctx context.Context, id string) string {
	if c := s.customer(ctx, id); c != nil {
		return c.Name
	}
	return ""
}
