package repositories

import (
	"context"
	"strings"
	"time"

	"glasspro-backend/models"
	"glasspro-backend/pricing"
	"glasspro-backend/store"
	"glasspro-backend/utils"
)

type JobRepository struct {
	session *store.Session
}

func NewJobRepository(session *store.Session) *JobRepository {
	return &JobRepository{session: session}
}

// jobRecord is the stored shape of a job. Older documents may hold numbers
// as text or miss fields entirely.
type jobRecord struct {
	CustomerID        string            `json:"customerId"`
	CustomerName      string            `json:"customerName"`
	Date              string            `json:"date"`
	Status            string            `json:"status"`
	GlassType         string            `json:"glassType"`
	DamageType        string            `json:"damageType"`
	RepairReplacement string            `json:"repairReplacement"`
	Cost              pricing.RawNumber `json:"cost"`
	Quantity          pricing.RawNumber `json:"quantity"`
	DiscountType      string            `json:"discountType"`
	DiscountValue     pricing.RawNumber `json:"discountValue"`
	ApplySalesTax     *bool             `json:"applySalesTax"`
	Notes             string            `json:"notes"`
	TotalAmount       pricing.RawNumber `json:"totalAmount"`
	PaidAmount        pricing.RawNumber `json:"paidAmount"`
}

func decodeJob(doc store.Document) (models.Job, error) {
	var rec jobRecord
	if err := decodeData(doc.Data, &rec); err != nil {
		return models.Job{}, err
	}

	status, ok := models.ParseJobStatus(rec.Status)
	if !ok {
		status = models.JobActive
	}
	applyTax := true
	if rec.ApplySalesTax != nil {
		applyTax = *rec.ApplySalesTax
	}
	var date time.Time
	if strings.TrimSpace(rec.Date) != "" {
		if d, err := utils.ParseDate(rec.Date); err == nil {
			date = d
		}
	}

	return models.Job{
		ID:                doc.ID,
		CustomerID:        rec.CustomerID,
		CustomerName:      rec.CustomerName,
		Date:              date,
		Status:            status,
		GlassType:         rec.GlassType,
		DamageType:        rec.DamageType,
		RepairReplacement: rec.RepairReplacement,
		Cost:              rec.Cost.Amount(),
		Quantity:          rec.Quantity.Quantity(),
		DiscountType:      pricing.ParseDiscountType(rec.DiscountType),
		DiscountValue:     rec.DiscountValue.Amount(),
		ApplySalesTax:     applyTax,
		Notes:             rec.Notes,
		TotalAmount:       rec.TotalAmount.Float(0),
		PaidAmount:        rec.PaidAmount.Float(0),
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}, nil
}

func jobFields(job models.Job) map[string]any {
	return map[string]any{
		"customerId":        job.CustomerID,
		"customerName":      job.CustomerName,
		"date":              job.Date.UTC(),
		"status":            string(job.Status),
		"glassType":         job.GlassType,
		"damageType":        job.DamageType,
		"repairReplacement": job.RepairReplacement,
		"cost":              job.Cost,
		"quantity":          job.Quantity,
		"discountType":      string(job.DiscountType),
		"discountValue":     job.DiscountValue,
		"applySalesTax":     job.ApplySalesTax,
		"notes":             job.Notes,
		"totalAmount":       job.TotalAmount,
		"paidAmount":        job.PaidAmount,
	}
}

// changedFields returns the entries of after that differ from before.
func changedFields(before, after map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range after {
		if !sameValue(before[k], v) {
			out[k] = v
		}
	}
	return out
}

func sameValue(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA || okB {
		return okA && okB && ta.Equal(tb)
	}
	return a == b
}

func (r *JobRepository) Create(ctx context.Context, job models.Job) (models.Job, error) {
	if !r.session.Active() {
		return models.Job{}, store.ErrNoTenant
	}
	id, err := r.session.Store.Create(ctx, r.session.TenantID, store.CollectionJobs, jobFields(job))
	if err != nil {
		return models.Job{}, err
	}
	return r.Get(ctx, id)
}

func (r *JobRepository) Get(ctx context.Context, id string) (models.Job, error) {
	if !r.session.Active() {
		return models.Job{}, store.ErrNotFound
	}
	doc, err := r.session.Store.Get(ctx, r.session.TenantID, store.CollectionJobs, id)
	if err != nil {
		return models.Job{}, err
	}
	return decodeJob(doc)
}

// List returns the tenant's jobs in creation order.
func (r *JobRepository) List(ctx context.Context) ([]models.Job, error) {
	if !r.session.Active() {
		return []models.Job{}, nil
	}
	docs, err := r.session.Store.List(ctx, r.session.TenantID, store.CollectionJobs)
	if err != nil {
		return nil, err
	}
	return decodeAll(store.Snapshot{TenantID: r.session.TenantID, Collection: store.CollectionJobs, Documents: docs}, decodeJob), nil
}

func (r *JobRepository) ListByStatus(ctx context.Context, status models.JobStatus) ([]models.Job, error) {
	jobs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByStatus(jobs, status), nil
}

// FilterByStatus keeps the jobs with the given status, in order.
func FilterByStatus(jobs []models.Job, status models.JobStatus) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	return out
}

// Save writes the fields of after that differ from before. Fields another
// writer changed meanwhile and this edit did not touch are left alone.
func (r *JobRepository) Save(ctx context.Context, before, after models.Job) (models.Job, error) {
	if !r.session.Active() {
		return models.Job{}, store.ErrNoTenant
	}
	fields := changedFields(jobFields(before), jobFields(after))
	if len(fields) > 0 {
		if err := r.session.Store.Update(ctx, r.session.TenantID, store.CollectionJobs, before.ID, fields); err != nil {
			return models.Job{}, err
		}
	}
	return r.Get(ctx, before.ID)
}

func (r *JobRepository) SetStatus(ctx context.Context, id string, status models.JobStatus) error {
	if !r.session.Active() {
		return store.ErrNoTenant
	}
	return r.session.Store.Update(ctx, r.session.TenantID, store.CollectionJobs, id, map[string]any{"status": string(status)})
}

func (r *JobRepository) Delete(ctx context.Context, id string) error {
	if !r.session.Active() {
		return store.ErrNoTenant
	}
	return r.session.Store.Delete(ctx, r.session.TenantID, store.CollectionJobs, id)
}

// Watch streams the full job list after every change.
func (r *JobRepository) Watch(ctx context.Context) (*Stream[models.Job], error) {
	if !r.session.Active() {
		return nil, store.ErrNoTenant
	}
	session := r.session
	open := func(ctx context.Context) (*store.Subscription, error) {
		return session.Store.Subscribe(ctx, session.TenantID, store.CollectionJobs)
	}
	return newStream(ctx, open, func(snap store.Snapshot) []models.Job {
		return decodeAll(snap, decodeJob)
	}), nil
}
