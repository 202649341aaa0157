// Package workorder turns a job and its tenant profile into the
// customer-facing invoice summary.
package workorder

import (
	"strings"
	"time"

	"glasspro-backend/models"
	"glasspro-backend/pricing"
)

type Company struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type Customer struct {
	Label   string `json:"label"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// WorkOrder is a snapshot; it is rebuilt from the job and profile whenever
// either changes and is never stored.
type WorkOrder struct {
	JobID         string           `json:"jobId,omitempty"`
	Company       Company          `json:"company"`
	Customer      Customer         `json:"customer"`
	JobLine       string           `json:"jobLine"`
	Date          time.Time        `json:"date"`
	Notes         string           `json:"notes"`
	Status        models.JobStatus `json:"status"`
	Quantity      int              `json:"quantity"`
	TaxRate       float64          `json:"taxRate"`
	ServiceAmount float64          `json:"serviceAmount"`
	TaxAmount     float64          `json:"taxAmount"`
	Total         float64          `json:"total"`
	Paid          float64          `json:"paid"`
	BalanceDue    float64          `json:"balanceDue"`
}

// Assemble builds the work order. Service and tax amounts come from the
// job's pricing inputs; total and paid are the job's stored values, which
// may be manual overrides. customer may be nil when the record is gone.
func Assemble(job models.Job, profile models.TenantProfile, customer *models.Customer) WorkOrder {
	breakdown := pricing.Compute(job.PricingInputs(), profile.SalesTaxRate)

	wo := WorkOrder{
		JobID: job.ID,
		Company: Company{
			Name:    profile.CompanyName,
			Address: profile.Address,
			Phone:   profile.Phone,
			Email:   profile.Email,
		},
		Customer:      Customer{Label: CustomerLabel(job, customer)},
		JobLine:       JobLine(job),
		Date:          job.Date,
		Notes:         job.Notes,
		Status:        job.Status,
		Quantity:      job.Quantity,
		TaxRate:       profile.SalesTaxRate,
		ServiceAmount: breakdown.ServiceAmount,
		TaxAmount:     breakdown.TaxAmount,
		Total:         job.TotalAmount,
		Paid:          job.PaidAmount,
		BalanceDue:    pricing.BalanceDue(job.TotalAmount, job.PaidAmount),
	}
	if customer != nil {
		wo.Customer.Phone = customer.Phone
		wo.Customer.Email = customer.Email
		wo.Customer.Address = customer.Address
	}
	return wo
}

// CustomerLabel prefers the name saved on the job, which survives the
// customer being renamed or deleted.
func CustomerLabel(job models.Job, customer *models.Customer) string {
	if name := strings.TrimSpace(job.CustomerName); name != "" {
		return name
	}
	if customer != nil && strings.TrimSpace(customer.Name) != "" {
		return strings.TrimSpace(customer.Name)
	}
	return "Customer"
}

// JobLine describes the service, e.g. "Windshield - Chip - Repair".
func JobLine(job models.Job) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{job.GlassType, job.DamageType, job.RepairReplacement} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Glass service"
	}
	return strings.Join(parts, " - ")
}
