package models

import (
	"time"

	"glasspro-backend/pricing"
)

type JobStatus string

const (
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobArchived  JobStatus = "archived"
)

// ParseJobStatus returns false for anything but the three known statuses.
func ParseJobStatus(raw string) (JobStatus, bool) {
	switch s := JobStatus(raw); s {
	case JobActive, JobCompleted, JobArchived:
		return s, true
	}
	return "", false
}

// Job is a work order. CustomerName is a snapshot taken when the job was
// written and is not updated when the customer changes. TotalAmount and
// PaidAmount are cached derived values that the user may overwrite.
type Job struct {
	ID                string               `json:"id"`
	CustomerID        string               `json:"customerId"`
	CustomerName      string               `json:"customerName"`
	Date              time.Time            `json:"date"`
	Status            JobStatus            `json:"status"`
	GlassType         string               `json:"glassType"`
	DamageType        string               `json:"damageType"`
	RepairReplacement string               `json:"repairReplacement"`
	Cost              float64              `json:"cost"`
	Quantity          int                  `json:"quantity"`
	DiscountType      pricing.DiscountType `json:"discountType"`
	DiscountValue     float64              `json:"discountValue"`
	ApplySalesTax     bool                 `json:"applySalesTax"`
	Notes             string               `json:"notes"`
	TotalAmount       float64              `json:"totalAmount"`
	PaidAmount        float64              `json:"paidAmount"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

func (j Job) PricingInputs() pricing.Inputs {
	return pricing.Inputs{
		Cost:          j.Cost,
		Quantity:      j.Quantity,
		DiscountType:  j.DiscountType,
		DiscountValue: j.DiscountValue,
		ApplySalesTax: j.ApplySalesTax,
	}
}

func (j Job) Totals() pricing.Totals {
	return pricing.Totals{Total: j.TotalAmount, Paid: j.PaidAmount}
}

func (j *Job) SetTotals(t pricing.Totals) {
	j.TotalAmount = t.Total
	j.PaidAmount = t.Paid
}

// JobInput is a job form as submitted. Numeric fields are raw text and are
// parsed leniently.
type JobInput struct {
	CustomerID        string             `json:"customerId"`
	CustomerName      string             `json:"customerName"`
	Date              string             `json:"date"`
	Status            string             `json:"status" validate:"omitempty,oneof=active completed archived"`
	GlassType         string             `json:"glassType"`
	DamageType        string             `json:"damageType"`
	RepairReplacement string             `json:"repairReplacement"`
	Cost              pricing.RawNumber  `json:"cost"`
	Quantity          pricing.RawNumber  `json:"quantity"`
	DiscountType      string             `json:"discountType"`
	DiscountValue     pricing.RawNumber  `json:"discountValue"`
	ApplySalesTax     *bool              `json:"applySalesTax"`
	Notes             string             `json:"notes"`
	TotalAmount       *pricing.RawNumber `json:"totalAmount"`
	PaidAmount        *pricing.RawNumber `json:"paidAmount"`
}

// JobPatch carries only the fields a user edited.
type JobPatch struct {
	CustomerID        *string            `json:"customerId"`
	CustomerName      *string            `json:"customerName"`
	Date              *string            `json:"date"`
	Status            *string            `json:"status" validate:"omitempty,oneof=active completed archived"`
	GlassType         *string            `json:"glassType"`
	DamageType        *string            `json:"damageType"`
	RepairReplacement *string            `json:"repairReplacement"`
	Cost              *pricing.RawNumber `json:"cost"`
	Quantity          *pricing.RawNumber `json:"quantity"`
	DiscountType      *string            `json:"discountType"`
	DiscountValue     *pricing.RawNumber `json:"discountValue"`
	ApplySalesTax     *bool              `json:"applySalesTax"`
	Notes             *string            `json:"notes"`
	TotalAmount       *pricing.RawNumber `json:"totalAmount"`
	PaidAmount        *pricing.RawNumber `json:"paidAmount"`
}

// TouchesPricing reports whether the patch edits a pricing-relevant field.
func (p JobPatch) TouchesPricing() bool {
	return p.Cost != nil || p.Quantity != nil || p.DiscountType != nil ||
		p.DiscountValue != nil || p.ApplySalesTax != nil
}
