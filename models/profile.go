package models

import (
	"time"

	"glasspro-backend/pricing"
)

type WorkflowList string

const (
	GlassTypes               WorkflowList = "glassTypes"
	DamageTypes              WorkflowList = "damageTypes"
	RepairReplacementOptions WorkflowList = "repairReplacementOptions"
)

// ParseWorkflowList returns false for an unknown list name.
func ParseWorkflowList(raw string) (WorkflowList, bool) {
	switch l := WorkflowList(raw); l {
	case GlassTypes, DamageTypes, RepairReplacementOptions:
		return l, true
	}
	return "", false
}

// WorkflowOption is a named line-item template with its own default price.
// ID is stable across reorders and deletes of other options.
type WorkflowOption struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Cost          float64              `json:"cost"`
	Quantity      int                  `json:"quantity"`
	DiscountType  pricing.DiscountType `json:"discountType"`
	DiscountValue float64              `json:"discountValue"`
}

type WorkflowOptions struct {
	GlassTypes               []WorkflowOption `json:"glassTypes"`
	DamageTypes              []WorkflowOption `json:"damageTypes"`
	RepairReplacementOptions []WorkflowOption `json:"repairReplacementOptions"`
}

// List returns a pointer to the named list so callers can edit it in place.
func (w *WorkflowOptions) List(name WorkflowList) *[]WorkflowOption {
	switch name {
	case GlassTypes:
		return &w.GlassTypes
	case DamageTypes:
		return &w.DamageTypes
	case RepairReplacementOptions:
		return &w.RepairReplacementOptions
	}
	return nil
}

// TenantProfile is the company profile; there is one per tenant.
type TenantProfile struct {
	CompanyName     string          `json:"companyName"`
	Address         string          `json:"address"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	SalesTaxRate    float64         `json:"salesTaxRate"`
	WorkflowOptions WorkflowOptions `json:"jobWorkflowOptions"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CompanyPatch edits the settings screen fields.
type CompanyPatch struct {
	CompanyName  *string            `json:"companyName"`
	Address      *string            `json:"address"`
	Phone        *string            `json:"phone"`
	Email        *string            `json:"email" validate:"omitempty,email"`
	SalesTaxRate *pricing.RawNumber `json:"salesTaxRate"`
}

// WorkflowOptionInput is the add/edit form of a workflow option.
type WorkflowOptionInput struct {
	Name          string            `json:"name" validate:"required"`
	Cost          pricing.RawNumber `json:"cost"`
	Quantity      pricing.RawNumber `json:"quantity"`
	DiscountType  string            `json:"discountType"`
	DiscountValue pricing.RawNumber `json:"discountValue"`
}
