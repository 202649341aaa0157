package repositories

import (
	"strings"
	"time"

	"glasspro-backend/models"
	"glasspro-backend/pricing"
	"glasspro-backend/utils"
)

// BuildJob normalizes a submitted job form. Missing numbers fall back to
// their defaults: cost and discount 0, quantity 1. A blank date means now.
// The totals in the form are not applied here; see ApplyManualTotals.
func BuildJob(in models.JobInput, now time.Time) (models.Job, error) {
	if err := validateStruct(in); err != nil {
		return models.Job{}, err
	}

	date := now
	if strings.TrimSpace(in.Date) != "" {
		d, err := parseJobDate(in.Date)
		if err != nil {
			return models.Job{}, err
		}
		date = d
	}

	status := models.JobActive
	if in.Status != "" {
		status = models.JobStatus(in.Status)
	}

	applyTax := true
	if in.ApplySalesTax != nil {
		applyTax = *in.ApplySalesTax
	}

	return models.Job{
		CustomerID:        strings.TrimSpace(in.CustomerID),
		CustomerName:      strings.TrimSpace(in.CustomerName),
		Date:              date,
		Status:            status,
		GlassType:         in.GlassType,
		DamageType:        in.DamageType,
		RepairReplacement: in.RepairReplacement,
		Cost:              in.Cost.Amount(),
		Quantity:          in.Quantity.Quantity(),
		DiscountType:      pricing.ParseDiscountType(in.DiscountType),
		DiscountValue:     in.DiscountValue.Amount(),
		ApplySalesTax:     applyTax,
		Notes:             in.Notes,
	}, nil
}

// ApplyJobPatch returns job with every edited field of patch applied except
// the totals.
func ApplyJobPatch(job models.Job, patch models.JobPatch) (models.Job, error) {
	if err := validateStruct(patch); err != nil {
		return models.Job{}, err
	}
	if patch.CustomerID != nil {
		job.CustomerID = strings.TrimSpace(*patch.CustomerID)
	}
	if patch.CustomerName != nil {
		job.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.Date != nil {
		d, err := parseJobDate(*patch.Date)
		if err != nil {
			return models.Job{}, err
		}
		job.Date = d
	}
	if patch.Status != nil && *patch.Status != "" {
		job.Status = models.JobStatus(*patch.Status)
	}
	if patch.GlassType != nil {
		job.GlassType = *patch.GlassType
	}
	if patch.DamageType != nil {
		job.DamageType = *patch.DamageType
	}
	if patch.RepairReplacement != nil {
		job.RepairReplacement = *patch.RepairReplacement
	}
	if patch.Cost != nil {
		job.Cost = patch.Cost.Amount()
	}
	if patch.Quantity != nil {
		job.Quantity = patch.Quantity.Quantity()
	}
	if patch.DiscountType != nil {
		job.DiscountType = pricing.ParseDiscountType(*patch.DiscountType)
	}
	if patch.DiscountValue != nil {
		job.DiscountValue = patch.DiscountValue.Amount()
	}
	if patch.ApplySalesTax != nil {
		job.ApplySalesTax = *patch.ApplySalesTax
	}
	if patch.Notes != nil {
		job.Notes = *patch.Notes
	}
	return job, nil
}

// ApplyManualTotals stores totals the user typed in. Unparseable text
// becomes 0.
func ApplyManualTotals(job *models.Job, total, paid *pricing.RawNumber) {
	if total != nil {
		job.TotalAmount = total.Amount()
	}
	if paid != nil {
		job.PaidAmount = paid.Amount()
	}
}

func parseJobDate(raw string) (time.Time, error) {
	d, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: "is not a valid date"}
	}
	return d, nil
}
