// pricing/engine.go
package pricing

import "strings"

type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// ParseDiscountType maps form values onto a DiscountType. Unknown values
// mean no discount.
func ParseDiscountType(raw string) DiscountType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percentage", "percent", "%":
		return DiscountPercentage
	case "flat", "flatrate", "flat_rate", "flat-rate", "fixed", "$":
		return DiscountFlat
	default:
		return DiscountNone
	}
}

// Inputs are the pricing-relevant fields of a job.
type Inputs struct {
	Cost          float64
	Quantity      int
	DiscountType  DiscountType
	DiscountValue float64
	ApplySalesTax bool
}

// Breakdown is the result of pricing one job line.
type Breakdown struct {
	ServiceAmount float64 `json:"serviceAmount"`
	TaxAmount     float64 `json:"taxAmount"`
	Total         float64 `json:"total"`
}

// ServiceAmount returns cost*quantity less the discount, never below zero.
func ServiceAmount(cost float64, quantity int, discountType DiscountType, discountValue float64) float64 {
	subtotal := cost * float64(quantity)
	switch discountType {
	case DiscountPercentage:
		subtotal -= subtotal * (discountValue / 100)
	case DiscountFlat:
		subtotal -= discountValue
	}
	if subtotal < 0 {
		return 0
	}
	return subtotal
}

// Tax returns the sales tax on serviceAmount, or 0 when tax is not applied.
func Tax(serviceAmount, ratePercent float64, applyTax bool) float64 {
	if !applyTax {
		return 0
	}
	return serviceAmount * ratePercent / 100
}

// Total is not rounded; rounding happens only when amounts are displayed.
func Total(serviceAmount, taxAmount float64) float64 {
	return serviceAmount + taxAmount
}

// BalanceDue is negative when the customer overpaid.
func BalanceDue(total, paid float64) float64 {
	return total - paid
}

// Compute prices in with the tenant's sales tax rate.
func Compute(in Inputs, taxRatePercent float64) Breakdown {
	service := ServiceAmount(in.Cost, in.Quantity, in.DiscountType, in.DiscountValue)
	tax := Tax(service, taxRatePercent, in.ApplySalesTax)
	return Breakdown{
		ServiceAmount: service,
		TaxAmount:     tax,
		Total:         Total(service, tax),
	}
}
