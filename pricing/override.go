// pricing/override.go
package pricing

import "math"

// OverrideTolerance is how far a stored total may drift from the computed
// one before it is replaced.
const OverrideTolerance = 0.01

// Totals are the cached, user-editable financial fields of a job.
type Totals struct {
	Total float64 `json:"totalAmount"`
	Paid  float64 `json:"paidAmount"`
}

// Reconcile decides whether the stored totals follow a freshly computed
// candidate total. The stored total is replaced when it was never set (0)
// or differs from candidate by more than OverrideTolerance; in that case
// paid follows the candidate only if it is still 0. A manual total that has
// diverged is therefore reclaimed on the next pricing edit.
//
// The second result reports whether any value changed.
func Reconcile(stored Totals, candidate float64) (Totals, bool) {
	if stored.Total != 0 && math.Abs(stored.Total-candidate) <= OverrideTolerance {
		return stored, false
	}
	next := Totals{Total: candidate, Paid: stored.Paid}
	if stored.Paid == 0 {
		next.Paid = candidate
	}
	return next, next != stored
}
