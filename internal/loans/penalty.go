// internal/loans/penalty.go
package loans

import (
	"time"

	"bibliocore/internal/fault"
)

// PenaltyConfig carries the tariff applied to late returns. It replaces
// what used to be a global constant; the value is threaded in from
// configuration at construction time.
type PenaltyConfig struct {
	DailyFine float64
}

// Compute calculates the late fee for a loan at a given instant without
// touching storage. The comparison date is the recorded return date, or
// now for a still-open loan. Returns the fee and the effective return
// date the caller must persist: for an open loan that date is now,
// because assessing a penalty implicitly closes the loan.
//
// Zero or negative days late is a terminal business outcome ("not
// overdue"), not a system error. A cancelled loan is already settled
// and can never accrue a fee. Re-invocation on a returned loan uses the
// stored return date, never now, so the result is stable.
func (c PenaltyConfig) Compute(loan *Loan, now time.Time) (float64, time.Time, error) {
	if loan.Cancelled {
		return 0, time.Time{}, fault.Rejected("loan already settled")
	}

	comparison := now
	if loan.ReturnDate != nil {
		comparison = *loan.ReturnDate
	}

	daysLate := wholeDaysBetween(loan.DueDate, comparison)
	if daysLate <= 0 {
		return 0, time.Time{}, fault.Rejected("loan is not overdue")
	}

	return float64(daysLate) * c.DailyFine, comparison, nil
}

// wholeDaysBetween counts full elapsed days from a to b, truncating any
// partial day.
func wholeDaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
