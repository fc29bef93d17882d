// internal/loans/domain.go
package loans

import "time"

// Status is the lifecycle state of a loan, derived from its attributes.
type Status string

const (
	StatusActive    Status = "active"
	StatusReturned  Status = "returned"
	StatusCancelled Status = "cancelled"
)

// Loan records a copy borrowed by a borrower for a bounded period.
// BookID is denormalized from the copy at registration time so reports
// can group by title without walking the catalog per loan.
type Loan struct {
	ID         int64      `json:"id"`
	BorrowerID int64      `json:"borrower_id"`
	CopyID     int64      `json:"copy_id"`
	BookID     int64      `json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Penalty    *float64   `json:"penalty,omitempty"`
	Cancelled  bool       `json:"cancelled"`
}

// Status derives the lifecycle state. Cancellation wins over return:
// a cancelled loan stays cancelled even if a return date was recorded
// before the cancellation flag was found invalid.
func (l *Loan) Status() Status {
	switch {
	case l.Cancelled:
		return StatusCancelled
	case l.ReturnDate != nil:
		return StatusReturned
	default:
		return StatusActive
	}
}

// Penalized reports whether a strictly positive penalty was ever
// recorded on the loan.
func (l *Loan) Penalized() bool {
	return l.Penalty != nil && *l.Penalty > 0
}
