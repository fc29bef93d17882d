// internal/loans/service.go
package loans

import (
	"context"
	"iter"
	"time"
)

// Service defines the interface for the loan lifecycle service.
type Service interface {
	RegisterLoan(ctx context.Context, borrowerID, copyID int64, loanDate, dueDate time.Time) (*Loan, error)
	ExtendLoan(ctx context.Context, loanID int64, newDueDate time.Time) (*Loan, error)
	RegisterReturn(ctx context.Context, loanID int64, returnDate time.Time, withPenalty bool) (*Loan, error)
	CancelLoan(ctx context.Context, loanID int64) (*Loan, error)
	AssessPenalty(ctx context.Context, loanID int64) (*Loan, error)
	IsRestricted(ctx context.Context, borrowerID int64) (bool, error)
	History(ctx context.Context, borrowerID int64) iter.Seq2[*Loan, error]
}
