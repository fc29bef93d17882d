// internal/loans/implementation.go
package loans

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"bibliocore/internal/catalog"
	"bibliocore/internal/fault"
	"bibliocore/pkg/clock"
)

// CopyReader is the slice of the catalog the loan service needs.
type CopyReader interface {
	GetCopy(ctx context.Context, id int64) (*catalog.Copy, error)
}

// service implements the Service interface.
type service struct {
	repo    Repository
	copies  CopyReader
	clk     clock.Clock
	penalty PenaltyConfig

	// penaltyLocks serializes penalty assessment per loan id so two
	// concurrent callers cannot both close the same open loan.
	penaltyLocks sync.Map

	loansRegistered   metric.Int64Counter
	penaltiesAssessed metric.Int64Counter
}

// NewService creates a new loan lifecycle service instance.
func NewService(repo Repository, copies CopyReader, clk clock.Clock, penalty PenaltyConfig) Service {
	meter := otel.Meter("bibliocore/loans")

	loansRegistered, err := meter.Int64Counter("loans.registered")
	if err != nil {
		log.Printf("failed to create loans.registered counter: %v", err)
	}
	penaltiesAssessed, err := meter.Int64Counter("loans.penalties_assessed")
	if err != nil {
		log.Printf("failed to create loans.penalties_assessed counter: %v", err)
	}

	return &service{
		repo:              repo,
		copies:            copies,
		clk:               clk,
		penalty:           penalty,
		loansRegistered:   loansRegistered,
		penaltiesAssessed: penaltiesAssessed,
	}
}

// RegisterLoan checks eligibility and creates an active loan.
func (s *service) RegisterLoan(ctx context.Context, borrowerID, copyID int64, loanDate, dueDate time.Time) (*Loan, error) {
	if borrowerID <= 0 || copyID <= 0 {
		return nil, fault.Validation("borrower and copy ids must be positive")
	}
	if !dueDate.After(loanDate) {
		return nil, fault.Validation("due date must be after loan date")
	}

	restricted, err := s.IsRestricted(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	if restricted {
		return nil, fault.Rejected("borrower is restricted due to penalty history")
	}

	copy, err := s.copies.GetCopy(ctx, copyID)
	if err != nil {
		return nil, err
	}
	if !copy.Lendable() {
		return nil, fault.Rejected("copy is not available for loan")
	}

	loan := &Loan{
		BorrowerID: borrowerID,
		CopyID:     copyID,
		BookID:     copy.BookID,
		LoanDate:   loanDate,
		DueDate:    dueDate,
	}

	loan, err = s.repo.Insert(ctx, loan)
	if err != nil {
		return nil, s.storageFault(err)
	}

	s.loansRegistered.Add(ctx, 1)
	return loan, nil
}

// ExtendLoan pushes the due date of an active loan forward.
func (s *service) ExtendLoan(ctx context.Context, loanID int64, newDueDate time.Time) (*Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status() != StatusActive {
		return nil, fault.Rejected("only active loans can be extended")
	}
	if !newDueDate.After(loan.DueDate) {
		return nil, fault.Validation("new due date must be after the current due date")
	}

	loan.DueDate = newDueDate
	loan, err = s.repo.Update(ctx, loan)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return loan, nil
}

// RegisterReturn records the return date. Penalty assessment is a
// separate, idempotent operation; withPenalty runs it right after the
// return is stored, and an on-time return simply accrues nothing.
func (s *service) RegisterReturn(ctx context.Context, loanID int64, returnDate time.Time, withPenalty bool) (*Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Cancelled {
		return nil, fault.Rejected("loan is cancelled")
	}
	if loan.ReturnDate != nil {
		return nil, fault.Rejected("loan already returned")
	}

	loan.ReturnDate = &returnDate
	loan, err = s.repo.Update(ctx, loan)
	if err != nil {
		return nil, s.storageFault(err)
	}

	if withPenalty {
		assessed, err := s.AssessPenalty(ctx, loanID)
		if err != nil {
			if fault.KindOf(err) == fault.KindRejected {
				return loan, nil
			}
			return nil, err
		}
		return assessed, nil
	}

	return loan, nil
}

// CancelLoan voids a loan that is still active and unreturned. The
// record is never deleted.
func (s *service) CancelLoan(ctx context.Context, loanID int64) (*Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status() != StatusActive {
		return nil, fault.Rejected("only active loans can be cancelled")
	}

	loan.Cancelled = true
	loan, err = s.repo.Update(ctx, loan)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return loan, nil
}

// AssessPenalty computes and persists the late fee for a loan. If the
// loan is still open the assessment closes it, setting the return date
// to now. Re-running on a returned loan recomputes against the stored
// return date and yields the same amount.
func (s *service) AssessPenalty(ctx context.Context, loanID int64) (*Loan, error) {
	if loanID <= 0 {
		return nil, fault.Validation("loan id must be positive")
	}

	unlock := s.lockLoan(loanID)
	defer unlock()

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	amount, effectiveReturn, err := s.penalty.Compute(loan, s.clk.Now())
	if err != nil {
		return nil, err
	}

	loan.Penalty = &amount
	if loan.ReturnDate == nil {
		loan.ReturnDate = &effectiveReturn
	}

	loan, err = s.repo.Update(ctx, loan)
	if err != nil {
		return nil, s.storageFault(err)
	}

	s.penaltiesAssessed.Add(ctx, 1)
	return loan, nil
}

// IsRestricted reports whether the borrower ever incurred a positive
// penalty. Payment is not modeled, so the restriction never clears.
func (s *service) IsRestricted(ctx context.Context, borrowerID int64) (bool, error) {
	if borrowerID <= 0 {
		return false, fault.Validation("borrower id must be positive")
	}

	count, err := s.repo.CountPenalized(ctx, borrowerID)
	if err != nil {
		return false, s.storageFault(err)
	}
	return count > 0, nil
}

// History yields the borrower's loans lazily; iterating again re-reads
// storage. Order is whatever the repository returns.
func (s *service) History(ctx context.Context, borrowerID int64) iter.Seq2[*Loan, error] {
	return func(yield func(*Loan, error) bool) {
		if borrowerID <= 0 {
			yield(nil, fault.Validation("borrower id must be positive"))
			return
		}

		found, err := s.repo.ByBorrower(ctx, borrowerID)
		if err != nil {
			yield(nil, s.storageFault(err))
			return
		}

		for _, loan := range found {
			if !yield(loan, nil) {
				return
			}
		}
	}
}

func (s *service) getLoan(ctx context.Context, loanID int64) (*Loan, error) {
	if loanID <= 0 {
		return nil, fault.Validation("loan id must be positive")
	}
	loan, err := s.repo.Get(ctx, loanID)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return loan, nil
}

func (s *service) lockLoan(loanID int64) func() {
	v, _ := s.penaltyLocks.LoadOrStore(loanID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *service) storageFault(err error) error {
	if errors.Is(err, ErrLoanNotFound) {
		return fault.NotFound("loan not found")
	}
	return fault.Infrastructure("loan storage unavailable, please retry", fmt.Errorf("loan storage: %w", err))
}
