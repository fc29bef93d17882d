// internal/loans/implementation_test.go
package loans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliocore/internal/catalog"
	"bibliocore/internal/fault"
	"bibliocore/pkg/clock"
)

// fakeRepository is an in-memory Repository used by service tests.
type fakeRepository struct {
	loans   map[int64]*Loan
	nextID  int64
	queries int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{loans: make(map[int64]*Loan), nextID: 1}
}

func (f *fakeRepository) Insert(_ context.Context, loan *Loan) (*Loan, error) {
	stored := *loan
	stored.ID = f.nextID
	f.nextID++
	f.loans[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeRepository) Get(_ context.Context, id int64) (*Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, ErrLoanNotFound
	}
	copied := *loan
	return &copied, nil
}

func (f *fakeRepository) Update(_ context.Context, loan *Loan) (*Loan, error) {
	if _, ok := f.loans[loan.ID]; !ok {
		return nil, ErrLoanNotFound
	}
	stored := *loan
	f.loans[loan.ID] = &stored
	return loan, nil
}

func (f *fakeRepository) ByBorrower(_ context.Context, borrowerID int64) ([]*Loan, error) {
	f.queries++
	var out []*Loan
	for id := int64(1); id < f.nextID; id++ {
		if loan, ok := f.loans[id]; ok && loan.BorrowerID == borrowerID {
			copied := *loan
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepository) ByWindow(_ context.Context, start, end time.Time) ([]*Loan, error) {
	var out []*Loan
	for id := int64(1); id < f.nextID; id++ {
		if loan, ok := f.loans[id]; ok && !loan.LoanDate.Before(start) && !loan.LoanDate.After(end) {
			copied := *loan
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepository) ReturnedInWindow(_ context.Context, start, end time.Time) ([]*Loan, error) {
	var out []*Loan
	for id := int64(1); id < f.nextID; id++ {
		loan, ok := f.loans[id]
		if !ok || loan.ReturnDate == nil {
			continue
		}
		if !loan.ReturnDate.Before(start) && !loan.ReturnDate.After(end) {
			copied := *loan
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepository) CountPenalized(_ context.Context, borrowerID int64) (int, error) {
	count := 0
	for _, loan := range f.loans {
		if loan.BorrowerID == borrowerID && loan.Penalized() {
			count++
		}
	}
	return count, nil
}

// fakeCopies serves copies keyed by id.
type fakeCopies struct {
	copies map[int64]*catalog.Copy
}

func (f *fakeCopies) GetCopy(_ context.Context, id int64) (*catalog.Copy, error) {
	copied, ok := f.copies[id]
	if !ok {
		return nil, fault.NotFound("copy %d not found", id)
	}
	return copied, nil
}

func newLoanService(now time.Time) (Service, *fakeRepository) {
	repo := newFakeRepository()
	copies := &fakeCopies{copies: map[int64]*catalog.Copy{
		10: {ID: 10, BookID: 100, State: catalog.CopyAvailable},
		11: {ID: 11, BookID: 101, State: catalog.CopyLoaned},
	}}
	svc := NewService(repo, copies, clock.Fixed{T: now}, PenaltyConfig{DailyFine: 1.00})
	return svc, repo
}

func TestRegisterLoan(t *testing.T) {
	ctx := context.Background()
	now := date(2024, 1, 12)

	t.Run("creates an active loan", func(t *testing.T) {
		svc, _ := newLoanService(now)

		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))

		require.NoError(t, err)
		assert.Equal(t, int64(1), loan.ID)
		assert.Equal(t, int64(100), loan.BookID, "book reference denormalized from the copy")
		assert.Equal(t, StatusActive, loan.Status())
		assert.Nil(t, loan.ReturnDate)
		assert.Nil(t, loan.Penalty)
	})

	t.Run("rejects due date not after loan date", func(t *testing.T) {
		svc, _ := newLoanService(now)

		_, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 8), date(2024, 1, 8))

		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})

	t.Run("rejects non-positive ids", func(t *testing.T) {
		svc, _ := newLoanService(now)

		_, err := svc.RegisterLoan(ctx, 0, 10, date(2024, 1, 1), date(2024, 1, 8))
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))

		_, err = svc.RegisterLoan(ctx, 1, -3, date(2024, 1, 1), date(2024, 1, 8))
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})

	t.Run("rejects a restricted borrower", func(t *testing.T) {
		svc, repo := newLoanService(now)
		penalty := 3.00
		repo.loans[99] = &Loan{ID: 99, BorrowerID: 1, Penalty: &penalty}

		_, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))

		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
	})

	t.Run("rejects a copy that is not available", func(t *testing.T) {
		svc, _ := newLoanService(now)

		_, err := svc.RegisterLoan(ctx, 1, 11, date(2024, 1, 1), date(2024, 1, 8))

		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
	})
}

func TestExtendLoan(t *testing.T) {
	ctx := context.Background()
	now := date(2024, 1, 5)

	t.Run("moves the due date forward", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		extended, err := svc.ExtendLoan(ctx, loan.ID, date(2024, 1, 15))

		require.NoError(t, err)
		assert.Equal(t, date(2024, 1, 15), extended.DueDate)
	})

	t.Run("rejects a due date that does not move forward", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		_, err = svc.ExtendLoan(ctx, loan.ID, date(2024, 1, 8))

		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})

	t.Run("unknown loan is not found", func(t *testing.T) {
		svc, _ := newLoanService(now)

		_, err := svc.ExtendLoan(ctx, 42, date(2024, 1, 15))

		assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
	})

	t.Run("returned loan cannot be extended", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)
		_, err = svc.RegisterReturn(ctx, loan.ID, date(2024, 1, 4), false)
		require.NoError(t, err)

		_, err = svc.ExtendLoan(ctx, loan.ID, date(2024, 1, 15))

		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
	})
}

func TestRegisterReturn(t *testing.T) {
	ctx := context.Background()
	now := date(2024, 1, 12)

	t.Run("plain return does not compute a penalty", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		returned, err := svc.RegisterReturn(ctx, loan.ID, date(2024, 1, 12), false)

		require.NoError(t, err)
		require.NotNil(t, returned.ReturnDate)
		assert.Equal(t, date(2024, 1, 12), *returned.ReturnDate)
		assert.Nil(t, returned.Penalty)
		assert.Equal(t, StatusReturned, returned.Status())
	})

	t.Run("return with penalty computes the fee", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		returned, err := svc.RegisterReturn(ctx, loan.ID, date(2024, 1, 12), true)

		require.NoError(t, err)
		require.NotNil(t, returned.Penalty)
		assert.Equal(t, 4.00, *returned.Penalty)
	})

	t.Run("on-time return with penalty accrues nothing", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		returned, err := svc.RegisterReturn(ctx, loan.ID, date(2024, 1, 6), true)

		require.NoError(t, err)
		assert.Nil(t, returned.Penalty)
		require.NotNil(t, returned.ReturnDate)
	})

	t.Run("double return is rejected", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)
		_, err = svc.RegisterReturn(ctx, loan.ID, date(2024, 1, 5), false)
		require.NoError(t, err)

		_, err = svc.RegisterReturn(ctx, loan.ID, date(2024, 1, 6), false)

		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
	})
}

func TestCancelLoan(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLoanService(date(2024, 1, 5))

	loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
	require.NoError(t, err)

	cancelled, err := svc.CancelLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status())

	_, err = svc.CancelLoan(ctx, loan.ID)
	assert.Equal(t, fault.KindRejected, fault.KindOf(err), "cancel is only permitted while active")

	_, err = svc.RegisterReturn(ctx, loan.ID, date(2024, 1, 9), false)
	assert.Equal(t, fault.KindRejected, fault.KindOf(err), "cancelled loans cannot be returned")
}

func TestAssessPenalty(t *testing.T) {
	ctx := context.Background()
	now := date(2024, 1, 12)

	t.Run("implicitly closes an open loan", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		assessed, err := svc.AssessPenalty(ctx, loan.ID)

		require.NoError(t, err)
		require.NotNil(t, assessed.Penalty)
		assert.Equal(t, 4.00, *assessed.Penalty)
		require.NotNil(t, assessed.ReturnDate)
		assert.Equal(t, now, *assessed.ReturnDate, "assessment closes the loan at now")
	})

	t.Run("does not mutate a loan that is not overdue", func(t *testing.T) {
		svc, repo := newLoanService(date(2024, 1, 5))
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		_, err = svc.AssessPenalty(ctx, loan.ID)

		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
		stored := repo.loans[loan.ID]
		assert.Nil(t, stored.ReturnDate)
		assert.Nil(t, stored.Penalty)
	})

	t.Run("is idempotent once the loan is returned", func(t *testing.T) {
		svc, _ := newLoanService(now)
		loan, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
		require.NoError(t, err)

		first, err := svc.AssessPenalty(ctx, loan.ID)
		require.NoError(t, err)
		second, err := svc.AssessPenalty(ctx, loan.ID)
		require.NoError(t, err)

		assert.Equal(t, *first.Penalty, *second.Penalty)
		assert.Equal(t, *first.ReturnDate, *second.ReturnDate)
	})
}

func TestIsRestricted(t *testing.T) {
	ctx := context.Background()
	now := date(2024, 1, 12)

	t.Run("true iff any loan has a positive penalty", func(t *testing.T) {
		svc, repo := newLoanService(now)

		restricted, err := svc.IsRestricted(ctx, 1)
		require.NoError(t, err)
		assert.False(t, restricted)

		penalty := 2.00
		returned := date(2024, 1, 10)
		repo.loans[50] = &Loan{ID: 50, BorrowerID: 1, Penalty: &penalty, ReturnDate: &returned}

		restricted, err = svc.IsRestricted(ctx, 1)
		require.NoError(t, err)
		assert.True(t, restricted, "a penalty ever incurred restricts the borrower, paid or not")
	})

	t.Run("zero-penalty loans never restrict", func(t *testing.T) {
		svc, repo := newLoanService(now)
		zero := 0.0
		repo.loans[51] = &Loan{ID: 51, BorrowerID: 1, Penalty: &zero}

		restricted, err := svc.IsRestricted(ctx, 1)

		require.NoError(t, err)
		assert.False(t, restricted)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	svc, repo := newLoanService(date(2024, 1, 12))

	_, err := svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 1), date(2024, 1, 8))
	require.NoError(t, err)
	_, err = svc.RegisterLoan(ctx, 1, 10, date(2024, 1, 2), date(2024, 1, 9))
	require.NoError(t, err)
	_, err = svc.RegisterLoan(ctx, 2, 10, date(2024, 1, 3), date(2024, 1, 10))
	require.NoError(t, err)

	var seen []int64
	for loan, err := range svc.History(ctx, 1) {
		require.NoError(t, err)
		seen = append(seen, loan.ID)
	}
	assert.Len(t, seen, 2)

	// The sequence is restartable: iterating again re-reads storage.
	queriesBefore := repo.queries
	count := 0
	for _, err := range svc.History(ctx, 1) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)
	assert.Equal(t, queriesBefore+1, repo.queries)
}
