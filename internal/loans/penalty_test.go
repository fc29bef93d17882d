// internal/loans/penalty_test.go
package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"bibliocore/internal/fault"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputePenalty(t *testing.T) {
	calc := PenaltyConfig{DailyFine: 1.00}

	t.Run("open loan four days late", func(t *testing.T) {
		loan := &Loan{
			LoanDate: date(2024, 1, 1),
			DueDate:  date(2024, 1, 8),
		}
		now := date(2024, 1, 12)

		amount, effectiveReturn, err := calc.Compute(loan, now)

		require.NoError(t, err)
		assert.Equal(t, 4.00, amount)
		assert.Equal(t, now, effectiveReturn, "assessing an open loan closes it at now")
	})

	t.Run("not overdue is a business rejection", func(t *testing.T) {
		loan := &Loan{
			LoanDate: date(2024, 1, 1),
			DueDate:  date(2024, 1, 8),
		}

		_, _, err := calc.Compute(loan, date(2024, 1, 5))

		require.Error(t, err)
		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
		assert.Equal(t, "loan is not overdue", fault.MessageOf(err))
	})

	t.Run("due date exactly reached is not overdue", func(t *testing.T) {
		loan := &Loan{DueDate: date(2024, 1, 8)}

		_, _, err := calc.Compute(loan, date(2024, 1, 8))

		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
	})

	t.Run("partial day does not count", func(t *testing.T) {
		loan := &Loan{DueDate: date(2024, 1, 8)}

		_, _, err := calc.Compute(loan, date(2024, 1, 8).Add(23*time.Hour))

		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
	})

	t.Run("returned loan uses stored return date, never now", func(t *testing.T) {
		returned := date(2024, 1, 10)
		loan := &Loan{
			DueDate:    date(2024, 1, 8),
			ReturnDate: &returned,
		}

		amount, effectiveReturn, err := calc.Compute(loan, date(2024, 3, 1))

		require.NoError(t, err)
		assert.Equal(t, 2.00, amount)
		assert.Equal(t, returned, effectiveReturn)
	})

	t.Run("cancelled loan is already settled", func(t *testing.T) {
		loan := &Loan{DueDate: date(2024, 1, 8), Cancelled: true}

		_, _, err := calc.Compute(loan, date(2024, 2, 1))

		require.Error(t, err)
		assert.Equal(t, fault.KindRejected, fault.KindOf(err))
		assert.Equal(t, "loan already settled", fault.MessageOf(err))
	})

	t.Run("configured tariff is applied per day", func(t *testing.T) {
		loan := &Loan{DueDate: date(2024, 1, 8)}

		amount, _, err := PenaltyConfig{DailyFine: 0.50}.Compute(loan, date(2024, 1, 11))

		require.NoError(t, err)
		assert.Equal(t, 1.50, amount)
	})
}

func TestComputePenaltyProperties(t *testing.T) {
	calc := PenaltyConfig{DailyFine: 1.00}
	due := date(2024, 1, 8)

	rapid.Check(t, func(t *rapid.T) {
		daysLate := rapid.IntRange(-30, 365).Draw(t, "daysLate")
		now := due.AddDate(0, 0, daysLate)
		loan := &Loan{LoanDate: due.AddDate(0, 0, -7), DueDate: due}

		amount, _, err := calc.Compute(loan, now)

		if daysLate <= 0 {
			if err == nil {
				t.Fatalf("expected rejection for %d days late", daysLate)
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error for %d days late: %v", daysLate, err)
		}
		if amount != float64(daysLate)*calc.DailyFine {
			t.Fatalf("penalty %f for %d days late", amount, daysLate)
		}
	})
}

func TestComputePenaltyIdempotentOnReturnedLoan(t *testing.T) {
	calc := PenaltyConfig{DailyFine: 1.00}
	returned := date(2024, 1, 15)
	loan := &Loan{
		DueDate:    date(2024, 1, 8),
		ReturnDate: &returned,
	}

	first, _, err := calc.Compute(loan, date(2024, 2, 1))
	require.NoError(t, err)
	second, _, err := calc.Compute(loan, date(2024, 6, 1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
