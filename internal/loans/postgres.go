// internal/loans/postgres.go
package loans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PostgresRepository persists loans with hand-written parameterized SQL
// on database/sql.
type PostgresRepository struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewPostgresRepository creates the raw-SQL loan repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		tracer: otel.Tracer("bibliocore/loans/postgres"),
	}
}

func (r *PostgresRepository) Insert(ctx context.Context, loan *Loan) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.insert",
		trace.WithAttributes(
			attribute.Int64("borrower.id", loan.BorrowerID),
			attribute.Int64("copy.id", loan.CopyID),
		),
	)
	defer span.End()

	query := `
		INSERT INTO loans (borrower_id, copy_id, book_id, loan_date, due_date, cancelled)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		loan.BorrowerID, loan.CopyID, loan.BookID, loan.LoanDate, loan.DueDate,
	).Scan(&loan.ID)
	if err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	span.SetAttributes(attribute.Int64("loan.id", loan.ID))
	return loan, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.get",
		trace.WithAttributes(attribute.Int64("loan.id", id)),
	)
	defer span.End()

	query := `
		SELECT id, borrower_id, copy_id, book_id, loan_date, due_date, return_date, penalty, cancelled
		FROM loans
		WHERE id = $1
	`
	loan, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("get loan %d: %w", id, err)
	}
	return loan, nil
}

func (r *PostgresRepository) Update(ctx context.Context, loan *Loan) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.update",
		trace.WithAttributes(attribute.Int64("loan.id", loan.ID)),
	)
	defer span.End()

	query := `
		UPDATE loans
		SET due_date = $1, return_date = $2, penalty = $3, cancelled = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		loan.DueDate, loan.ReturnDate, loan.Penalty, loan.Cancelled, loan.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update loan %d: %w", loan.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update loan %d: %w", loan.ID, err)
	}
	if affected == 0 {
		return nil, ErrLoanNotFound
	}

	return loan, nil
}

func (r *PostgresRepository) ByBorrower(ctx context.Context, borrowerID int64) ([]*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.by_borrower",
		trace.WithAttributes(attribute.Int64("borrower.id", borrowerID)),
	)
	defer span.End()

	query := `
		SELECT id, borrower_id, copy_id, book_id, loan_date, due_date, return_date, penalty, cancelled
		FROM loans
		WHERE borrower_id = $1
	`
	loans, err := r.queryLoans(ctx, query, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("loans by borrower %d: %w", borrowerID, err)
	}

	span.SetAttributes(attribute.Int("loans.count", len(loans)))
	return loans, nil
}

func (r *PostgresRepository) ByWindow(ctx context.Context, start, end time.Time) ([]*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.by_window")
	defer span.End()

	query := `
		SELECT id, borrower_id, copy_id, book_id, loan_date, due_date, return_date, penalty, cancelled
		FROM loans
		WHERE loan_date >= $1 AND loan_date <= $2
		ORDER BY id ASC
	`
	loans, err := r.queryLoans(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("loans by window: %w", err)
	}

	span.SetAttributes(attribute.Int("loans.count", len(loans)))
	return loans, nil
}

func (r *PostgresRepository) ReturnedInWindow(ctx context.Context, start, end time.Time) ([]*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.returned_in_window")
	defer span.End()

	query := `
		SELECT id, borrower_id, copy_id, book_id, loan_date, due_date, return_date, penalty, cancelled
		FROM loans
		WHERE return_date IS NOT NULL AND return_date >= $1 AND return_date <= $2
		ORDER BY id ASC
	`
	loans, err := r.queryLoans(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("loans returned in window: %w", err)
	}

	span.SetAttributes(attribute.Int("loans.count", len(loans)))
	return loans, nil
}

func (r *PostgresRepository) CountPenalized(ctx context.Context, borrowerID int64) (int, error) {
	ctx, span := r.tracer.Start(ctx, "loans.count_penalized",
		trace.WithAttributes(attribute.Int64("borrower.id", borrowerID)),
	)
	defer span.End()

	query := `
		SELECT COUNT(*)
		FROM loans
		WHERE borrower_id = $1 AND penalty IS NOT NULL AND penalty > 0
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, borrowerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count penalized loans for borrower %d: %w", borrowerID, err)
	}

	span.SetAttributes(attribute.Int("penalized.count", count))
	return count, nil
}

func (r *PostgresRepository) queryLoans(ctx context.Context, query string, args ...any) ([]*Loan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*Loan, error) {
	loan := &Loan{}
	var returnDate sql.NullTime
	var penalty sql.NullFloat64

	err := row.Scan(
		&loan.ID,
		&loan.BorrowerID,
		&loan.CopyID,
		&loan.BookID,
		&loan.LoanDate,
		&loan.DueDate,
		&returnDate,
		&penalty,
		&loan.Cancelled,
	)
	if err != nil {
		return nil, err
	}

	if returnDate.Valid {
		loan.ReturnDate = &returnDate.Time
	}
	if penalty.Valid {
		loan.Penalty = &penalty.Float64
	}
	return loan, nil
}
