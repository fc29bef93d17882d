// internal/loans/querybuilder.go
package loans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const dialectPostgres = "postgres"

// QueryBuilderRepository is the second loan persistence backend: goqu
// generated statements executed through sqlx. It is interchangeable
// with PostgresRepository at composition time.
type QueryBuilderRepository struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

// NewQueryBuilderRepository creates the query-builder loan repository.
func NewQueryBuilderRepository(db *sqlx.DB) *QueryBuilderRepository {
	return &QueryBuilderRepository{
		db:     db,
		tracer: otel.Tracer("bibliocore/loans/querybuilder"),
	}
}

// loanRow mirrors the loans table for sqlx scanning.
type loanRow struct {
	ID         int64           `db:"id"`
	BorrowerID int64           `db:"borrower_id"`
	CopyID     int64           `db:"copy_id"`
	BookID     int64           `db:"book_id"`
	LoanDate   time.Time       `db:"loan_date"`
	DueDate    time.Time       `db:"due_date"`
	ReturnDate sql.NullTime    `db:"return_date"`
	Penalty    sql.NullFloat64 `db:"penalty"`
	Cancelled  bool            `db:"cancelled"`
}

func (row loanRow) toDomain() *Loan {
	loan := &Loan{
		ID:         row.ID,
		BorrowerID: row.BorrowerID,
		CopyID:     row.CopyID,
		BookID:     row.BookID,
		LoanDate:   row.LoanDate,
		DueDate:    row.DueDate,
		Cancelled:  row.Cancelled,
	}
	if row.ReturnDate.Valid {
		t := row.ReturnDate.Time
		loan.ReturnDate = &t
	}
	if row.Penalty.Valid {
		p := row.Penalty.Float64
		loan.Penalty = &p
	}
	return loan
}

var loanColumns = []any{
	"id", "borrower_id", "copy_id", "book_id",
	"loan_date", "due_date", "return_date", "penalty", "cancelled",
}

func (r *QueryBuilderRepository) Insert(ctx context.Context, loan *Loan) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.insert",
		trace.WithAttributes(
			attribute.Int64("borrower.id", loan.BorrowerID),
			attribute.Int64("copy.id", loan.CopyID),
		),
	)
	defer span.End()

	query, args, err := goqu.Dialect(dialectPostgres).
		Insert("loans").
		Rows(goqu.Record{
			"borrower_id": loan.BorrowerID,
			"copy_id":     loan.CopyID,
			"book_id":     loan.BookID,
			"loan_date":   loan.LoanDate,
			"due_date":    loan.DueDate,
			"cancelled":   false,
		}).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&loan.ID); err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	span.SetAttributes(attribute.Int64("loan.id", loan.ID))
	return loan, nil
}

func (r *QueryBuilderRepository) Get(ctx context.Context, id int64) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.get",
		trace.WithAttributes(attribute.Int64("loan.id", id)),
	)
	defer span.End()

	query, args, err := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanColumns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row loanRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("get loan %d: %w", id, err)
	}

	return row.toDomain(), nil
}

func (r *QueryBuilderRepository) Update(ctx context.Context, loan *Loan) (*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.update",
		trace.WithAttributes(attribute.Int64("loan.id", loan.ID)),
	)
	defer span.End()

	record := goqu.Record{
		"due_date":   loan.DueDate,
		"cancelled":  loan.Cancelled,
		"updated_at": goqu.L("NOW()"),
	}
	if loan.ReturnDate != nil {
		record["return_date"] = *loan.ReturnDate
	}
	if loan.Penalty != nil {
		record["penalty"] = *loan.Penalty
	}

	query, args, err := goqu.Dialect(dialectPostgres).
		Update("loans").
		Set(record).
		Where(goqu.C("id").Eq(loan.ID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
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

func (r *QueryBuilderRepository) ByBorrower(ctx context.Context, borrowerID int64) ([]*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.by_borrower",
		trace.WithAttributes(attribute.Int64("borrower.id", borrowerID)),
	)
	defer span.End()

	stmt := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanColumns...).
		Where(goqu.C("borrower_id").Eq(borrowerID))

	loans, err := r.selectLoans(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("loans by borrower %d: %w", borrowerID, err)
	}

	span.SetAttributes(attribute.Int("loans.count", len(loans)))
	return loans, nil
}

func (r *QueryBuilderRepository) ByWindow(ctx context.Context, start, end time.Time) ([]*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.by_window")
	defer span.End()

	stmt := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanColumns...).
		Where(
			goqu.C("loan_date").Gte(start),
			goqu.C("loan_date").Lte(end),
		).
		Order(goqu.I("id").Asc())

	loans, err := r.selectLoans(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("loans by window: %w", err)
	}

	span.SetAttributes(attribute.Int("loans.count", len(loans)))
	return loans, nil
}

func (r *QueryBuilderRepository) ReturnedInWindow(ctx context.Context, start, end time.Time) ([]*Loan, error) {
	ctx, span := r.tracer.Start(ctx, "loans.returned_in_window")
	defer span.End()

	stmt := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanColumns...).
		Where(
			goqu.C("return_date").IsNotNull(),
			goqu.C("return_date").Gte(start),
			goqu.C("return_date").Lte(end),
		).
		Order(goqu.I("id").Asc())

	loans, err := r.selectLoans(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("loans returned in window: %w", err)
	}

	span.SetAttributes(attribute.Int("loans.count", len(loans)))
	return loans, nil
}

func (r *QueryBuilderRepository) CountPenalized(ctx context.Context, borrowerID int64) (int, error) {
	ctx, span := r.tracer.Start(ctx, "loans.count_penalized",
		trace.WithAttributes(attribute.Int64("borrower.id", borrowerID)),
	)
	defer span.End()

	query, args, err := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("borrower_id").Eq(borrowerID),
			goqu.C("penalty").IsNotNull(),
			goqu.C("penalty").Gt(0),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count penalized loans for borrower %d: %w", borrowerID, err)
	}

	span.SetAttributes(attribute.Int("penalized.count", count))
	return count, nil
}

func (r *QueryBuilderRepository) selectLoans(ctx context.Context, stmt *goqu.SelectDataset) ([]*Loan, error) {
	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []loanRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	loans := make([]*Loan, 0, len(rows))
	for _, row := range rows {
		loans = append(loans, row.toDomain())
	}
	return loans, nil
}
