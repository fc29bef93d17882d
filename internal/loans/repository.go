// internal/loans/repository.go
package loans

import (
	"context"
	"errors"
	"time"
)

// ErrLoanNotFound is returned by repositories when a loan id does not
// exist. Services translate it; nothing else inspects raw storage errors.
var ErrLoanNotFound = errors.New("loan not found")

// Repository is the persistence contract for loans. Two interchangeable
// implementations exist: PostgresRepository (raw parameterized SQL) and
// QueryBuilderRepository (goqu over sqlx). The services must not depend
// on which one is active.
type Repository interface {
	Insert(ctx context.Context, loan *Loan) (*Loan, error)
	Get(ctx context.Context, id int64) (*Loan, error)
	Update(ctx context.Context, loan *Loan) (*Loan, error)
	ByBorrower(ctx context.Context, borrowerID int64) ([]*Loan, error)
	ByWindow(ctx context.Context, start, end time.Time) ([]*Loan, error)
	ReturnedInWindow(ctx context.Context, start, end time.Time) ([]*Loan, error)
	CountPenalized(ctx context.Context, borrowerID int64) (int, error)
}
