// internal/reports/repository.go
package reports

import (
	"context"
	"errors"
	"time"
)

// ErrReportNotFound is returned by the repository when a report id does
// not exist.
var ErrReportNotFound = errors.New("report not found")

// Repository is the persistence contract for reports.
type Repository interface {
	Insert(ctx context.Context, report *Report) (*Report, error)
	Get(ctx context.Context, id int64) (*Report, error)
	Update(ctx context.Context, report *Report) (*Report, error)
	ByKind(ctx context.Context, kind Kind) ([]*Report, error)
	ByWindow(ctx context.Context, start, end time.Time) ([]*Report, error)
}
