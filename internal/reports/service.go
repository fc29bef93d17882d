// internal/reports/service.go
package reports

import (
	"context"
	"time"
)

// Service defines the interface for the report aggregation service.
type Service interface {
	Generate(ctx context.Context, kind string, windowStart, windowEnd time.Time, ownerID int64) (*Report, error)
	CreateManual(ctx context.Context, kind, content string, ownerID int64) (*Report, error)
	Get(ctx context.Context, id int64) (*Report, error)
	ListByKind(ctx context.Context, kind string) ([]*Report, error)
	ListByWindow(ctx context.Context, start, end time.Time) ([]*Report, error)
	AppendNote(ctx context.Context, id int64, note string, markResolved bool) (*Report, error)
}
