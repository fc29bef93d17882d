// internal/catalog/service.go
package catalog

import "context"

// Service defines the read access the rest of the system needs from the
// catalog. Copy-state transitions belong to shelf management and are
// out of scope here.
type Service interface {
	GetBook(ctx context.Context, id int64) (*Book, error)
	BookTitle(ctx context.Context, id int64) (string, error)
	GetCopy(ctx context.Context, id int64) (*Copy, error)
}
