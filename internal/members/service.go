// internal/members/service.go
package members

import "context"

// Service defines the interface for the members service.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*Borrower, error)
	Authenticate(ctx context.Context, email, password string) (*Borrower, error)
	Get(ctx context.Context, id int64) (*Borrower, error)
	ActiveBorrowers(ctx context.Context) ([]*Borrower, error)
}
