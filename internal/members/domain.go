// internal/members/domain.go
package members

import "time"

// Borrower statuses as stored.
const (
	StatusActive    = "activo"
	StatusSuspended = "suspendido"
	StatusInactive  = "inactivo"
)

// Borrower is a registered library member.
type Borrower struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential holds a borrower's login secret. Never serialized.
type Credential struct {
	BorrowerID   int64  `json:"-"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}
