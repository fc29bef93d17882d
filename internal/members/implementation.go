// internal/members/implementation.go
package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"bibliocore/internal/fault"
)

// service implements the Service interface.
type service struct {
	db          *sql.DB
	rateLimiter *rate.Limiter
}

// NewService creates a new members service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 registrations per minute
	}
}

// Register creates a new borrower with hashed credentials.
func (s *service) Register(ctx context.Context, name, email, password string) (*Borrower, error) {
	if !s.rateLimiter.Allow() {
		return nil, fault.Rejected("rate limit exceeded, try again later")
	}
	if name == "" || email == "" {
		return nil, fault.Validation("name and email are required")
	}
	if len(password) < 8 {
		return nil, fault.Validation("password must be at least 8 characters")
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fault.Infrastructure("registration failed, please retry", fmt.Errorf("hash password: %w", err))
	}

	borrower := &Borrower{
		Name:   name,
		Email:  email,
		Status: StatusActive,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fault.Infrastructure("registration failed, please retry", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	borrowerQuery := `
		INSERT INTO borrowers (name, email, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, borrowerQuery, borrower.Name, borrower.Email, borrower.Status).
		Scan(&borrower.ID, &borrower.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fault.Rejected("a borrower with that email already exists")
		}
		return nil, fault.Infrastructure("registration failed, please retry", fmt.Errorf("insert borrower: %w", err))
	}

	credQuery := `
		INSERT INTO credentials (borrower_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`
	if _, err = tx.ExecContext(ctx, credQuery, borrower.ID, passwordHash, salt); err != nil {
		return nil, fault.Infrastructure("registration failed, please retry", fmt.Errorf("insert credential: %w", err))
	}

	if err = tx.Commit(); err != nil {
		return nil, fault.Infrastructure("registration failed, please retry", fmt.Errorf("commit: %w", err))
	}

	return borrower, nil
}

// Authenticate verifies a borrower's credentials.
func (s *service) Authenticate(ctx context.Context, email, password string) (*Borrower, error) {
	borrower, credential, err := s.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil {
		return nil, fault.Infrastructure("authentication failed, please retry", fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return nil, fault.Rejected("invalid credentials")
	}

	return borrower, nil
}

func (s *service) getByEmail(ctx context.Context, email string) (*Borrower, *Credential, error) {
	query := `
		SELECT b.id, b.name, b.email, b.status, b.created_at, c.password_hash, c.salt
		FROM borrowers b
		JOIN credentials c ON c.borrower_id = b.id
		WHERE b.email = $1
	`
	borrower := &Borrower{}
	credential := &Credential{}
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&borrower.ID,
		&borrower.Name,
		&borrower.Email,
		&borrower.Status,
		&borrower.CreatedAt,
		&credential.PasswordHash,
		&credential.Salt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fault.Rejected("invalid credentials")
		}
		return nil, nil, fault.Infrastructure("authentication failed, please retry", fmt.Errorf("get borrower by email: %w", err))
	}
	credential.BorrowerID = borrower.ID
	return borrower, credential, nil
}

// Get retrieves a borrower by ID.
func (s *service) Get(ctx context.Context, id int64) (*Borrower, error) {
	if id <= 0 {
		return nil, fault.Validation("borrower id must be positive")
	}

	query := `
		SELECT id, name, email, status, created_at
		FROM borrowers
		WHERE id = $1
	`
	borrower := &Borrower{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&borrower.ID,
		&borrower.Name,
		&borrower.Email,
		&borrower.Status,
		&borrower.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("borrower %d not found", id)
		}
		return nil, fault.Infrastructure("member lookup failed, please retry", fmt.Errorf("get borrower %d: %w", id, err))
	}

	return borrower, nil
}

// ActiveBorrowers lists every borrower whose status is active, in
// storage order.
func (s *service) ActiveBorrowers(ctx context.Context) ([]*Borrower, error) {
	query := `
		SELECT id, name, email, status, created_at
		FROM borrowers
		WHERE status = $1
	`
	rows, err := s.db.QueryContext(ctx, query, StatusActive)
	if err != nil {
		return nil, fault.Infrastructure("member lookup failed, please retry", fmt.Errorf("query active borrowers: %w", err))
	}
	defer rows.Close()

	var borrowers []*Borrower
	for rows.Next() {
		b := &Borrower{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Email, &b.Status, &b.CreatedAt); err != nil {
			return nil, fault.Infrastructure("member lookup failed, please retry", fmt.Errorf("scan borrower: %w", err))
		}
		borrowers = append(borrowers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Infrastructure("member lookup failed, please retry", fmt.Errorf("iterate borrowers: %w", err))
	}

	return borrowers, nil
}
