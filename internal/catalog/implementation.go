// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bibliocore/internal/fault"
)

// service implements the Service interface over the relational store.
type service struct {
	db *sql.DB
}

// NewService creates a new catalog read service.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id int64) (*Book, error) {
	if id <= 0 {
		return nil, fault.Validation("book id must be positive")
	}

	query := `
		SELECT id, isbn, title, author, created_at
		FROM books
		WHERE id = $1
	`
	book := &Book{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.ISBN,
		&book.Title,
		&book.Author,
		&book.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("book %d not found", id)
		}
		return nil, fault.Infrastructure("catalog unavailable, please retry", fmt.Errorf("get book %d: %w", id, err))
	}

	return book, nil
}

// BookTitle resolves only the title, for report rendering.
func (s *service) BookTitle(ctx context.Context, id int64) (string, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return "", err
	}
	return book.Title, nil
}

// GetCopy retrieves a copy with its physical state.
func (s *service) GetCopy(ctx context.Context, id int64) (*Copy, error) {
	if id <= 0 {
		return nil, fault.Validation("copy id must be positive")
	}

	query := `
		SELECT id, book_id, state
		FROM copies
		WHERE id = $1
	`
	copy := &Copy{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&copy.ID, &copy.BookID, &copy.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("copy %d not found", id)
		}
		return nil, fault.Infrastructure("catalog unavailable, please retry", fmt.Errorf("get copy %d: %w", id, err))
	}

	return copy, nil
}
