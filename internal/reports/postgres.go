// internal/reports/postgres.go
package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresRepository persists reports with parameterized SQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates the report repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, report *Report) (*Report, error) {
	query := `
		INSERT INTO reports (owner_id, kind, content, generated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		report.OwnerID, string(report.Kind), report.Content, report.GeneratedAt,
	).Scan(&report.ID)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return report, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Report, error) {
	query := `
		SELECT id, owner_id, kind, content, generated_at
		FROM reports
		WHERE id = $1
	`
	report := &Report{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.OwnerID,
		&report.Kind,
		&report.Content,
		&report.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	return report, nil
}

func (r *PostgresRepository) Update(ctx context.Context, report *Report) (*Report, error) {
	query := `
		UPDATE reports
		SET content = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, report.Content, report.ID)
	if err != nil {
		return nil, fmt.Errorf("update report %d: %w", report.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update report %d: %w", report.ID, err)
	}
	if affected == 0 {
		return nil, ErrReportNotFound
	}
	return report, nil
}

func (r *PostgresRepository) ByKind(ctx context.Context, kind Kind) ([]*Report, error) {
	query := `
		SELECT id, owner_id, kind, content, generated_at
		FROM reports
		WHERE kind = $1
		ORDER BY generated_at DESC
	`
	reports, err := r.queryReports(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("reports by kind %s: %w", kind, err)
	}
	return reports, nil
}

func (r *PostgresRepository) ByWindow(ctx context.Context, start, end time.Time) ([]*Report, error) {
	query := `
		SELECT id, owner_id, kind, content, generated_at
		FROM reports
		WHERE generated_at >= $1 AND generated_at <= $2
		ORDER BY generated_at DESC
	`
	reports, err := r.queryReports(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("reports by window: %w", err)
	}
	return reports, nil
}

func (r *PostgresRepository) queryReports(ctx context.Context, query string, args ...any) ([]*Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report := &Report{}
		if err := rows.Scan(&report.ID, &report.OwnerID, &report.Kind, &report.Content, &report.GeneratedAt); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
