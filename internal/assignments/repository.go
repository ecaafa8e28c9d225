package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuswatch/campuswatch/internal/platform/db"
	"github.com/campuswatch/campuswatch/internal/reports"
	"github.com/campuswatch/campuswatch/internal/shared"
)

const assignmentColumns = `id, report_id, staff_id, assigned_by, action_taken, additional_feedback, superseded, assigned_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get fetches an assignment by id.
func (r *Repository) Get(ctx context.Context, id int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	assignment, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, shared.NotFound("assignment", id)
	}
	return assignment, err
}

// GetActiveByReport fetches the live assignment for a report.
func (r *Repository) GetActiveByReport(ctx context.Context, reportID int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE report_id = $1 AND NOT superseded`, reportID)
	assignment, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, shared.NotFound("assignment", 0)
	}
	return assignment, err
}

// ListByReport returns the full assignment history for a report, newest first.
func (r *Repository) ListByReport(ctx context.Context, reportID int64) ([]Assignment, error) {
	return r.queryMany(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE report_id = $1 ORDER BY assigned_at DESC`, reportID)
}

// ListActiveByStaff returns the live assignments held by a staff member.
func (r *Repository) ListActiveByStaff(ctx context.Context, staffID int64) ([]Assignment, error) {
	return r.queryMany(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE staff_id = $1 AND NOT superseded ORDER BY assigned_at`, staffID)
}

// UpdateAction stores action/feedback text on the live assignment.
func (r *Repository) UpdateAction(ctx context.Context, id int64, actionTaken, feedback string) (Assignment, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE assignments SET action_taken = $2, additional_feedback = $3, updated_at = NOW()
		 WHERE id = $1 AND NOT superseded
		 RETURNING `+assignmentColumns,
		id, actionTaken, feedback)
	assignment, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, shared.NotFound("assignment", id)
	}
	return assignment, err
}

func (r *Repository) queryMany(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("assignments: query: %w", err)
	}
	defer rows.Close()

	var result []Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}

// Create inserts a live assignment row. The partial unique index on
// (report_id) WHERE NOT superseded turns a racing double-assign into a
// constraint violation surfaced as a concurrency conflict.
func (t *txRepo) Create(ctx context.Context, assignment Assignment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO assignments (report_id, staff_id, assigned_by, action_taken, additional_feedback)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		assignment.ReportID, assignment.StaffID, assignment.AssignedBy,
		assignment.ActionTaken, assignment.AdditionalFeedback).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrConcurrentModification
		}
		return 0, fmt.Errorf("assignments: create: %w", err)
	}
	return id, nil
}

// UpdateReportStatus applies the report transition in the same transaction
// as the assignment writes, compare-and-swapping on the version column.
func (t *txRepo) UpdateReportStatus(ctx context.Context, reportID, version int64, status reports.Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE reports SET status = $3, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $2`,
		reportID, version, string(status))
	if err != nil {
		return fmt.Errorf("assignments: update report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// Supersede flags a historical row inactive.
func (t *txRepo) Supersede(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE assignments SET superseded = TRUE, updated_at = NOW() WHERE id = $1 AND NOT superseded`, id)
	if err != nil {
		return fmt.Errorf("assignments: supersede: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.ReportID, &a.StaffID, &a.AssignedBy, &a.ActionTaken,
		&a.AdditionalFeedback, &a.Superseded, &a.AssignedAt, &a.UpdatedAt)
	return a, err
}
