package workload

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuswatch/campuswatch/internal/roles"
)

// Repository reads live case rows. Scoring never writes.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const caseRowsQuery = `
SELECT r.id, r.kind, r.status,
       COALESCE(r.severity, ''), COALESCE(r.crime_category, ''),
       a.action_taken, r.submitted_at, a.assigned_at
FROM assignments a
JOIN reports r ON r.id = a.report_id
WHERE a.staff_id = $1 AND a.superseded = FALSE`

// CaseRows returns every live assignment for the staff member with its
// report, unlocked reads.
func (r *Repository) CaseRows(ctx context.Context, staffID int64) ([]CaseRow, error) {
	rows, err := r.pool.Query(ctx, caseRowsQuery, staffID)
	if err != nil {
		return nil, fmt.Errorf("workload: query case rows: %w", err)
	}
	defer rows.Close()

	var result []CaseRow
	for rows.Next() {
		var row CaseRow
		if err := rows.Scan(
			&row.ReportID, &row.Kind, &row.Status,
			&row.Severity, &row.Category,
			&row.ActionTaken, &row.SubmittedAt, &row.AssignedAt,
		); err != nil {
			return nil, fmt.Errorf("workload: scan case row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workload: iterate case rows: %w", err)
	}
	return result, nil
}

const staffIDsQuery = `
SELECT id FROM accounts
WHERE is_active = TRUE AND role = ANY($1)`

// StaffIDs lists active accounts that can hold assignments, for periodic
// pressure scans.
func (r *Repository) StaffIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, staffIDsQuery, roles.StaffTierNames())
	if err != nil {
		return nil, fmt.Errorf("workload: query staff ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("workload: scan staff id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workload: iterate staff ids: %w", err)
	}
	return ids, nil
}
