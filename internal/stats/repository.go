package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuswatch/campuswatch/internal/roles"
)

// Repository reads the aggregate projections. Stats never write.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const deptCaseRowsQuery = `
SELECT COALESCE(NULLIF(acc.department, ''), r.department) AS department,
       r.submitted_at,
       fa.assigned_at,
       EXISTS (
           SELECT 1 FROM assignments x
           WHERE x.report_id = r.id AND x.action_taken <> ''
       ) AS has_action,
       r.status = 'RESOLVED' AS resolved,
       r.status = 'IN_PROGRESS' AS active
FROM reports r
JOIN LATERAL (
    SELECT staff_id, assigned_at
    FROM assignments
    WHERE report_id = r.id
    ORDER BY assigned_at ASC
    LIMIT 1
) fa ON TRUE
JOIN accounts acc ON acc.id = fa.staff_id`

// DeptCaseRows returns one row per ever-assigned report, attributed to the
// first assignee's department.
func (r *Repository) DeptCaseRows(ctx context.Context) ([]DeptCaseRow, error) {
	rows, err := r.pool.Query(ctx, deptCaseRowsQuery)
	if err != nil {
		return nil, fmt.Errorf("stats: query department cases: %w", err)
	}
	defer rows.Close()

	var result []DeptCaseRow
	for rows.Next() {
		var row DeptCaseRow
		if err := rows.Scan(
			&row.Department, &row.SubmittedAt, &row.FirstAssignedAt,
			&row.HasAction, &row.Resolved, &row.Active,
		); err != nil {
			return nil, fmt.Errorf("stats: scan department case: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate department cases: %w", err)
	}
	return result, nil
}

const staffCountsQuery = `
SELECT COALESCE(NULLIF(department, ''), 'GENERAL'), COUNT(*)
FROM accounts
WHERE is_active = TRUE AND role = ANY($1)
GROUP BY 1`

// StaffCounts returns active assignable staff per department.
func (r *Repository) StaffCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, staffCountsQuery, roles.StaffTierNames())
	if err != nil {
		return nil, fmt.Errorf("stats: query staff counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var dept string
		var n int
		if err := rows.Scan(&dept, &n); err != nil {
			return nil, fmt.Errorf("stats: scan staff count: %w", err)
		}
		counts[dept] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate staff counts: %w", err)
	}
	return counts, nil
}

const hotspotRowsQuery = `
SELECT location, kind, COALESCE(severity, ''), COALESCE(crime_category, '')
FROM reports`

// HotspotRows returns the location projection of every report.
func (r *Repository) HotspotRows(ctx context.Context) ([]HotspotRow, error) {
	rows, err := r.pool.Query(ctx, hotspotRowsQuery)
	if err != nil {
		return nil, fmt.Errorf("stats: query hotspot rows: %w", err)
	}
	defer rows.Close()

	var result []HotspotRow
	for rows.Next() {
		var row HotspotRow
		if err := rows.Scan(&row.Location, &row.Kind, &row.Severity, &row.Category); err != nil {
			return nil, fmt.Errorf("stats: scan hotspot row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate hotspot rows: %w", err)
	}
	return result, nil
}
