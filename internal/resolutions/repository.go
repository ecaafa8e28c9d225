package resolutions

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

const resolutionColumns = `id, reference, report_id, resolution_type, summary, evidence_path, resolved_by, superseded, resolved_at`

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

// Get fetches a resolution by id.
func (r *Repository) Get(ctx context.Context, id int64) (Resolution, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+resolutionColumns+` FROM resolutions WHERE id = $1`, id)
	resolution, err := scanResolution(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Resolution{}, shared.NotFound("resolution", id)
	}
	return resolution, err
}

// GetLiveByReport fetches the live resolution for a report.
func (r *Repository) GetLiveByReport(ctx context.Context, reportID int64) (Resolution, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+resolutionColumns+` FROM resolutions WHERE report_id = $1 AND NOT superseded`, reportID)
	resolution, err := scanResolution(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Resolution{}, shared.NotFound("resolution", 0)
	}
	return resolution, err
}

// HasLive answers whether the report carries a live resolution.
func (r *Repository) HasLive(ctx context.Context, reportID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM resolutions WHERE report_id = $1 AND NOT superseded)`, reportID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("resolutions: has live: %w", err)
	}
	return exists, nil
}

// ListByReport returns the resolution history for a report, newest first.
func (r *Repository) ListByReport(ctx context.Context, reportID int64) ([]Resolution, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resolutionColumns+` FROM resolutions WHERE report_id = $1 ORDER BY resolved_at DESC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("resolutions: list: %w", err)
	}
	defer rows.Close()

	var result []Resolution
	for rows.Next() {
		resolution, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, resolution)
	}
	return result, rows.Err()
}

// Create inserts a live resolution row.
func (t *txRepo) Create(ctx context.Context, resolution Resolution) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO resolutions (reference, report_id, resolution_type, summary, evidence_path, resolved_by)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		resolution.Reference, resolution.ReportID, string(resolution.Type),
		resolution.Summary, resolution.EvidencePath, resolution.ResolvedBy).Scan(&id)
	if err != nil {
		if liveConflict(err) {
			return 0, shared.ErrConcurrentModification
		}
		return 0, fmt.Errorf("resolutions: create: %w", err)
	}
	return id, nil
}

// liveConflict recognizes a racing insert against the single-live-resolution
// unique index.
func liveConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_resolutions_live"
}

// UpdateReportStatus applies the report transition in the same transaction
// as the resolution writes, compare-and-swapping on the version column.
func (t *txRepo) UpdateReportStatus(ctx context.Context, reportID, version int64, status reports.Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE reports SET status = $3, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $2`,
		reportID, version, string(status))
	if err != nil {
		return fmt.Errorf("resolutions: update report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// SupersedeLive flags the current live resolution, if any, inactive.
func (t *txRepo) SupersedeLive(ctx context.Context, reportID int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE resolutions SET superseded = TRUE WHERE report_id = $1 AND NOT superseded`, reportID)
	if err != nil {
		return fmt.Errorf("resolutions: supersede live: %w", err)
	}
	return nil
}

func scanResolution(row pgx.Row) (Resolution, error) {
	var resolution Resolution
	var resolutionType string
	err := row.Scan(&resolution.ID, &resolution.Reference, &resolution.ReportID, &resolutionType,
		&resolution.Summary, &resolution.EvidencePath, &resolution.ResolvedBy,
		&resolution.Superseded, &resolution.ResolvedAt)
	if err != nil {
		return Resolution{}, err
	}
	resolution.Type = reports.ResolutionType(resolutionType)
	return resolution, nil
}
