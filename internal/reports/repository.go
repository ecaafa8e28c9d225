package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuswatch/campuswatch/internal/shared"
)

const reportColumns = `id, reference, kind, submitted_by, title, description, location, department, status,
	crime_category, suspect_notes, victim_notes, weapon_notes, injury_notes, evidence_notes,
	facility_type, severity, equipment, version, submitted_at, updated_at`

// Repository provides PostgreSQL backed persistence for reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the report and returns its id.
func (r *Repository) Create(ctx context.Context, report Report) (int64, error) {
	var crimeCategory, suspect, victim, weapon, injury, evidence *string
	if report.Crime != nil {
		category := string(report.Crime.Category)
		crimeCategory = &category
		suspect = &report.Crime.SuspectNotes
		victim = &report.Crime.VictimNotes
		weapon = &report.Crime.WeaponNotes
		injury = &report.Crime.InjuryNotes
		evidence = &report.Crime.EvidenceNotes
	}
	var facilityType, severity, equipment *string
	if report.Facility != nil {
		facilityType = &report.Facility.FacilityType
		sev := string(report.Facility.Severity)
		severity = &sev
		equipment = &report.Facility.Equipment
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reports (reference, kind, submitted_by, title, description, location, department, status,
			crime_category, suspect_notes, victim_notes, weapon_notes, injury_notes, evidence_notes,
			facility_type, severity, equipment, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING id`,
		report.Reference, string(report.Kind), report.SubmittedBy, report.Title, report.Description,
		report.Location, report.Department, string(report.Status),
		crimeCategory, suspect, victim, weapon, injury, evidence,
		facilityType, severity, equipment, report.Version).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reports: create: %w", err)
	}
	return id, nil
}

// Get fetches a report by id.
func (r *Repository) Get(ctx context.Context, id int64) (Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, shared.NotFound("report", id)
	}
	return report, err
}

// List returns reports matching the filters alongside the total count.
func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Report, int, error) {
	var conditions []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filters.Status)))
	}
	if filters.Kind != "" {
		conditions = append(conditions, "kind = "+arg(string(filters.Kind)))
	}
	if filters.Location != "" {
		conditions = append(conditions, "location ILIKE "+arg("%"+filters.Location+"%"))
	}
	if filters.Search != "" {
		pattern := arg("%" + filters.Search + "%")
		conditions = append(conditions, "(title ILIKE "+pattern+" OR description ILIKE "+pattern+")")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reports: count: %w", err)
	}

	query := `SELECT ` + reportColumns + ` FROM reports` + where +
		` ORDER BY submitted_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reports: list: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, report)
	}
	return reports, total, rows.Err()
}

// UpdateStatus applies the accepted transition under optimistic concurrency.
func (r *Repository) UpdateStatus(ctx context.Context, id, version int64, status Status) (Report, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE reports SET status = $3, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $2
		 RETURNING `+reportColumns,
		id, version, string(status))
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or another transition won the race.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return Report{}, getErr
		}
		return Report{}, shared.ErrConcurrentModification
	}
	if err != nil {
		return Report{}, fmt.Errorf("reports: update status: %w", err)
	}
	return report, nil
}

func scanReport(row pgx.Row) (Report, error) {
	var report Report
	var kind, status string
	var crimeCategory, suspect, victim, weapon, injury, evidence *string
	var facilityType, severity, equipment *string
	err := row.Scan(&report.ID, &report.Reference, &kind, &report.SubmittedBy, &report.Title,
		&report.Description, &report.Location, &report.Department, &status,
		&crimeCategory, &suspect, &victim, &weapon, &injury, &evidence,
		&facilityType, &severity, &equipment,
		&report.Version, &report.SubmittedAt, &report.UpdatedAt)
	if err != nil {
		return Report{}, err
	}
	report.Kind = Kind(kind)
	report.Status = Status(status)
	switch report.Kind {
	case KindCrime:
		report.Crime = &CrimeDetails{
			Category:      CrimeCategory(deref(crimeCategory)),
			SuspectNotes:  deref(suspect),
			VictimNotes:   deref(victim),
			WeaponNotes:   deref(weapon),
			InjuryNotes:   deref(injury),
			EvidenceNotes: deref(evidence),
		}
	case KindFacility:
		report.Facility = &FacilityDetails{
			FacilityType: deref(facilityType),
			Severity:     Severity(deref(severity)),
			Equipment:    deref(equipment),
		}
	}
	return report, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
