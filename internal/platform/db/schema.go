package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema holds the DDL for the incident platform tables. Applied on boot;
// every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            BIGSERIAL PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    api_token     TEXT NOT NULL UNIQUE,
    role          TEXT NOT NULL DEFAULT 'STUDENT',
    department    TEXT NOT NULL DEFAULT '',
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reports (
    id              BIGSERIAL PRIMARY KEY,
    reference       UUID NOT NULL UNIQUE,
    kind            TEXT NOT NULL,
    submitted_by    BIGINT NOT NULL REFERENCES accounts(id),
    title           TEXT NOT NULL,
    description     TEXT NOT NULL,
    location        TEXT NOT NULL,
    department      TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'PENDING',
    crime_category  TEXT,
    suspect_notes   TEXT,
    victim_notes    TEXT,
    weapon_notes    TEXT,
    injury_notes    TEXT,
    evidence_notes  TEXT,
    facility_type   TEXT,
    severity        TEXT,
    equipment       TEXT,
    version         BIGINT NOT NULL DEFAULT 1,
    submitted_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_location ON reports(location);

CREATE TABLE IF NOT EXISTS assignments (
    id                  BIGSERIAL PRIMARY KEY,
    report_id           BIGINT NOT NULL REFERENCES reports(id),
    staff_id            BIGINT NOT NULL REFERENCES accounts(id),
    assigned_by         BIGINT NOT NULL REFERENCES accounts(id),
    action_taken        TEXT NOT NULL DEFAULT '',
    additional_feedback TEXT NOT NULL DEFAULT '',
    superseded          BOOLEAN NOT NULL DEFAULT FALSE,
    assigned_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_assignments_active
    ON assignments(report_id) WHERE superseded = FALSE;
CREATE INDEX IF NOT EXISTS idx_assignments_staff ON assignments(staff_id);

CREATE TABLE IF NOT EXISTS resolutions (
    id              BIGSERIAL PRIMARY KEY,
    reference       UUID NOT NULL,
    report_id       BIGINT NOT NULL REFERENCES reports(id),
    resolution_type TEXT NOT NULL,
    summary         TEXT NOT NULL,
    evidence_path   TEXT NOT NULL DEFAULT '',
    resolved_by     BIGINT NOT NULL REFERENCES accounts(id),
    superseded      BOOLEAN NOT NULL DEFAULT FALSE,
    resolved_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_resolutions_live
    ON resolutions(report_id) WHERE superseded = FALSE;

CREATE TABLE IF NOT EXISTS audit_logs (
    id          BIGSERIAL PRIMARY KEY,
    actor_id    BIGINT NOT NULL,
    action      TEXT NOT NULL,
    entity      TEXT NOT NULL,
    entity_id   BIGINT NOT NULL,
    meta        JSONB,
    occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema applies the platform DDL.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("platform/db: ensure schema: %w", err)
	}
	return nil
}
