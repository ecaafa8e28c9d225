package workload

import (
	"context"
	"time"

	"github.com/campuswatch/campuswatch/internal/accounts"
	"github.com/campuswatch/campuswatch/internal/roles"
)

// RepositoryPort describes the read side the service needs.
type RepositoryPort interface {
	CaseRows(ctx context.Context, staffID int64) ([]CaseRow, error)
	StaffIDs(ctx context.Context) ([]int64, error)
}

// AccountsPort resolves staff accounts.
type AccountsPort interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
}

// Service computes per-staff pressure snapshots.
type Service struct {
	repo     RepositoryPort
	accounts AccountsPort
	cfg      Config
	now      func() time.Time
}

func NewService(repo RepositoryPort, accountsPort AccountsPort, cfg Config) *Service {
	return &Service{repo: repo, accounts: accountsPort, cfg: cfg, now: time.Now}
}

// Snapshot derives the staff member's current workload. The actor must be the
// staff member themselves or rank supervisor-or-above.
func (s *Service) Snapshot(ctx context.Context, staffID int64, actor accounts.Account) (Snapshot, error) {
	if err := roles.EnsureViewWorkload(actor.Role, actor.ID, staffID); err != nil {
		return Snapshot{}, err
	}
	if _, err := s.accounts.Get(ctx, staffID); err != nil {
		return Snapshot{}, err
	}
	rows, err := s.repo.CaseRows(ctx, staffID)
	if err != nil {
		return Snapshot{}, err
	}
	return Compute(staffID, rows, s.now(), s.cfg), nil
}

// Scan computes snapshots for every active staff member. Used by the periodic
// pressure scan; reads are unlocked and may lag in-flight transitions.
func (s *Service) Scan(ctx context.Context) ([]Snapshot, error) {
	ids, err := s.repo.StaffIDs(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	snaps := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		rows, err := s.repo.CaseRows(ctx, id)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, Compute(id, rows, now, s.cfg))
	}
	return snaps, nil
}
