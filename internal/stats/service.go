package stats

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort describes the read side the service needs.
type RepositoryPort interface {
	DeptCaseRows(ctx context.Context) ([]DeptCaseRow, error)
	StaffCounts(ctx context.Context) (map[string]int, error)
	HotspotRows(ctx context.Context) ([]HotspotRow, error)
}

// Service coordinates aggregate computation with the cache layer.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService wires a Repository with a Cache helper.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// DepartmentEfficiency returns the ranked department dashboard, cached until
// the next write bumps the version.
func (s *Service) DepartmentEfficiency(ctx context.Context) ([]DepartmentEfficiency, error) {
	var result []DepartmentEfficiency
	err := s.cache.getJSON(ctx, keyDepartments, &result, func(ctx context.Context) (any, error) {
		var (
			rows  []DeptCaseRow
			staff map[string]int
		)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			rows, err = s.repo.DeptCaseRows(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			staff, err = s.repo.StaffCounts(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return ComputeDepartmentEfficiency(rows, staff), nil
	})
	return result, err
}

// LocationHotspots returns locations with recurring reports, busiest first.
func (s *Service) LocationHotspots(ctx context.Context) ([]LocationHotspot, error) {
	var result []LocationHotspot
	err := s.cache.getJSON(ctx, keyHotspots, &result, func(ctx context.Context) (any, error) {
		rows, err := s.repo.HotspotRows(ctx)
		if err != nil {
			return nil, err
		}
		return ComputeHotspots(rows), nil
	})
	return result, err
}

// Warmup recomputes both aggregates so the first dashboard hit after an
// invalidation is served from cache.
func (s *Service) Warmup(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.DepartmentEfficiency(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.LocationHotspots(ctx)
		return err
	})
	return g.Wait()
}
