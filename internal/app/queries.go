package app

import (
	"context"
	"fmt"
	"time"

	"github.com/matteolefer/escapedia/internal/domain"
	"github.com/matteolefer/escapedia/internal/slug"
)

// QueryService serves the read side of the dataset through the
// process-scoped cache. Invalidate resets the cache after an external
// rewrite of the file (e.g. a sync run).
type QueryService struct {
	store    domain.DatasetStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(store domain.DatasetStore, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) ListCities(ctx context.Context) ([]domain.CitySummary, error) {
	const key = "cities:index"
	var out []domain.CitySummary
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	cities, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out = make([]domain.CitySummary, 0, len(cities))
	for _, c := range cities {
		out = append(out, c.Summary())
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) GetCity(ctx context.Context, slugArg string) (domain.City, error) {
	cs := slug.Make(slugArg)
	key := "city:" + cs
	var c domain.City
	if ok, _ := s.cache.Get(ctx, key, &c); ok {
		return c, nil
	}
	cities, err := s.store.Load(ctx)
	if err != nil {
		return domain.City{}, err
	}
	idx := findCity(cities, cs, "")
	if idx < 0 {
		return domain.City{}, fmt.Errorf("%w: slug %q", ErrCityNotFound, cs)
	}
	_ = s.cache.Set(ctx, key, cities[idx], int(s.cacheTTL.Seconds()))
	return cities[idx], nil
}

func (s *QueryService) Invalidate(ctx context.Context) error {
	return s.cache.Reset(ctx)
}
