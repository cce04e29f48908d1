package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/matteolefer/escapedia/internal/adapters/observability"
	"github.com/matteolefer/escapedia/internal/domain"
	"github.com/matteolefer/escapedia/internal/slug"
)

var ErrCityNotFound = errors.New("city not found in dataset")

// SyncService runs one enrichment pass for a single city: search the
// provider, resolve each place sequentially, reconcile into the
// dataset, sort, and rewrite the file. Strictly one request in flight;
// the provider adapters own the pacing.
type SyncService struct {
	source domain.PlacesSource
	store  domain.DatasetStore
}

func NewSyncService(source domain.PlacesSource, store domain.DatasetStore) *SyncService {
	return &SyncService{source: source, store: store}
}

type RunResult struct {
	City    string
	Added   int
	Updated int
	Skipped int
	Wrote   bool
}

func (s *SyncService) Run(ctx context.Context, cityArg, countryArg string) (RunResult, error) {
	citySlug := slug.Make(cityArg)
	if citySlug == "" {
		return RunResult{}, fmt.Errorf("city name %q yields an empty slug", cityArg)
	}
	location := cityArg
	if countryArg != "" {
		location = cityArg + ", " + countryArg
	}

	cities, err := s.store.Load(ctx)
	if err != nil {
		return RunResult{}, err
	}
	idx := findCity(cities, citySlug, slug.Make(countryArg))
	if idx < 0 {
		return RunResult{}, fmt.Errorf("%w: slug %q", ErrCityNotFound, citySlug)
	}
	city := &cities[idx]
	res := RunResult{City: city.Name}

	log.Info().
		Str("source", s.source.Name()).
		Str("location", location).
		Msg("fetching places")

	stubs, err := s.source.Search(ctx, location)
	if err != nil {
		return res, err
	}
	stubs = dedupe(stubs)
	if len(stubs) == 0 {
		log.Warn().Str("location", location).Msg("no places found; leaving dataset untouched")
		return res, nil
	}

	for _, stub := range stubs {
		exp, err := s.source.Resolve(ctx, stub)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn().Err(err).
				Str("place", stub.Name).
				Str("placeId", stub.ID).
				Msg("resolve failed; skipping place")
			res.Skipped++
			continue
		}
		if exp == nil {
			res.Skipped++
			continue
		}

		list, created, changed := reconcile(city.Experiences, *exp)
		city.Experiences = list
		switch {
		case created:
			res.Added++
			log.Info().
				Str("title", exp.Title).
				Str("category", exp.Category).
				Msg("added place")
		case changed:
			res.Updated++
			log.Info().
				Str("title", exp.Title).
				Str("id", slug.Make(exp.Title)).
				Str("placeId", exp.PlaceID).
				Msg("updated place")
		}
	}

	sortExperiences(city.Experiences)
	sortCities(cities)

	if err := s.store.Save(ctx, cities); err != nil {
		return res, err
	}
	res.Wrote = true
	observability.ObserveSync(citySlug, res.Added, res.Updated, res.Skipped)

	log.Info().
		Str("city", res.City).
		Int("added", res.Added).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Msg("sync completed")
	return res, nil
}

// findCity matches by normalized slug (explicit slug field wins over
// the name), optionally narrowed by normalized country.
func findCity(cities []domain.City, citySlug, countrySlug string) int {
	for i, c := range cities {
		key := c.Slug
		if key == "" {
			key = c.Name
		}
		if slug.Make(key) != citySlug {
			continue
		}
		if countrySlug != "" && c.Country != "" && slug.Make(c.Country) != countrySlug {
			continue
		}
		return i
	}
	return -1
}

// dedupe drops repeated stubs by identifier, keeping first occurrence.
func dedupe(stubs []domain.PlaceStub) []domain.PlaceStub {
	seen := make(map[string]bool, len(stubs))
	out := stubs[:0]
	for _, st := range stubs {
		if st.ID != "" && seen[st.ID] {
			continue
		}
		seen[st.ID] = true
		out = append(out, st)
	}
	return out
}
