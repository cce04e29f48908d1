package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/matteolefer/escapedia/internal/adapters/google"
	"github.com/matteolefer/escapedia/internal/adapters/observability"
	"github.com/matteolefer/escapedia/internal/adapters/osm"
	"github.com/matteolefer/escapedia/internal/app"
	"github.com/matteolefer/escapedia/internal/domain"
	"github.com/matteolefer/escapedia/internal/shared"
	"github.com/matteolefer/escapedia/internal/storage/dataset"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: sync <city> [country]")
	}
	city := os.Args[1]
	country := strings.Join(os.Args[2:], " ")

	observability.Serve()

	source, err := buildSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places source")
	}

	log.Info().
		Str("provider", source.Name()).
		Str("city", city).
		Str("country", country).
		Str("data", cfg.DataPath).
		Msg("sync starting")

	svc := app.NewSyncService(source, dataset.New(cfg.DataPath))
	res, err := svc.Run(ctx, city, country)
	if err != nil {
		if errors.Is(err, app.ErrCityNotFound) {
			log.Fatal().Str("city", city).Msg("city is not in the dataset; add it first")
		}
		log.Fatal().Err(err).Msg("sync failed")
	}

	log.Info().
		Str("city", res.City).
		Int("added", res.Added).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Bool("wrote", res.Wrote).
		Msg("sync completed")
}

func buildSource(cfg shared.Config) (domain.PlacesSource, error) {
	switch cfg.Provider {
	case "osm", "openstreetmap":
		return osm.New(osm.Options{
			NominatimBase: cfg.NominatimBase,
			OverpassBase:  cfg.OverpassBase,
			Language:      cfg.Language,
			UserAgent:     cfg.UserAgent,
			Delay:         cfg.OSMDelay,
			MaxResults:    cfg.OverpassCap,
		}), nil
	case "google":
		return google.New(google.Options{
			Base:         cfg.GoogleBase,
			Key:          cfg.GoogleKey,
			Language:     cfg.Language,
			UserAgent:    cfg.UserAgent,
			TextDelay:    cfg.TextDelay,
			DetailsDelay: cfg.DetailsDelay,
			PhotoDelay:   cfg.PhotoDelay,
			PageDelay:    cfg.PageDelay,
			MaxPages:     cfg.MaxPages,
		})
	default:
		return nil, errors.New("unknown PLACES_PROVIDER " + cfg.Provider)
	}
}
