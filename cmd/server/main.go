package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "github.com/matteolefer/escapedia/internal/adapters/http_server"
	"github.com/matteolefer/escapedia/internal/adapters/memcache"
	"github.com/matteolefer/escapedia/internal/adapters/observability"
	"github.com/matteolefer/escapedia/internal/adapters/rediscache"
	"github.com/matteolefer/escapedia/internal/app"
	"github.com/matteolefer/escapedia/internal/domain"
	"github.com/matteolefer/escapedia/internal/shared"
	"github.com/matteolefer/escapedia/internal/storage/dataset"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = rediscache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
	} else {
		cache = memcache.New()
		log.Info().Msg("using in-process cache")
	}

	q := app.NewQueryService(dataset.New(cfg.DataPath), cache, cfg.CacheTTL)

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})
	srv.MountStatic(cfg.WebRoot)

	log.Info().Str("addr", cfg.HTTPAddr).Str("data", cfg.DataPath).Msg("server listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("server stopped")
}
