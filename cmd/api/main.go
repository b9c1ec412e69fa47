package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_catalog/internal/adapters/blobstore"
	server "hotel_catalog/internal/adapters/http_server"
	"hotel_catalog/internal/adapters/observability"
	redisad "hotel_catalog/internal/adapters/redis"
	"hotel_catalog/internal/app"
	"hotel_catalog/internal/domain"
	"hotel_catalog/internal/shared"
	"hotel_catalog/internal/storage/sqlstore"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := sqlstore.Open(openCtx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database connection failed")
	}
	if cfg.AutoMigrate {
		if err := sqlstore.Migrate(openCtx, db, cfg.DBDriver); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("migration failed")
		}
	}
	cancel()
	defer db.Close()
	log.Info().Str("driver", cfg.DBDriver).Msg("database connection ok")

	// deps
	repo := sqlstore.New(db)
	disk, err := blobstore.NewDisk(cfg.StorageDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.StorageDir).Msg("storage init failed")
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, caching disabled")
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	hotels := app.NewHotelService(repo, repo, disk, cache, cfg.CacheTTL)
	pictures := app.NewPictureService(repo, repo, disk, cache)

	// http
	srv := server.New(server.Options{Timeout: cfg.HTTPTimeout, Debug: cfg.AppDebug})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountStatic(disk.Root())
	srv.MountHandlers(&server.Handlers{
		Hotels:         hotels,
		Pictures:       pictures,
		Debug:          cfg.AppDebug,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("storage", disk.Root()).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
