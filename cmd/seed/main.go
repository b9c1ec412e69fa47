package main

import (
	"context"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_catalog/internal/adapters/blobstore"
	"hotel_catalog/internal/adapters/observability"
	"hotel_catalog/internal/adapters/placeholder"
	"hotel_catalog/internal/app"
	"hotel_catalog/internal/shared"
	"hotel_catalog/internal/storage/sqlstore"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("placeholder", cfg.PlaceholderBase).
		Int("hotels", cfg.SeedHotels).
		Int("workers", cfg.SeedWorkers).
		Msg("seeder starting")

	db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if err := sqlstore.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("db ping ok")

	repo := sqlstore.New(db)
	disk, err := blobstore.NewDisk(cfg.StorageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	// no cache: the API picks up seeded rows on its next miss
	hotels := app.NewHotelService(repo, repo, disk, nil, cfg.CacheTTL)
	pictures := app.NewPictureService(repo, repo, disk, nil)
	seeder := app.NewSeeder(hotels, pictures, placeholder.New(cfg.PlaceholderBase, cfg.PlaceholderRPS), uint64(time.Now().UnixNano()))

	workers := cfg.SeedWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var created, failed int64

	for i := 0; i < cfg.SeedHotels; i++ {
		// inputs come from one goroutine; the generator is not concurrency-safe
		in, n := seeder.Input(), seeder.PictureCount()

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("seeding interrupted")
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			h, err := seeder.SeedHotel(ctx, in, n)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Err(err).Str("name", in.Name).Msg("seed hotel failed")
				return
			}
			atomic.AddInt64(&created, 1)
			log.Info().Int64("id", h.ID).Str("name", h.Name).Int("pictures", len(h.Pictures)).Msg("hotel seeded")
		}()
	}

	wg.Wait()
	log.Info().Int64("created", created).Int64("failed", failed).Msg("seeding completed")
}
