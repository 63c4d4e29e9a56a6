package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"realestate-backend/internal/audit"
	"realestate-backend/internal/cache"
	"realestate-backend/internal/config"
	"realestate-backend/internal/database"
	"realestate-backend/internal/identity"
	"realestate-backend/internal/listing"
	"realestate-backend/internal/logger"
	"realestate-backend/internal/repository"
	"realestate-backend/internal/search"
	"realestate-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New().Writer(os.Stdout).Level(cfg.LogLevel).Format(cfg.LogFormat).Make()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	names := search.Names{Supply: cfg.SupplyIndex, Demand: cfg.DemandIndex}
	if err := search.Bootstrap(ctx, idx, names, 5, 5*time.Second); err != nil {
		return fmt.Errorf("search bootstrap: %w", err)
	}

	ids, err := identity.New(cfg.IDStrategy, cfg.SnowflakeNode)
	if err != nil {
		return err
	}

	var c cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, reads will miss the cache")
		}
		c = cache.NewRedis(rdb, cfg.CacheTTL)
	}

	rec := audit.NewRecorder(db)
	svc := listing.NewService(listing.Deps{
		Store:           repository.New(db),
		Index:           idx,
		IDs:             ids,
		Journal:         rec,
		Cache:           c,
		Log:             log,
		Names:           names,
		CrossMatchSize:  cfg.CrossMatchSize,
		DefaultListSize: cfg.DefaultListSize,
		MaxListSize:     cfg.MaxListSize,
	})

	app := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Index:   idx,
		Service: svc,
		Audit:   rec,
		IDs:     ids,
		Log:     log,
	})

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("search", cfg.SearchBackend).Msg("server listening")
		errc <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func openIndex(cfg *config.Config) (search.Index, error) {
	if cfg.SearchBackend == "memory" {
		return search.NewMemoryIndex(), nil
	}
	return search.NewClient(search.Config{
		Addresses:   cfg.SearchAddresses,
		Username:    cfg.SearchUsername,
		Password:    cfg.SearchPassword,
		InsecureTLS: cfg.SearchInsecure,
		Refresh:     cfg.IndexRefresh,
	})
}
