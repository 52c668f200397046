package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/unitmap-io/gounitmap/internal/api"
	"github.com/unitmap-io/gounitmap/internal/config"
	"github.com/unitmap-io/gounitmap/internal/mapping"
	"github.com/unitmap-io/gounitmap/internal/snapshot"
	"github.com/unitmap-io/gounitmap/internal/store"
	"github.com/unitmap-io/gounitmap/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config load")
	}
	if err := cfg.Validate(); err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config validation")
	}

	log := newLogger(cfg)

	holder := snapshot.NewHolder()
	repo := store.NewMemoryRepository(holder)
	repo.SetVersion(cfg.ConfigVersion)
	if cfg.DefaultUnitID != "" {
		repo.SetDefaultUnitID(cfg.DefaultUnitID)
	}

	if cfg.RuleFile != "" {
		raw, err := os.ReadFile(cfg.RuleFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.RuleFile).Msg("read rule file")
		}
		set, err := mapping.Parse(raw)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.RuleFile).Msg("parse rule file")
		}
		if err := repo.Replace(set); err != nil {
			log.Fatal().Err(err).Msg("load rule file")
		}
		log.Info().Int("rules", len(set.Rules)).Str("file", cfg.RuleFile).Msg("rules loaded")
	}

	telemetry.Init()
	watchSnapshot(holder)

	srvAPI := api.NewServer(repo, holder, log, api.Options{
		RateLimitPerIP: cfg.RateLimitPerIP,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Metrics:        true,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.AppEnv == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log
}

// watchSnapshot keeps the snapshot gauge in step with published updates.
func watchSnapshot(holder *snapshot.Holder) {
	telemetry.SnapshotRules.Set(float64(len(holder.Load().RuleSet.Rules)))
	ch, _ := holder.Subscribe()
	go func() {
		for range ch {
			telemetry.SnapshotRules.Set(float64(len(holder.Load().RuleSet.Rules)))
		}
	}()
}
