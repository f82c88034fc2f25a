package main

import (
	"os"

	"finance-tracker-go/internal/aggregate"
	"finance-tracker-go/internal/auth"
	"finance-tracker-go/internal/config"
	"finance-tracker-go/internal/database"
	httpserver "finance-tracker-go/internal/http"
	"finance-tracker-go/internal/ledger"
	"finance-tracker-go/internal/logger"
	"finance-tracker-go/internal/registry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel)

	s, closeStore, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open store")
	}
	defer closeStore()

	reg := registry.New(s, log)
	r, err := httpserver.NewServer(cfg, log, httpserver.Deps{
		Auth: auth.New(s, reg, log, auth.Options{
			Secret:     cfg.JWTSecret,
			TTL:        cfg.SessionTTL(),
			BcryptCost: cfg.BcryptCost,
		}),
		Ledger:    ledger.New(s, log),
		Registry:  reg,
		Aggregate: aggregate.New(s, cfg.Location(), cfg.DailyWindowDays),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	log.Info().Str("port", cfg.Port).Str("driver", cfg.DBDriver).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
