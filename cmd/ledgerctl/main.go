// Command ledgerctl manages a personal ledger from the terminal.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"finance-tracker-go/internal/cli"
	"finance-tracker-go/internal/config"
	"finance-tracker-go/internal/database"
	"finance-tracker-go/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "optional yaml config file")
	plain := flag.Bool("plain", false, "print raw markdown")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}, cfg.LogLevel)

	s, closeStore, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open store")
	}

	app := cli.New(cfg, log, s, os.Stdout)
	app.Plain = *plain

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	cli.Register(subcommands.DefaultCommander, app)

	status := subcommands.Execute(context.Background())
	if err := closeStore(); err != nil {
		log.Error().Err(err).Msg("close store")
	}
	os.Exit(int(status))
}
