package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"finance-tracker-go/internal/config"
	"finance-tracker-go/internal/models"
	"finance-tracker-go/internal/store"
)

// Connect opens the relational database selected by cfg.DBDriver.
func Connect(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	gormLogger := logger.Default
	if !cfg.DBLogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode,
		)
		dialector = postgres.Open(dsn)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("database: driver %q is not relational", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        store.MonotonicClock(time.Now),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.DBDriver == "sqlite" {
		applyPragmas(sqlDB, log)
	}
	return db, nil
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// applyPragmas tunes sqlite. A pragma that fails leaves the default in
// place, so it is logged rather than fatal.
func applyPragmas(db execer, log zerolog.Logger) {
	for _, p := range sqlitePragmas {
		if _, err := db.Exec(p); err != nil {
			log.Warn().Err(err).Str("pragma", p).Msg("sqlite pragma failed")
		}
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.BankAccount{},
		&models.CreditCard{},
		&models.Classification{},
		&models.Category{},
		&models.Transaction{},
	)
}

// Open builds the record store for cfg: a migrated gorm store for
// postgres/sqlite, or the JSON snapshot store for "json".
func Open(cfg *config.Config, log zerolog.Logger) (store.Store, func() error, error) {
	if cfg.DBDriver == "json" {
		m, err := store.NewMemory(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("driver", "json").Str("path", cfg.DBPath).Msg("opened snapshot store")
		return m, func() error { return nil }, nil
	}

	db, err := Connect(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql db: %w", err)
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("connected to database")
	return store.NewGorm(db), sqlDB.Close, nil
}
