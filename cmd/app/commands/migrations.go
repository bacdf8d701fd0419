package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var migrationSources = map[string]string{
	"postgres": "file://migrations/postgresql",
	"mysql":    "file://migrations/mysql",
}

// migrationURL turns the application connection string into one golang-migrate
// accepts. MySQL DSNs get the mysql:// scheme and multi-statement support,
// since some migration files hold several statements.
func migrationURL(dbDriver, dbConnectionString string) (string, error) {
	if dbDriver != "mysql" {
		return dbConnectionString, nil
	}
	dsn := strings.TrimPrefix(dbConnectionString, "mysql://")
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql connection string: %w", err)
	}
	cfg.MultiStatements = true
	return "mysql://" + cfg.FormatDSN(), nil
}

func newMigrate(dbDriver, dbConnectionString string) (*migrate.Migrate, error) {
	source, ok := migrationSources[dbDriver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", dbDriver)
	}
	databaseURL, err := migrationURL(dbDriver, dbConnectionString)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending migration. Nothing to apply is not an error.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string) error {
	logger.Info("running database migrations", slog.String("driver", dbDriver))

	m, err := newMigrate(dbDriver, dbConnectionString)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// RollbackMigrations reverts the last steps migrations.
func RollbackMigrations(logger *slog.Logger, dbDriver, dbConnectionString string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	logger.Info("rolling back database migrations",
		slog.String("driver", dbDriver),
		slog.Int("steps", steps),
	)

	m, err := newMigrate(dbDriver, dbConnectionString)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	logger.Info("rollback completed successfully")
	return nil
}
