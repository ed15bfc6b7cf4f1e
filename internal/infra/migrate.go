package infra

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one schema step. Name is "<version>_<identifier>".
type Migration struct {
	Version uint
	Name    string
	SQL     string
}

func migrationSource() (source.Driver, error) {
	return iofs.New(migrationFiles, "migrations")
}

// Migrations lists the embedded up steps in apply order.
func Migrations() ([]Migration, error) {
	src, err := migrationSource()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var out []Migration
	version, err := src.First()
	for err == nil {
		m, readErr := readUp(src, version)
		if readErr != nil {
			return nil, readErr
		}
		out = append(out, m)
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return out, nil
}

func readUp(src source.Driver, version uint) (Migration, error) {
	r, identifier, err := src.ReadUp(version)
	if err != nil {
		return Migration{}, fmt.Errorf("read migration %d: %w", version, err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return Migration{}, fmt.Errorf("read migration %d: %w", version, err)
	}
	return Migration{Version: version, Name: fmt.Sprintf("%04d_%s", version, identifier), SQL: string(body)}, nil
}

// Migrate applies pending migrations with golang-migrate and returns the
// names it applied.
func Migrate(ctx context.Context, databaseURL string, logger zerolog.Logger) ([]string, error) {
	return runMigrations(ctx, databaseURL, logger, func(m *migrate.Migrate) error { return m.Up() })
}

// Rollback reverts the last steps migrations and returns their names.
func Rollback(ctx context.Context, databaseURL string, logger zerolog.Logger, steps int) ([]string, error) {
	if steps < 1 {
		return nil, fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	return runMigrations(ctx, databaseURL, logger, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func runMigrations(ctx context.Context, databaseURL string, logger zerolog.Logger, run func(*migrate.Migrate) error) ([]string, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", describePQ(err))
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", describePQ(err))
	}
	src, err := migrationSource()
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	m.Log = migrateLogger{logger: logger}

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-stopped:
		}
	}()

	before, err := currentVersion(m)
	if err != nil {
		return nil, err
	}
	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("migrate: %w", describePQ(err))
	}
	after, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	steps, err := Migrations()
	if err != nil {
		return nil, err
	}
	names := changedBetween(steps, before, after)
	for _, name := range names {
		logger.Info().Str("migration", name).Uint("from", before).Uint("to", after).Msg("migration applied")
	}
	return names, nil
}

func currentVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", describePQ(err))
	case dirty:
		return version, fmt.Errorf("schema version %d is dirty; fix it and force the version", version)
	}
	return version, nil
}

// changedBetween returns the steps crossed when moving from one version to
// another, in the order they ran.
func changedBetween(steps []Migration, from, to uint) []string {
	var out []string
	if to >= from {
		for _, s := range steps {
			if s.Version > from && s.Version <= to {
				out = append(out, s.Name)
			}
		}
		return out
	}
	for i := len(steps) - 1; i >= 0; i-- {
		if s := steps[i]; s.Version > to && s.Version <= from {
			out = append(out, s.Name)
		}
	}
	return out
}

type migrateLogger struct {
	logger zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.GetLevel() <= zerolog.DebugLevel
}

// describePQ adds the Postgres error code and detail when err comes from
// the server.
func describePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Detail != "" {
			return fmt.Errorf("%w (code %s: %s)", err, pqErr.Code, pqErr.Detail)
		}
		return fmt.Errorf("%w (code %s)", err, pqErr.Code)
	}
	return err
}
