package sqlstorage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

type migration struct {
	version int
	name    string
	sql     string
}

// migrationLockID keys the PostgreSQL advisory lock held while migrating.
const migrationLockID int64 = 7405913021

type migrationRunner interface {
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// Migrate applies pending migrations of the storage dialect in one transaction.
// The transaction holds a database wide lock, so processes starting together
// apply every migration once.
func (s *Storage) Migrate(ctx context.Context) error {
	migrations, err := loadMigrations(s.config.Dialect)
	if err != nil {
		return err
	}
	if s.config.Dialect == DialectSQLite {
		return s.migrateSQLite(ctx, migrations)
	}
	return s.migratePostgres(ctx, migrations)
}

func (s *Storage) migratePostgres(ctx context.Context, migrations []migration) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migrations: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("locking schema: %w", err)
	}
	if err := s.applyMigrations(ctx, tx, migrations); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migrations: %w", err)
	}
	return nil
}

func (s *Storage) migrateSQLite(ctx context.Context, migrations []migration) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("starting migrations: %w", err)
	}
	defer conn.Close()

	// IMMEDIATE takes the write lock before the version is read; busy_timeout makes others wait for it.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("locking schema: %w", err)
	}
	if err := s.applyMigrations(ctx, conn, migrations); err != nil {
		conn.ExecContext(context.Background(), "ROLLBACK")
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		conn.ExecContext(context.Background(), "ROLLBACK")
		return fmt.Errorf("committing migrations: %w", err)
	}
	return nil
}

func (s *Storage) applyMigrations(ctx context.Context, db migrationRunner, migrations []migration) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := db.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.name, err)
		}
		if _, err := db.ExecContext(ctx, db.Rebind("INSERT INTO schema_migrations(version) VALUES(?)"), m.version); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.name, err)
		}
		log.WithField("dialect", s.config.Dialect).WithField("migration", m.name).Info("migration applied")
	}
	return nil
}

// SchemaVersion returns the latest applied migration version.
func (s *Storage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	return version, err
}

func loadMigrations(dialect Dialect) ([]migration, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("unknown dialect %q: %w", dialect, err)
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("incorrect migration name %s", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("incorrect migration version %s: %w", name, err)
		}
		data, err := fs.ReadFile(migrationsFS, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration{version: version, name: name, sql: string(data)})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}
