package storagebuilder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Josue049/CronoSpark/internal/storage"
	memorystorage "github.com/Josue049/CronoSpark/internal/storage/memory"
	sqlstorage "github.com/Josue049/CronoSpark/internal/storage/sql"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSQLitePath     = "cronospark.db"
	defaultConnectTimeout = 15 * time.Second
)

var ErrUnsupportedDatabaseURL = errors.New("unsupported database url")

var (
	// libpq key/value form: "host=db user=cal password=secret dbname=cal".
	keyValueDSN      = regexp.MustCompile(`^[A-Za-z_]+\s*=`)
	keyValuePassword = regexp.MustCompile(`password\s*=\s*('(?:[^'\\]|\\.)*'|\S*)`)
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendMemory   Backend = "memory"
)

type Config struct {
	// DatabaseURL selects the store. Empty means the local SQLite file at SQLitePath.
	DatabaseURL     string
	SQLitePath      string
	ConnectTimeout  time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Target is a resolved storage location.
type Target struct {
	Backend Backend
	// Source is a connection string for PostgreSQL or a file path for SQLite.
	Source string
	// Display is Source without credentials, safe for logs.
	Display string
}

// Resolve decides where events are stored. A present but malformed or unknown
// DatabaseURL is an error and never falls back to the local file.
func Resolve(config Config) (Target, error) {
	raw := strings.TrimSpace(config.DatabaseURL)
	if raw == "" {
		path := config.SQLitePath
		if path == "" {
			path = DefaultSQLitePath
		}
		return Target{Backend: BackendSQLite, Source: path, Display: path}, nil
	}

	if !strings.Contains(raw, "://") && keyValueDSN.MatchString(raw) {
		display := keyValuePassword.ReplaceAllString(raw, "password=xxxxx")
		return Target{Backend: BackendPostgres, Source: raw, Display: display}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("malformed database url: %w", ErrUnsupportedDatabaseURL)
	}
	// SQLAlchemy style "postgresql+psycopg2://" names the driver after the plus sign.
	scheme, _, _ := strings.Cut(strings.ToLower(u.Scheme), "+")

	switch scheme {
	case "postgres", "postgresql":
		if u.Host == "" && u.Query().Get("host") == "" {
			return Target{}, fmt.Errorf("database url %q has no host: %w", u.Redacted(), ErrUnsupportedDatabaseURL)
		}
		u.Scheme = "postgres"
		return Target{Backend: BackendPostgres, Source: u.String(), Display: u.Redacted()}, nil
	case "sqlite":
		// sqlite:///relative.db and sqlite:////absolute.db
		path := strings.TrimPrefix(u.Path, "/")
		if path == "" {
			return Target{}, fmt.Errorf("sqlite database url has no path: %w", ErrUnsupportedDatabaseURL)
		}
		return Target{Backend: BackendSQLite, Source: path, Display: path}, nil
	case "file":
		path := u.Opaque
		if path == "" {
			path = u.Path
		}
		if path == "" {
			return Target{}, fmt.Errorf("file database url has no path: %w", ErrUnsupportedDatabaseURL)
		}
		return Target{Backend: BackendSQLite, Source: path, Display: path}, nil
	case "memory":
		return Target{Backend: BackendMemory, Display: "memory"}, nil
	default:
		return Target{}, fmt.Errorf("scheme %q: %w", u.Scheme, ErrUnsupportedDatabaseURL)
	}
}

// New resolves the target, connects to it and prepares the schema.
func New(ctx context.Context, config Config) (storage.Storage, Target, error) {
	target, err := Resolve(config)
	if err != nil {
		return nil, Target{}, err
	}

	var s storage.Storage
	switch target.Backend {
	case BackendMemory:
		s = memorystorage.New()
	case BackendPostgres, BackendSQLite:
		s = sqlstorage.New(sqlstorage.Config{
			Dialect:         sqlstorage.Dialect(target.Backend),
			Source:          target.Source,
			MaxOpenConns:    config.MaxOpenConns,
			MaxIdleConns:    config.MaxIdleConns,
			ConnMaxLifetime: config.ConnMaxLifetime,
		})
	}

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return nil, target, fmt.Errorf("failed to connect to %s database %s: %w", target.Backend, target.Display, err)
	}

	log.WithField("backend", target.Backend).WithField("target", target.Display).Info("storage is ready")
	return s, target, nil
}
