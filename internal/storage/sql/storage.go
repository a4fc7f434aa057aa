package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Josue049/CronoSpark/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const (
	dbErrUniqueViolation = "23505"
	sqliteParams         = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite"
)

const selectEvents = `SELECT id, title, description, "date", "time", link, urgent, created_at FROM events `

func init() {
	sqlx.BindDriver(string(DialectSQLite), sqlx.QUESTION)
}

type Config struct {
	Dialect Dialect
	// Source is a connection string for PostgreSQL or a file path for SQLite.
	Source          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Storage struct {
	config Config
	db     *sqlx.DB
}

type eventRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Date        sql.NullString `db:"date"`
	Time        sql.NullString `db:"time"`
	Link        sql.NullString `db:"link"`
	Urgent      bool           `db:"urgent"`
	CreatedAt   time.Time      `db:"created_at"`
}

func New(config Config) *Storage {
	return &Storage{config: config}
}

func (s *Storage) Dialect() Dialect {
	return s.config.Dialect
}

func (s *Storage) Connect(ctx context.Context) error {
	dsn := s.config.Source
	if s.config.Dialect == DialectSQLite {
		if dir := filepath.Dir(s.config.Source); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
		}
		dsn += sqliteParams
	}

	db, err := sqlx.ConnectContext(ctx, string(s.config.Dialect), dsn)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return fmt.Errorf("%w: %v", storage.ErrConnectionFailed, err)
	}
	if s.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.config.MaxOpenConns)
	}
	if s.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(s.config.MaxIdleConns)
	}
	if s.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(s.config.ConnMaxLifetime)
	}
	s.db = db

	if err := s.Migrate(ctx); err != nil {
		db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrConnectionFailed
	}
	return s.db.PingContext(ctx)
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	args := []interface{}{
		e.Title, nullString(e.Description), nullString(e.Date), nullString(e.Time), nullString(e.Link),
		e.Urgent, createdAt,
	}

	var err error
	switch e.ID {
	case 0:
		err = s.db.GetContext(
			ctx,
			&e.ID,
			s.db.Rebind(`INSERT INTO events(title, description, "date", "time", link, urgent, created_at) `+
				`VALUES(?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			args...)
	default:
		_, err = s.db.ExecContext(
			ctx,
			s.db.Rebind(`INSERT INTO events(id, title, description, "date", "time", link, urgent, created_at) `+
				`VALUES(?, ?, ?, ?, ?, ?, ?, ?)`),
			append([]interface{}{e.ID}, args...)...)
		if err == nil && s.config.Dialect == DialectPostgres {
			// Move the BIGSERIAL sequence past explicit ids so later inserts do not collide.
			_, err = s.db.ExecContext(ctx,
				`SELECT setval(pg_get_serial_sequence('events', 'id'), GREATEST((SELECT MAX(id) FROM events), 1))`)
		}
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("duplicate ID %d: %w", e.ID, storage.ErrDuplicateEventID)
	}
	if err != nil {
		return fmt.Errorf("failed to add event: %w", err)
	}
	e.CreatedAt = createdAt
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id int64) (storage.Event, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(selectEvents+"WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("failed to get event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, fmt.Errorf("failed to get event with id %d: %w", id, err)
	}
	return row.toEvent(), nil
}

func (s *Storage) UpdateEvent(ctx context.Context, id int64, e storage.Event) error {
	res, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`UPDATE events SET title = ?, description = ?, "date" = ?, "time" = ?, link = ?, urgent = ? `+
			`WHERE id = ?`),
		e.Title,
		nullString(e.Description),
		nullString(e.Date),
		nullString(e.Time),
		nullString(e.Link),
		e.Urgent,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update event with id %d: %w", id, err)
	}
	return checkAffected(res, id, "update")
}

func (s *Storage) RemoveEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to remove event with id %d: %w", id, err)
	}
	return checkAffected(res, id, "remove")
}

func (s *Storage) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return s.selectEvents(ctx,
		selectEvents+`ORDER BY "date" ASC NULLS FIRST, "time" ASC NULLS FIRST, created_at DESC, id DESC`)
}

func (s *Storage) ListUrgentEvents(ctx context.Context, limit int) ([]storage.Event, error) {
	return s.selectEvents(ctx,
		s.db.Rebind(selectEvents+`WHERE urgent = ? ORDER BY "date" ASC NULLS FIRST, id ASC LIMIT ?`),
		true, limit)
}

func (s *Storage) GetUrgentEventsBetween(ctx context.Context, fromDate, toDate string) ([]storage.Event, error) {
	return s.selectEvents(ctx,
		s.db.Rebind(selectEvents+`WHERE urgent = ? AND "date" >= ? AND "date" <= ? ORDER BY "date" ASC, id ASC`),
		true, fromDate, toDate)
}

func (s *Storage) RemoveBefore(ctx context.Context, date string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM events WHERE "date" IS NOT NULL AND "date" < ?`), date)
	if err != nil {
		return 0, fmt.Errorf("failed to remove events before %s: %w", date, err)
	}
	return res.RowsAffected()
}

func (s *Storage) selectEvents(ctx context.Context, query string, args ...interface{}) ([]storage.Event, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	events := make([]storage.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}
	return events, nil
}

func (r eventRow) toEvent() storage.Event {
	return storage.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Date:        r.Date.String,
		Time:        r.Time.String,
		Link:        r.Link.String,
		Urgent:      r.Urgent,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func checkAffected(res sql.Result, id int64, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s event with id %d: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s event with id %d: %w", op, id, storage.ErrNotFoundEvent)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == dbErrUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
