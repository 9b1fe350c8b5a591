// internal/data/database.go
package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"kitchenops/internal/logger"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Database connection pool configuration
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = time.Hour
	connMaxIdleTime = time.Minute * 15
	queryTimeout    = time.Second * 30
)

const TimeFormat = time.RFC3339Nano

// sqlitePragmas are applied on every pooled connection by the driver.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// Dialect selects placeholder syntax and driver.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// ParseDialect maps a DATABASE_DRIVER value onto a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	}
	return SQLite, fmt.Errorf("unsupported database driver %q", driver)
}

// Rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// =============================================================================
// STORE AND QUERIES
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every repository method. It runs against the pool or a transaction.
type Queries struct {
	q       querier
	dialect Dialect
	now     func() time.Time
}

// Store owns the connection pool.
type Store struct {
	*Queries
	db      *sql.DB
	dialect Dialect
}

// Open connects with retry, configures the pool and verifies the connection.
func Open(dialect Dialect, dsn string) (*Store, error) {
	return openWithRetry(dialect, dsn, 3)
}

func openWithRetry(dialect Dialect, dsn string, maxRetries int) (*Store, error) {
	driverName := "sqlite"
	if dialect == Postgres {
		driverName = "postgres"
	} else {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err := sql.Open(driverName, dsn)
		if err != nil {
			logger.LogWarn("Database connection attempt %d failed: %v", attempt, err)
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
				continue
			}
			return nil, fmt.Errorf("failed to open database after %d attempts: %w", maxRetries, err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
		db.SetConnMaxIdleTime(connMaxIdleTime)

		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.LogWarn("Database ping attempt %d failed: %v", attempt, err)
			db.Close()
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
				continue
			}
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		logger.LogInfo("Database connection established successfully (driver=%s, attempt %d)", dialect, attempt)
		return newStore(db, dialect), nil
	}

	return nil, fmt.Errorf("failed to initialize database after %d attempts", maxRetries)
}

func newStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		Queries: &Queries{q: db, dialect: dialect, now: utcNow},
		db:      db,
		dialect: dialect,
	}
}

// sqliteDSN turns a file path into a URI carrying the connection pragmas and
// makes sure the parent directory exists.
func sqliteDSN(dsn string) (string, error) {
	if strings.Contains(dsn, "_pragma") {
		return dsn, nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != "" && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqlitePragmas, nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

// DB exposes the pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks the connection with a short timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		logger.LogError("Database health check failed: %v", err)
		return fmt.Errorf("database connection unhealthy: %w", err)
	}
	return nil
}

// Close closes the database connection gracefully
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn inside a transaction. fn's error or a panic rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Queries{q: tx, dialect: s.dialect, now: s.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.LogError("Transaction rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}
	return nil
}

// SetClock overrides the timestamp source. Tests use it to pin created_at.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// =============================================================================
// GENERIC DATABASE OPERATIONS
// =============================================================================

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := q.q.ExecContext(ctx, q.dialect.Rebind(query), args...)
	if err != nil {
		logger.LogDebug("Database exec failed: query=%s, error=%v", query, err)
		return nil, translateError(err)
	}
	return result, nil
}

// query returns open rows; the caller must close them before issuing another statement.
func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := q.q.QueryContext(ctx, q.dialect.Rebind(query), args...)
	if err != nil {
		logger.LogDebug("Database query failed: query=%s, error=%v", query, err)
		return nil, translateError(err)
	}
	return rows, nil
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.q.QueryRowContext(ctx, q.dialect.Rebind(query), args...)
}

// affectedOrNotFound turns a zero-row update or delete into a NotFoundError.
func affectedOrNotFound(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(entity)
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// assignments accumulates the SET clause of a partial update.
type assignments struct {
	cols []string
	args []any
}

func (a *assignments) add(col string, v any) {
	a.cols = append(a.cols, col+" = ?")
	a.args = append(a.args, v)
}

func (a *assignments) empty() bool { return len(a.cols) == 0 }

func (a *assignments) clause() string { return strings.Join(a.cols, ", ") }

// =============================================================================
// TIME AND NULL HANDLING
// =============================================================================

func utcNow() time.Time { return time.Now().UTC() }

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// textTime scans timestamps stored as TEXT (or returned natively by the driver).
type textTime struct {
	Time  time.Time
	Valid bool
}

func (t *textTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *textTime) parse(s string) error {
	if s == "" {
		t.Time, t.Valid = time.Time{}, false
		return nil
	}
	parsed, err := time.Parse(TimeFormat, s)
	if err != nil {
		return fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	t.Time, t.Valid = parsed.UTC(), true
	return nil
}

func (t textTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func stringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
