package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/Iron-Ham/transferwindow/internal/errors"
	"github.com/Iron-Ham/transferwindow/internal/resource"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "resources"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name string

	placeholder func(n int) string
	upsert      string // format verb receives the table name
	permanent   func(err error) bool
}

// MySQL is the MySQL and MariaDB dialect.
var MySQL = Dialect{
	Name:        DriverMySQL,
	placeholder: func(int) string { return "?" },
	upsert: "INSERT INTO %s (id, display_name, status, holder) VALUES (?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE display_name = VALUES(display_name), status = VALUES(status), holder = VALUES(holder)",
	permanent: func(err error) bool {
		var me *mysql.MySQLError
		if !errors.As(err, &me) {
			return false
		}
		switch me.Number {
		case 1044, 1045, 1049, 1054, 1146: // access denied, bad db, bad column, no table
			return true
		}
		return false
	},
}

// Postgres is the PostgreSQL dialect.
var Postgres = Dialect{
	Name:        DriverPostgres,
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	upsert: "INSERT INTO %s (id, display_name, status, holder) VALUES ($1, $2, $3, $4) " +
		"ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, status = EXCLUDED.status, holder = EXCLUDED.holder",
	permanent: func(err error) bool {
		var pe *pq.Error
		if !errors.As(err, &pe) {
			return false
		}
		// 28: invalid authorization, 3D: invalid catalog, 42: syntax or access rule.
		switch pe.Code.Class() {
		case "28", "3D", "42":
			return true
		}
		return false
	},
}

// SQL is a Store backed by a relational table with the columns
// id, display_name, status and holder (nullable).
type SQL struct {
	db      *sql.DB
	dialect Dialect
	table   string
	timeout time.Duration

	fetchQuery  string
	updateQuery string
	upsertQuery string
}

// NewSQL wraps an open database handle. The caller keeps ownership of db
// until Close is called on the returned store.
func NewSQL(db *sql.DB, dialect Dialect, table string, timeout time.Duration) (*SQL, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, errors.NewValidationError("invalid table name").WithField("store.table").WithValue(table)
	}

	p := dialect.placeholder
	return &SQL{
		db:          db,
		dialect:     dialect,
		table:       table,
		timeout:     timeout,
		fetchQuery:  fmt.Sprintf("SELECT id, display_name, status, holder FROM %s WHERE id = %s", table, p(1)),
		updateQuery: fmt.Sprintf("UPDATE %s SET status = %s, holder = %s WHERE id = %s", table, p(1), p(2), p(3)),
		upsertQuery: fmt.Sprintf(dialect.upsert, table),
	}, nil
}

// OpenMySQL connects to MySQL. The DSN is rewritten so that UPDATE reports
// matched rather than changed rows; writing the values a row already holds
// still counts as applied.
func OpenMySQL(ctx context.Context, dsn, table string, timeout time.Duration) (*SQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.NewValidationError("invalid mysql dsn").WithField("store.dsn").WithCause(err)
	}
	cfg.ClientFoundRows = true
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.NewStoreError("open", err).WithBackend(DriverMySQL)
	}
	return openSQL(ctx, sql.OpenDB(connector), MySQL, table, timeout)
}

// OpenPostgres connects to PostgreSQL.
func OpenPostgres(ctx context.Context, dsn, table string, timeout time.Duration) (*SQL, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, errors.NewValidationError("invalid postgres dsn").WithField("store.dsn").WithCause(err)
	}
	return openSQL(ctx, sql.OpenDB(connector), Postgres, table, timeout)
}

func openSQL(ctx context.Context, db *sql.DB, dialect Dialect, table string, timeout time.Duration) (*SQL, error) {
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	pingCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.NewStoreError("ping", err).WithBackend(dialect.Name)
	}

	s, err := NewSQL(db, dialect, table, timeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the table when it does not exist.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"id VARCHAR(64) PRIMARY KEY, "+
		"display_name VARCHAR(255) NOT NULL, "+
		"status VARCHAR(32) NOT NULL, "+
		"holder VARCHAR(255) NULL)", s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return s.storeErr("schema", "", err)
	}
	return nil
}

func (s *SQL) Fetch(ctx context.Context, id string) (resource.Record, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var (
		rec    resource.Record
		status string
		holder sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.fetchQuery, id).Scan(&rec.ID, &rec.DisplayName, &status, &holder)
	if errors.Is(err, sql.ErrNoRows) {
		return resource.Record{}, errors.NewNotFoundError("resource", id)
	}
	if err != nil {
		return resource.Record{}, s.storeErr("fetch", id, err)
	}
	rec.Status = resource.Status(status)
	rec.Holder = holder.String
	return rec, nil
}

func (s *SQL) ConditionalUpdate(ctx context.Context, id string, status resource.Status, holder string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.updateQuery, string(status), nullable(holder), id)
	if err != nil {
		return false, s.storeErr("update", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.storeErr("update", id, err)
	}
	return n > 0, nil
}

func (s *SQL) Seed(ctx context.Context, rec resource.Record) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.upsertQuery, rec.ID, rec.DisplayName, string(rec.Status), nullable(rec.Holder)); err != nil {
		return s.storeErr("seed", rec.ID, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) storeErr(op, id string, cause error) *errors.StoreError {
	return errors.NewStoreError(op, cause).
		WithBackend(s.dialect.Name).
		WithResourceID(id).
		WithRetryable(!s.dialect.permanent(cause))
}

func nullable(holder string) sql.NullString {
	return sql.NullString{String: holder, Valid: holder != resource.HolderNone}
}
