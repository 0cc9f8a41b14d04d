package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS ledger_records (
    collection TEXT NOT NULL,
    record_key TEXT NOT NULL,
    payload    TEXT NOT NULL,
    PRIMARY KEY (collection, record_key)
)`

// SQLStore keeps every collection in one ledger_records table.
// It works against Postgres (lib/pq) and SQLite (go-sqlite3).
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens a database connection and initializes the schema.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
			dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dsn)
		}
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

// View implements Store.
func (s *SQLStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	return fn(&sqlTx{tx: tx, driver: s.driver, readOnly: true})
}

// Update implements Store.
// If fn returns an error, the transaction is rolled back.
func (s *SQLStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&sqlTx{tx: tx, driver: s.driver}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlTx struct {
	tx       *sql.Tx
	driver   string
	readOnly bool
}

func (t *sqlTx) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	var payload string
	query := bind(t.driver, `SELECT payload FROM ledger_records WHERE collection = ? AND record_key = ?`)
	err := t.tx.QueryRowContext(ctx, query, string(c), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", c, key, err)
	}
	return []byte(payload), nil
}

func (t *sqlTx) Put(ctx context.Context, c Collection, key string, data []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	query := bind(t.driver, `
		INSERT INTO ledger_records (collection, record_key, payload)
		VALUES (?, ?, ?)
		ON CONFLICT (collection, record_key) DO UPDATE SET payload = excluded.payload`)
	if _, err := t.tx.ExecContext(ctx, query, string(c), key, string(data)); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", c, key, err)
	}
	return nil
}

func (t *sqlTx) Delete(ctx context.Context, c Collection, key string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	query := bind(t.driver, `DELETE FROM ledger_records WHERE collection = ? AND record_key = ?`)
	if _, err := t.tx.ExecContext(ctx, query, string(c), key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c, key, err)
	}
	return nil
}

func (t *sqlTx) List(ctx context.Context, c Collection) ([][]byte, error) {
	query := bind(t.driver, `SELECT payload FROM ledger_records WHERE collection = ? ORDER BY record_key`)
	rows, err := t.tx.QueryContext(ctx, query, string(c))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	defer rows.Close()

	var results [][]byte
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c, err)
		}
		results = append(results, []byte(payload))
	}
	return results, rows.Err()
}

// bind rewrites ? placeholders to $N for Postgres.
func bind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
