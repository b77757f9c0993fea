package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"simrun/internal/domain"
)

const (
	sqliteScheme = "sqlite://"
	mysqlScheme  = "mysql://"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR(64) NOT NULL PRIMARY KEY,
		started_at VARCHAR(40) NOT NULL,
		total_tests INTEGER NOT NULL,
		passed_tests INTEGER NOT NULL,
		failed_tests INTEGER NOT NULL,
		warning_tests INTEGER NOT NULL,
		duration_seconds DOUBLE NOT NULL,
		workers INTEGER NOT NULL,
		output_dir VARCHAR(1024) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS test_results (
		run_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL,
		has_warning INTEGER NOT NULL,
		phase VARCHAR(32) NOT NULL,
		duration_seconds DOUBLE NOT NULL,
		error_message TEXT,
		PRIMARY KEY (run_id, name)
	)`,
}

// History keeps every run in a SQL database. DSNs take the form
// sqlite://<path> or mysql://<go-sql-driver DSN>.
type History struct {
	db *sql.DB
}

// OpenHistory connects to dsn and creates the tables if needed
func OpenHistory(ctx context.Context, dsn string) (*History, error) {
	driver, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		path := strings.SplitN(source, "?", 2)[0]
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
		if !strings.Contains(source, "?") {
			source += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	h := &History{db: db}
	if err := h.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func parseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, sqliteScheme):
		driver, source = "sqlite", strings.TrimPrefix(dsn, sqliteScheme)
	case strings.HasPrefix(dsn, mysqlScheme):
		driver, source = "mysql", strings.TrimPrefix(dsn, mysqlScheme)
	default:
		return "", "", &domain.Error{Kind: domain.KindConfiguration, Op: "parse history dsn", Path: dsn, Err: fmt.Errorf("%w: want sqlite:// or mysql://", domain.ErrMalformed)}
	}
	if source == "" {
		return "", "", &domain.Error{Kind: domain.KindConfiguration, Op: "parse history dsn", Path: dsn, Err: fmt.Errorf("%w: empty data source", domain.ErrMalformed)}
	}
	return driver, source, nil
}

func (h *History) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := h.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create history tables: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores a run and its tests in one transaction
func (h *History) Record(ctx context.Context, summary *domain.RunSummary) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	m := summary.Meta
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, total_tests, passed_tests, failed_tests, warning_tests, duration_seconds, workers, output_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.Timestamp, m.TotalTests, m.PassedTests, m.FailedTests, m.WarningTests, m.DurationSeconds, m.Workers, m.OutputDir)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", m.RunID, err)
	}

	for _, t := range summary.Tests {
		warning := 0
		if t.Warning {
			warning = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO test_results (run_id, name, status, has_warning, phase, duration_seconds, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.RunID, t.Name, string(t.Status), warning, string(t.Phase), t.Seconds, t.Error)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit runs, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]domain.RunMeta, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT run_id, started_at, total_tests, passed_tests, failed_tests, warning_tests, duration_seconds, workers, output_dir
		FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunMeta
	for rows.Next() {
		var m domain.RunMeta
		if err := rows.Scan(&m.RunID, &m.Timestamp, &m.TotalTests, &m.PassedTests, &m.FailedTests, &m.WarningTests, &m.DurationSeconds, &m.Workers, &m.OutputDir); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// TestHistory returns the outcomes of one test across runs, newest first
func (h *History) TestHistory(ctx context.Context, name string, limit int) ([]domain.TestRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT t.name, t.status, t.has_warning, t.phase, t.duration_seconds, t.error_message, r.output_dir
		FROM test_results t JOIN runs r ON r.run_id = t.run_id
		WHERE t.name = ? ORDER BY r.started_at DESC, r.run_id DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query test history: %w", err)
	}
	defer rows.Close()

	var records []domain.TestRecord
	for rows.Next() {
		var (
			rec     domain.TestRecord
			status  string
			phase   string
			warning int
			errMsg  sql.NullString
			outDir  string
		)
		if err := rows.Scan(&rec.Name, &status, &warning, &phase, &rec.Seconds, &errMsg, &outDir); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		rec.Status = domain.Status(status)
		rec.Phase = domain.Phase(phase)
		rec.Warning = warning != 0
		rec.Error = errMsg.String
		rec.OutDir = filepath.Join(outDir, rec.Name)
		records = append(records, rec)
	}
	return records, rows.Err()
}
