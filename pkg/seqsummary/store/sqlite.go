// Package store exports summary tables to a SQLite database, keeping one entry per
// run so repeated extractions over the same data can be compared.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tleonardi/pycoQC/pkg/seqsummary"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	columns TEXT,
	counters TEXT,
	row_count INTEGER,
	created_at DATETIME
);
CREATE TABLE IF NOT EXISTS reads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	row_index INTEGER NOT NULL,
	fields TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS reads_run_id ON reads(run_id);
`

// SQLiteSink implements seqsummary.TableSink.
type SQLiteSink struct {
	db *sql.DB
}

var _ seqsummary.TableSink = (*SQLiteSink)(nil)

// RunInfo is a row of the runs table.
type RunInfo struct {
	ID        string
	Columns   []string
	Counters  seqsummary.Counters
	RowCount  int
	CreatedAt time.Time
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}
	return &SQLiteSink{db: db}, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// WriteTable stores the table and counters of one run in a single transaction.
// Each row is stored as a JSON object of its rendered non-empty cells.
func (s *SQLiteSink) WriteTable(ctx context.Context, runID string, table *seqsummary.Table, counters seqsummary.Counters) error {
	columnsJSON, err := json.Marshal(table.Columns)
	if err != nil {
		return err
	}
	countersJSON, err := json.Marshal(counters)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, columns, counters, row_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, string(columnsJSON), string(countersJSON), len(table.Rows), now); err != nil {
		return fmt.Errorf("saving run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO reads (run_id, row_index, fields) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range table.Rows {
		cells := make(map[string]string, r.Len())
		for _, k := range r.Keys() {
			cells[k] = table.Cell(i, k)
		}
		fieldsJSON, err := json.Marshal(cells)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, i, string(fieldsJSON)); err != nil {
			return fmt.Errorf("saving row %d of run %s: %w", i, runID, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns every stored run, most recent first.
func (s *SQLiteSink) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, columns, counters, row_count, created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info                  RunInfo
			columnsJSON, counters string
		)
		if err := rows.Scan(&info.ID, &columnsJSON, &counters, &info.RowCount, &info.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(columnsJSON), &info.Columns); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(counters), &info.Counters); err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Rows returns the stored cells of every row of a run, in row order.
func (s *SQLiteSink) Rows(ctx context.Context, runID string) ([]map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fields FROM reads WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		var fieldsJSON string
		if err := rows.Scan(&fieldsJSON); err != nil {
			return nil, err
		}
		cells := map[string]string{}
		if err := json.Unmarshal([]byte(fieldsJSON), &cells); err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}
