package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okanacar/mailsink/pkg/severity"

	_ "modernc.org/sqlite"
)

// SQLite implements the Journal interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite journal at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Append(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	if !rec.Level.Valid() {
		return fmt.Errorf("journal: invalid level %d", int(rec.Level))
	}

	fields := "{}"
	if len(rec.Fields) > 0 {
		data, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
		fields = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log_entries (id, time, level, source, message, fields, retained)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time, rec.Level.String(), rec.Source, rec.Message, fields, rec.Retained,
	)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (s *SQLite) Query(ctx context.Context, filter Filter) ([]Record, error) {
	query := "SELECT id, time, level, source, message, fields, retained FROM log_entries"
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var level, fields string
		if err := rows.Scan(&r.ID, &r.Time, &level, &r.Source, &r.Message, &fields, &r.Retained); err != nil {
			return nil, fmt.Errorf("scan log entry row: %w", err)
		}
		r.Level, err = severity.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("journal entry %s: %w", r.ID, err)
		}
		if fields != "" && fields != "{}" {
			if err := json.Unmarshal([]byte(fields), &r.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields for %s: %w", r.ID, err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM log_entries WHERE time < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune log entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from a Filter.
func buildWhereClause(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if filter.MinLevel > severity.Debug {
		// Ranks are ordered in Go, not in the stored names; match the
		// allowed names explicitly.
		var names []string
		for l := filter.MinLevel; l <= severity.Emergency; l++ {
			names = append(names, "?")
			args = append(args, l.String())
		}
		conditions = append(conditions, fmt.Sprintf("level IN (%s)", strings.Join(names, ", ")))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "time >= ?")
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "time < ?")
		args = append(args, filter.EndTime)
	}

	return strings.Join(conditions, " AND "), args
}
