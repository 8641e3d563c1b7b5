// Package audit records every executed intent with secrets masked.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"
)

// Entry is one audit_log row.
type Entry struct {
	ID            int64
	CorrelationID string
	Timestamp     time.Time
	Level         string
	Username      string
	Intent        string
	Params        map[string]string
	Result        string
	Message       string
}

// Logger writes audit records to zap and, when opened with a path, SQLite.
type Logger struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// New returns a Logger that only writes to zap.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("audit"), now: time.Now}
}

// Open returns a Logger that also persists records in the database at path.
func Open(path string, logger *zap.Logger) (*Logger, error) {
	l := New(logger)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		correlation_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		username TEXT,
		intent TEXT,
		params TEXT,
		result TEXT,
		message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_log(username);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit_log table: %w", err)
	}
	l.db = db
	return l, nil
}

// Close releases the database, if any.
func (l *Logger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record logs one execution. The returned id correlates the zap line with
// the stored row.
func (l *Logger) Record(ctx context.Context, level zapcore.Level, user, intent string, params map[string]string, result string) (string, error) {
	id := uuid.NewString()
	masked := MaskParams(params)
	resultText := MaskText(result, params)
	message := MaskText(fmt.Sprintf("user '%s' executed '%s' with result: %s", user, intent, truncate(resultText, 100)), params)

	if ce := l.logger.Check(level, message); ce != nil {
		ce.Write(
			zap.String("id", id),
			zap.String("user", user),
			zap.String("intent", intent),
			zap.Any("params", masked),
			zap.String("result", resultText),
		)
	}

	if l.db == nil {
		return id, nil
	}

	paramsJSON, err := json.Marshal(masked)
	if err != nil {
		return id, fmt.Errorf("failed to encode params: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO audit_log (correlation_id, timestamp, level, username, intent, params, result, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, l.now().UTC().Format(time.RFC3339Nano), level.CapitalString(), user, intent,
		string(paramsJSON), resultText, message)
	if err != nil {
		return id, fmt.Errorf("failed to write audit record: %w", err)
	}
	return id, nil
}

// Info records a successful execution.
func (l *Logger) Info(ctx context.Context, user, intent string, params map[string]string, result string) (string, error) {
	return l.Record(ctx, zapcore.InfoLevel, user, intent, params, result)
}

// Error records a failed execution.
func (l *Logger) Error(ctx context.Context, user, intent string, params map[string]string, result string) (string, error) {
	return l.Record(ctx, zapcore.ErrorLevel, user, intent, params, result)
}

// List returns the most recent entries, newest first. limit <= 0 means 50.
func (l *Logger) List(ctx context.Context, limit int) ([]Entry, error) {
	if l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, correlation_id, timestamp, level, username, intent, params, result, message
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts, params string
		if err := rows.Scan(&e.ID, &e.CorrelationID, &ts, &e.Level, &e.Username, &e.Intent, &params, &e.Result, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if params != "" && params != "null" {
			if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
				return nil, fmt.Errorf("failed to decode audit params: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
