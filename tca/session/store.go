// Package session archives transcript turns in an embedded libsql database.
// The archive is write-only while a session runs; it exists for post-session
// inspection (tca -replay) and is never replayed into the model's context.
package session

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/go-libsql"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists session turns. Safe for concurrent use; the underlying
// *sql.DB serializes access.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database at path and brings its schema
// up to date.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run archive migrations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveTurn appends one turn to a session's archive.
func (s *Store) SaveTurn(ctx context.Context, sessionID string, turn ports.Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const query = `
		INSERT INTO session_turns (session_id, role, content, tool_call_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	// Timestamps travel as RFC 3339 text; sqlite has no native type for them.
	if _, err := s.db.ExecContext(ctx, query, sessionID, turn.Role, turn.Content, turn.ToolCallID, createdAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// ListSession returns a session's turns in insertion order.
func (s *Store) ListSession(ctx context.Context, sessionID string) ([]ports.Turn, error) {
	const query = `
		SELECT role, content, tool_call_id, created_at
		FROM session_turns
		WHERE session_id = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session: %w", err)
	}
	defer rows.Close()

	var turns []ports.Turn
	for rows.Next() {
		var turn ports.Turn
		var createdAt string
		if err := rows.Scan(&turn.Role, &turn.Content, &turn.ToolCallID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if at, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			turn.CreatedAt = at
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	return turns, nil
}

// Sessions returns the archived session ids, most recent first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	const query = `
		SELECT session_id
		FROM session_turns
		GROUP BY session_id
		ORDER BY MAX(id) DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read session ids: %w", err)
	}
	return ids, nil
}

// Ensure Store implements the SessionStore interface.
var _ ports.SessionStore = (*Store)(nil)
