package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/forPelevin/scriptcut/internal/types"
)

var ErrNotFound = errors.New("script not found")

// createdLayout is fixed width so created_at sorts chronologically as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps generated scripts in a local SQLite file.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := &Store{conn: conn, now: time.Now}
	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		title TEXT NOT NULL,
		user_prompt TEXT NOT NULL,
		strategy TEXT NOT NULL,
		segments INTEGER NOT NULL,
		target_seconds REAL NOT NULL,
		estimated_seconds REAL NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scripts_created_at ON scripts (created_at);
	`
	_, err := s.conn.Exec(query)
	return err
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Save(ctx context.Context, id string, gs types.GeneratedScript) error {
	payload, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal script: %w", err)
	}
	strategy, _ := gs.Metadata["strategy"].(string)

	query := `
		INSERT OR REPLACE INTO scripts (
			id, created_at, title, user_prompt, strategy,
			segments, target_seconds, estimated_seconds, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.conn.ExecContext(ctx, query,
		id,
		s.now().UTC().Format(createdLayout),
		gs.Title,
		gs.UserPrompt,
		strategy,
		len(gs.Segments),
		gs.TargetDurationSeconds,
		gs.EstimatedDurationSeconds,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save script: %w", err)
	}
	return nil
}

// List returns the most recent scripts first. A non-positive limit means 20.
func (s *Store) List(ctx context.Context, limit int) ([]types.ScriptSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, created_at, title, user_prompt, strategy,
			   segments, target_seconds, estimated_seconds
		FROM scripts
		ORDER BY created_at DESC
		LIMIT ?`
	rows, err := s.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scripts: %w", err)
	}
	defer rows.Close()

	var out []types.ScriptSummary
	for rows.Next() {
		var (
			sum     types.ScriptSummary
			created string
		)
		if err := rows.Scan(
			&sum.ID,
			&created,
			&sum.Title,
			&sum.UserPrompt,
			&sum.Strategy,
			&sum.Segments,
			&sum.TargetDurationSeconds,
			&sum.EstimatedDurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("failed to scan script: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(createdLayout, created); err != nil {
			return nil, fmt.Errorf("bad created_at %q: %w", created, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (types.GeneratedScript, error) {
	var payload string
	err := s.conn.QueryRowContext(ctx, `SELECT payload FROM scripts WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return types.GeneratedScript{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.GeneratedScript{}, fmt.Errorf("failed to get script: %w", err)
	}
	var gs types.GeneratedScript
	if err := json.Unmarshal([]byte(payload), &gs); err != nil {
		return types.GeneratedScript{}, fmt.Errorf("failed to decode script %s: %w", id, err)
	}
	return gs, nil
}
