// Package sqlite keeps conversation states and the turn log in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/types"
	_ "modernc.org/sqlite"
)

var stateJSON = sonic.Config{UseNumber: true}.Froze()

// Store implements agent.SessionStore and agent.TurnLog.
// Deleting a session keeps its turns; the log is append-only.
type Store struct {
	db *sql.DB
}

var (
	_ agent.SessionStore = (*Store)(nil)
	_ agent.TurnLog      = (*Store)(nil)
)

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session store: open: %w", err)
	}
	// WAL lets readers proceed while a turn is being written
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("session store: wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("session store: busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			phase      TEXT NOT NULL,
			completed  INTEGER NOT NULL DEFAULT 0,
			state      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS turns (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role       TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
		CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(phase);
	`)
	if err != nil {
		return fmt.Errorf("session store: migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, state *types.ConversationState) error {
	if state == nil {
		return errors.New("session store: nil state")
	}
	raw, err := sonic.MarshalString(state)
	if err != nil {
		return fmt.Errorf("session store: encode %s: %w", state.SessionID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, phase, completed, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase=excluded.phase, completed=excluded.completed, state=excluded.state, updated_at=excluded.updated_at
	`, state.SessionID, string(state.Phase), state.Completed, raw,
		state.CreatedAt.UTC().Format(time.RFC3339Nano), state.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("session store: save %s: %w", state.SessionID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (*types.ConversationState, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session store: get %s: %w", sessionID, err)
	}
	var state types.ConversationState
	if err := stateJSON.UnmarshalFromString(raw, &state); err != nil {
		return nil, false, fmt.Errorf("session store: decode %s: %w", sessionID, err)
	}
	return &state, true, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("session store: delete %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) AppendTurns(ctx context.Context, sessionID string, turns ...types.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("turn log: begin: %w", err)
	}
	defer tx.Rollback()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, t := range turns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
			sessionID, string(t.Role), t.Text, now); err != nil {
			return fmt.Errorf("turn log: append: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("turn log: commit: %w", err)
	}
	return nil
}

// RecentTurns returns the last limit turns in chronological order, all of them when limit <= 0.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text FROM turns WHERE session_id = ? ORDER BY id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("turn log: query: %w", err)
	}
	defer rows.Close()

	var turns []types.ChatTurn
	for rows.Next() {
		var role, text string
		if err := rows.Scan(&role, &text); err != nil {
			return nil, fmt.Errorf("turn log: scan: %w", err)
		}
		turns = append(turns, types.ChatTurn{Role: types.Role(role), Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("turn log: rows: %w", err)
	}
	slices.Reverse(turns)
	return turns, nil
}
