package eventlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/triadworks/triad/pkg/models"
)

// SessionStatus represents the lifecycle state of a stored session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Session is a durable orchestration session: the task intake plus a
// pointer into the events table. Everything else is derived from the log.
type Session struct {
	ID        string        `json:"id"`
	Goal      string        `json:"goal"`
	Context   string        `json:"context"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Task reconstructs the immutable task intake for this session.
func (s *Session) Task() models.Task {
	return models.Task{Goal: s.Goal, Context: s.Context}
}

// Store persists sessions and their event logs in SQLite.
// The events table is append-only: rows are inserted with a monotonically
// increasing per-session sequence number and never updated or deleted.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// ProjectStorePath returns the path to the project-local store.
func ProjectStorePath(projectRoot string) string {
	return filepath.Join(projectRoot, ".triad", "sessions.db")
}

// Open opens the store at the given path, creating parent directories as
// needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Store{conn: conn, path: path}, nil
}

// OpenProject opens the project-local store under .triad/.
func OpenProject(projectRoot string) (*Store, error) {
	return Open(ProjectStorePath(projectRoot))
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

// Migrate applies the schema. It is idempotent.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			goal TEXT NOT NULL,
			context TEXT,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	_, err = s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (session_id, seq)
		)
	`)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}

	return nil
}

// CreateSession records a new session for the given task.
func (s *Store) CreateSession(task models.Task) (*Session, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		Goal:      task.Goal,
		Context:   task.Context,
		Status:    SessionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Exec(`
		INSERT INTO sessions (id, goal, context, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID, session.Goal, session.Context, session.Status, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.conn.QueryRow(`
		SELECT id, goal, context, status, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	var session Session
	var ctx sql.NullString
	err := row.Scan(&session.ID, &session.Goal, &ctx, &session.Status,
		&session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if ctx.Valid {
		session.Context = ctx.String
	}

	return &session, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions() ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(`
		SELECT id, goal, context, status, created_at, updated_at
		FROM sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		var ctx sql.NullString
		if err := rows.Scan(&session.ID, &session.Goal, &ctx, &session.Status,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ctx.Valid {
			session.Context = ctx.String
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// UpdateSessionStatus moves a session to a new lifecycle state.
func (s *Store) UpdateSessionStatus(id string, status SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.conn.Exec(`
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found: %s", id)
	}

	return nil
}

// Log returns the append-only log view for a session.
func (s *Store) Log(sessionID string) *SessionLog {
	return &SessionLog{store: s, sessionID: sessionID}
}

// SessionLog binds a session ID to the Log contract over the store.
type SessionLog struct {
	store     *Store
	sessionID string
}

// Append implements Log. The sequence number is assigned inside a
// transaction so concurrent writers cannot interleave.
func (l *SessionLog) Append(e models.Event) (int, error) {
	payload, err := models.MarshalEvent(e)
	if err != nil {
		return 0, err
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	tx, err := l.store.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var seq int
	row := tx.QueryRow(`SELECT COALESCE(MAX(seq)+1, 0) FROM events WHERE session_id = ?`, l.sessionID)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO events (session_id, seq, kind, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.sessionID, seq, string(e.Kind()), string(payload), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}

	return seq, nil
}

// Events implements Log.
func (l *SessionLog) Events() ([]models.Event, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	rows, err := l.store.conn.Query(`
		SELECT payload FROM events WHERE session_id = ? ORDER BY seq ASC
	`, l.sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e, err := models.UnmarshalEvent([]byte(payload))
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Compile-time verification that both backends satisfy the Log contract.
var (
	_ Log = (*MemoryLog)(nil)
	_ Log = (*SessionLog)(nil)
)
