// Package memory implements the persistence collaborator for Shardy.
//
// It uses SQLite to store assembled context packets, scoped to sessions
// and expired by TTL, plus the cross-session pattern records that back
// confidence similarity scoring. The core pipeline never touches this
// store directly; tool handlers hand packets in and out.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB and now are package-level vars to allow test injection.
var (
	openDB = sql.Open
	now    = time.Now
)

// sqliteTime is the layout used for all stored timestamps. It matches
// SQLite's datetime() output, so lexicographic comparison in SQL works.
const sqliteTime = "2006-01-02 15:04:05"

// ─── Types ───────────────────────────────────────────────────────────────────

// Session scopes a batch of context packets to one assembly run.
type Session struct {
	ID        string  `json:"id"`
	Project   string  `json:"project"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
	Summary   *string `json:"summary,omitempty"`
}

// StoredContext is one persisted embedded-context packet.
type StoredContext struct {
	ID            int64  `json:"id"`
	SessionID     string `json:"session_id"`
	UnitID        string `json:"unit_id"`
	Phase         string `json:"phase"`
	Content       string `json:"content"`
	Size          int    `json:"size"`
	Source        string `json:"source,omitempty"`
	PreConfidence int    `json:"pre_confidence"`
	CreatedAt     string `json:"created_at"`
	ExpiresAt     string `json:"expires_at"`
}

// SaveContextParams holds the input for persisting a context packet.
// Saving again for the same (session, unit) replaces the previous row.
type SaveContextParams struct {
	SessionID     string `json:"session_id"`
	UnitID        string `json:"unit_id"`
	Phase         string `json:"phase"`
	Content       string `json:"content"`
	Size          int    `json:"size"`
	Source        string `json:"source,omitempty"`
	PreConfidence int    `json:"pre_confidence"`
}

// PatternRecord is one persisted task/solution pattern with its
// empirical success rate.
type PatternRecord struct {
	ID          int64   `json:"id"`
	TaskType    string  `json:"task_type"`
	SuccessRate float64 `json:"success_rate"`
	Uses        int     `json:"uses"`
	CreatedAt   string  `json:"created_at"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	TotalSessions   int `json:"total_sessions"`
	LiveContexts    int `json:"live_contexts"`
	ExpiredContexts int `json:"expired_contexts"`
	Patterns        int `json:"patterns"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds context store configuration.
type Config struct {
	DataDir    string
	ContextTTL time.Duration
	MaxResults int
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:    filepath.Join(home, ".shardy"),
		ContextTTL: 7 * 24 * time.Hour,
		MaxResults: 50,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the session-scoped context store backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, and runs migrations.
// Invalid configuration fails here, not at first use.
func New(cfg Config) (*Store, error) {
	if cfg.ContextTTL <= 0 {
		return nil, fmt.Errorf("memory: context TTL must be positive, got %v", cfg.ContextTTL)
	}
	if cfg.MaxResults <= 0 {
		return nil, fmt.Errorf("memory: max results must be positive, got %d", cfg.MaxResults)
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "contexts.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			project    TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at   TEXT,
			summary    TEXT
		);

		CREATE TABLE IF NOT EXISTS contexts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id     TEXT    NOT NULL,
			unit_id        TEXT    NOT NULL,
			phase          TEXT    NOT NULL,
			content        TEXT    NOT NULL,
			size           INTEGER NOT NULL,
			source         TEXT,
			pre_confidence INTEGER NOT NULL,
			created_at     TEXT    NOT NULL,
			expires_at     TEXT    NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id),
			UNIQUE (session_id, unit_id) ON CONFLICT REPLACE
		);

		CREATE INDEX IF NOT EXISTS idx_ctx_session ON contexts(session_id);
		CREATE INDEX IF NOT EXISTS idx_ctx_expires ON contexts(expires_at);

		CREATE TABLE IF NOT EXISTS patterns (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			task_type    TEXT    NOT NULL,
			success_rate REAL    NOT NULL,
			uses         INTEGER NOT NULL DEFAULT 1,
			created_at   TEXT    NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// CreateSession opens a new assembly session for a project.
func (s *Store) CreateSession(project string) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Project:   project,
		StartedAt: now().UTC().Format(sqliteTime),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, project, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Project, sess.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: create session: %w", err)
	}
	return sess, nil
}

// EndSession marks a session finished with an optional summary.
func (s *Store) EndSession(id, summary string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, summary = ? WHERE id = ?`,
		now().UTC().Format(sqliteTime), summary, id,
	)
	if err != nil {
		return fmt.Errorf("memory: end session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("memory: session %s not found", id)
	}
	return nil
}

// GetSession fetches a session by id.
func (s *Store) GetSession(id string) (*Session, error) {
	var sess Session
	err := s.db.QueryRow(
		`SELECT id, project, started_at, ended_at, summary FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Project, &sess.StartedAt, &sess.EndedAt, &sess.Summary)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("memory: session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get session: %w", err)
	}
	return &sess, nil
}

// ─── Contexts ────────────────────────────────────────────────────────────────

// SaveContext persists one packet with a TTL-based expiry.
func (s *Store) SaveContext(p SaveContextParams) (int64, error) {
	if p.SessionID == "" || p.UnitID == "" {
		return 0, fmt.Errorf("memory: save context: session id and unit id are required")
	}

	created := now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO contexts (session_id, unit_id, phase, content, size, source, pre_confidence, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SessionID, p.UnitID, p.Phase, p.Content, p.Size, p.Source, p.PreConfidence,
		created.Format(sqliteTime),
		created.Add(s.cfg.ContextTTL).Format(sqliteTime),
	)
	if err != nil {
		return 0, fmt.Errorf("memory: save context: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("memory: save context id: %w", err)
	}
	return id, nil
}

// GetContext fetches the live packet for one (session, unit). Expired
// rows are treated as absent.
func (s *Store) GetContext(sessionID, unitID string) (*StoredContext, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, unit_id, phase, content, size, source, pre_confidence, created_at, expires_at
		 FROM contexts
		 WHERE session_id = ? AND unit_id = ? AND expires_at > ?`,
		sessionID, unitID, now().UTC().Format(sqliteTime),
	)
	var c StoredContext
	var source sql.NullString
	err := row.Scan(&c.ID, &c.SessionID, &c.UnitID, &c.Phase, &c.Content, &c.Size,
		&source, &c.PreConfidence, &c.CreatedAt, &c.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("memory: no live context for unit %s in session %s", unitID, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get context: %w", err)
	}
	c.Source = source.String
	return &c, nil
}

// SessionContexts lists a session's live packets in insertion order,
// capped at MaxResults.
func (s *Store) SessionContexts(sessionID string) ([]StoredContext, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, unit_id, phase, content, size, source, pre_confidence, created_at, expires_at
		 FROM contexts
		 WHERE session_id = ? AND expires_at > ?
		 ORDER BY id
		 LIMIT ?`,
		sessionID, now().UTC().Format(sqliteTime), s.cfg.MaxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: list contexts: %w", err)
	}
	defer rows.Close()

	var out []StoredContext
	for rows.Next() {
		var c StoredContext
		var source sql.NullString
		if err := rows.Scan(&c.ID, &c.SessionID, &c.UnitID, &c.Phase, &c.Content, &c.Size,
			&source, &c.PreConfidence, &c.CreatedAt, &c.ExpiresAt); err != nil {
			return nil, fmt.Errorf("memory: scan context: %w", err)
		}
		c.Source = source.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// PurgeExpired deletes expired packets and returns the count removed.
func (s *Store) PurgeExpired() (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM contexts WHERE expires_at <= ?`,
		now().UTC().Format(sqliteTime),
	)
	if err != nil {
		return 0, fmt.Errorf("memory: purge expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("memory: purge count: %w", err)
	}
	return n, nil
}

// ─── Patterns ────────────────────────────────────────────────────────────────

// AddPattern records a task/solution pattern. Patterns are not
// session-scoped and never expire; they feed similarity scoring.
func (s *Store) AddPattern(taskType string, successRate float64) (int64, error) {
	if taskType == "" {
		return 0, fmt.Errorf("memory: add pattern: task type is required")
	}
	if successRate < 0 || successRate > 1 {
		return 0, fmt.Errorf("memory: add pattern: success rate must be in [0,1], got %v", successRate)
	}
	res, err := s.db.Exec(
		`INSERT INTO patterns (task_type, success_rate, created_at) VALUES (?, ?, ?)`,
		taskType, successRate, now().UTC().Format(sqliteTime),
	)
	if err != nil {
		return 0, fmt.Errorf("memory: add pattern: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("memory: add pattern id: %w", err)
	}
	return id, nil
}

// Patterns lists all recorded patterns in insertion order.
func (s *Store) Patterns() ([]PatternRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, task_type, success_rate, uses, created_at FROM patterns ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: list patterns: %w", err)
	}
	defer rows.Close()

	var out []PatternRecord
	for rows.Next() {
		var p PatternRecord
		if err := rows.Scan(&p.ID, &p.TaskType, &p.SuccessRate, &p.Uses, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("memory: scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate counts for the store.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{}
	cutoff := now().UTC().Format(sqliteTime)

	queries := []struct {
		sql  string
		args []any
		dst  *int
	}{
		{`SELECT COUNT(*) FROM sessions`, nil, &st.TotalSessions},
		{`SELECT COUNT(*) FROM contexts WHERE expires_at > ?`, []any{cutoff}, &st.LiveContexts},
		{`SELECT COUNT(*) FROM contexts WHERE expires_at <= ?`, []any{cutoff}, &st.ExpiredContexts},
		{`SELECT COUNT(*) FROM patterns`, nil, &st.Patterns},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.sql, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("memory: stats: %w", err)
		}
	}
	return st, nil
}
