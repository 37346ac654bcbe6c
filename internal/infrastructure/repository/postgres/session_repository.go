package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// SessionRepository persists accumulated per-conversation criteria in
// Postgres. Idle sessions are reaped by DeleteIdle from a background sweeper.
type SessionRepository struct {
	db          *sql.DB
	idleTimeout time.Duration
}

func NewSessionRepository(db *sql.DB, idleTimeout time.Duration) *SessionRepository {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &SessionRepository{db: db, idleTimeout: idleTimeout}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS match_sessions (
	session_id TEXT PRIMARY KEY,
	criteria JSONB NOT NULL DEFAULT '{}'::jsonb,
	last_mode TEXT,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_match_sessions_updated_at ON match_sessions(updated_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Get returns ErrSessionNotFound for an unknown session, and also for one
// whose last update is older than the idle timeout. Expired rows are left
// for the sweeper.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.SessionContext, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT session_id, criteria, last_mode, updated_at
FROM match_sessions
WHERE session_id = $1
`, sessionID)

	var session domain.SessionContext
	var criteriaRaw []byte
	var lastMode sql.NullString

	err := row.Scan(&session.SessionID, &criteriaRaw, &lastMode, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get session",
				fmt.Errorf("session %s", sessionID))
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if time.Since(session.UpdatedAt) > r.idleTimeout {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session",
			fmt.Errorf("session %s expired", sessionID))
	}

	if err := json.Unmarshal(criteriaRaw, &session.Criteria); err != nil {
		return nil, fmt.Errorf("unmarshal session criteria: %w", err)
	}
	if lastMode.Valid {
		session.LastMode = domain.RetrievalMode(lastMode.String)
	}
	return &session, nil
}

func (r *SessionRepository) Put(ctx context.Context, session domain.SessionContext) error {
	criteriaJSON, err := json.Marshal(session.Criteria)
	if err != nil {
		return fmt.Errorf("marshal session criteria: %w", err)
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO match_sessions (session_id, criteria, last_mode, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (session_id) DO UPDATE
SET criteria = EXCLUDED.criteria, last_mode = EXCLUDED.last_mode, updated_at = EXCLUDED.updated_at
`, session.SessionID, criteriaJSON, string(session.LastMode), session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteIdle(ctx context.Context, idleFor time.Duration) (int64, error) {
	if idleFor <= 0 {
		idleFor = r.idleTimeout
	}
	cutoff := time.Now().UTC().Add(-idleFor)

	result, err := r.db.ExecContext(ctx, `
DELETE FROM match_sessions
WHERE updated_at < $1
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("idle delete rows affected: %w", err)
	}
	return deleted, nil
}
