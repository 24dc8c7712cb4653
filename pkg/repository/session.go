package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/postscope/pkg/domain"
)

// SessionRepository handles scrape session records
type SessionRepository struct {
	db *sqlx.DB
}

// sessionSQL represents a session for SQL operations
type sessionSQL struct {
	ID         int64      `db:"id"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Feeds      stringsSQL `db:"feeds"`
	PostCount  int        `db:"post_count"`
	Error      string     `db:"error"`
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession records the start of a scrape run
func (r *SessionRepository) CreateSession(ctx context.Context, feeds []string, startedAt time.Time) (*domain.Session, error) {
	rec := &sessionSQL{StartedAt: startedAt.UTC(), Feeds: stringsSQL(feeds)}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		res, err := r.db.NamedExecContext(ctx, `INSERT INTO sessions (started_at, feeds) VALUES (:started_at, :feeds)`, rec)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("create session: %w", err)}
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			return &criticalError{err: fmt.Errorf("get insert id: %w", err)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.toDomain(rec), nil
}

// FinishSession stores the outcome of a run. A nil runErr means success.
func (r *SessionRepository) FinishSession(ctx context.Context, id int64, postCount int, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		query := `UPDATE sessions SET finished_at = ?, post_count = ?, error = ? WHERE id = ?`
		res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), postCount, errMsg, id)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("finish session: %w", err)}
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &criticalError{err: fmt.Errorf("finish session %d: %w", id, ErrNotFound)}
		}
		return nil
	})
}

// GetSession retrieves a session by id
func (r *SessionRepository) GetSession(ctx context.Context, id int64) (*domain.Session, error) {
	var rec sessionSQL
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return r.toDomain(&rec), nil
}

// ListSessions returns the most recent sessions first
func (r *SessionRepository) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []sessionSQL
	if err := r.db.SelectContext(ctx, &recs, "SELECT * FROM sessions ORDER BY id DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	res := make([]domain.Session, len(recs))
	for i := range recs {
		res[i] = *r.toDomain(&recs[i])
	}
	return res, nil
}

func (r *SessionRepository) toDomain(rec *sessionSQL) *domain.Session {
	feeds := []string(rec.Feeds)
	if feeds == nil {
		feeds = []string{}
	}
	s := &domain.Session{
		ID:        rec.ID,
		StartedAt: rec.StartedAt.UTC(),
		Feeds:     feeds,
		PostCount: rec.PostCount,
		Error:     rec.Error,
	}
	if rec.FinishedAt != nil {
		t := rec.FinishedAt.UTC()
		s.FinishedAt = &t
	}
	return s
}
