package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/database"
	"github.com/soulsguard/guard-bot-go/internal/model"
)

// SessionRepository is the tracker's durable session store. Each call
// is one atomic statement; the tracker composes them without assuming
// cross-call atomicity.
type SessionRepository interface {
	// FindOpen returns the open session for (user, kind), or nil.
	FindOpen(ctx context.Context, userID int64, kind model.SessionKind) (*model.Session, error)
	// ListOpenByUser returns all open sessions for a user, any kind.
	ListOpenByUser(ctx context.Context, userID int64) ([]model.Session, error)
	// ListAllOpen returns every open session, optionally filtered by kind.
	ListAllOpen(ctx context.Context, kind *model.SessionKind) ([]model.Session, error)
	// Create inserts a new open session. Returns an AppError with
	// code DUPLICATE_OPEN_SESSION when the one-open-per-kind index
	// rejects the insert.
	Create(ctx context.Context, userID int64, kind model.SessionKind, start time.Time) (*model.Session, error)
	// Touch updates last_activity_time, optionally bumping the
	// session's message counter. No-op on closed sessions.
	Touch(ctx context.Context, sessionID int64, at time.Time, countMessage bool) error
	// Close stamps end_time and the reason. No-op if already closed.
	Close(ctx context.Context, sessionID int64, end time.Time, reason model.CloseReason) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindOpen(ctx context.Context, userID int64, kind model.SessionKind) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions
		WHERE user_id = $1 AND kind = $2 AND end_time IS NULL
	`, userID, kind)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) ListOpenByUser(ctx context.Context, userID int64) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions
		WHERE user_id = $1 AND end_time IS NULL
		ORDER BY start_time
	`, userID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListAllOpen(ctx context.Context, kind *model.SessionKind) ([]model.Session, error) {
	var sessions []model.Session
	var err error
	if kind != nil {
		err = r.db.SelectContext(ctx, &sessions, `
			SELECT * FROM sessions
			WHERE kind = $1 AND end_time IS NULL
			ORDER BY start_time
		`, *kind)
	} else {
		err = r.db.SelectContext(ctx, &sessions, `
			SELECT * FROM sessions
			WHERE end_time IS NULL
			ORDER BY start_time
		`)
	}
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Create(ctx context.Context, userID int64, kind model.SessionKind, start time.Time) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (user_id, kind, start_time, last_activity_time)
		VALUES ($1, $2, $3, $3)
		RETURNING *
	`, userID, kind, start)
	if err != nil {
		if IsUniqueViolation(err, "sessions_one_open_per_kind") {
			return nil, apperr.DuplicateOpenSession(err)
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Touch(ctx context.Context, sessionID int64, at time.Time, countMessage bool) error {
	bump := 0
	if countMessage {
		bump = 1
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			last_activity_time = $2,
			message_count = message_count + $3
		WHERE id = $1 AND end_time IS NULL
	`, sessionID, at, bump)
	return err
}

func (r *sessionRepo) Close(ctx context.Context, sessionID int64, end time.Time, reason model.CloseReason) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			end_time = $2,
			end_reason = $3
		WHERE id = $1 AND end_time IS NULL
	`, sessionID, end, reason)
	return err
}
