package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/soulsguard/guard-bot-go/internal/database"
	"github.com/soulsguard/guard-bot-go/internal/model"
)

type UserRepository interface {
	// Upsert records or refreshes a user seen in the group,
	// bumping last_seen.
	Upsert(ctx context.Context, params model.UpsertUserParams) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	// RecordMessage appends one raw message observation, feeding the
	// poke job's activity query.
	RecordMessage(ctx context.Context, userID, chatID int64, ts time.Time, mentions int, hasMedia bool) error
	// FindPokeCandidate picks one random member active in the chat
	// within activeSince but silent since silentSince. Nil when
	// nobody qualifies.
	FindPokeCandidate(ctx context.Context, chatID int64, activeSince, silentSince time.Time) (*model.User, error)
}

type userRepo struct {
	db database.DBTX
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Upsert(ctx context.Context, params model.UpsertUserParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_seen = now()
	`, params.UserID, params.Username, params.FirstName, params.LastName)
	return err
}

func (r *userRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE user_id = $1
	`, userID)
	return HandleNotFound(&user, err)
}

func (r *userRepo) RecordMessage(ctx context.Context, userID, chatID int64, ts time.Time, mentions int, hasMedia bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, chat_id, ts, mention_count, has_media)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, chatID, ts, mentions, hasMedia)
	return err
}

func (r *userRepo) FindPokeCandidate(ctx context.Context, chatID int64, activeSince, silentSince time.Time) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		WITH recent AS (
			SELECT user_id, MAX(ts) AS last_ts
			FROM messages
			WHERE chat_id = $1 AND ts >= $2
			GROUP BY user_id
		)
		SELECT u.* FROM recent r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.last_ts < $3
		ORDER BY random()
		LIMIT 1
	`, chatID, activeSince, silentSince)
	return HandleNotFound(&user, err)
}
