package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/soulsguard/guard-bot-go/internal/database"
	"github.com/soulsguard/guard-bot-go/internal/model"
)

type BanRepository interface {
	Add(ctx context.Context, userID, addedBy int64, reason *string) error
	Remove(ctx context.Context, userID int64) error
	IsBanned(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context, limit int) ([]model.Ban, error)
}

type banRepo struct {
	db database.DBTX
}

func NewBanRepository(db *sqlx.DB) BanRepository {
	return &banRepo{db: db}
}

func (r *banRepo) Add(ctx context.Context, userID, addedBy int64, reason *string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bans (user_id, added_by, reason) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, addedBy, reason)
	return err
}

func (r *banRepo) Remove(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM bans WHERE user_id = $1
	`, userID)
	return err
}

func (r *banRepo) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM bans WHERE user_id = $1)
	`, userID)
	return exists, err
}

func (r *banRepo) List(ctx context.Context, limit int) ([]model.Ban, error) {
	var bans []model.Ban
	err := r.db.SelectContext(ctx, &bans, `
		SELECT * FROM bans ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return bans, nil
}
