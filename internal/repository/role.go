package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/soulsguard/guard-bot-go/internal/database"
	"github.com/soulsguard/guard-bot-go/internal/model"
)

type RoleRepository interface {
	Grant(ctx context.Context, userID int64, role model.Role) error
	Revoke(ctx context.Context, userID int64, role model.Role) error
	// RevokeAll removes every role a user holds, returning how many
	// were removed.
	RevokeAll(ctx context.Context, userID int64) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Role, error)
	// ListHolders returns the users holding any of the given roles,
	// with names joined in for rendering.
	ListHolders(ctx context.Context, roles []model.Role) ([]model.RoleHolder, error)
}

type roleRepo struct {
	db database.DBTX
}

func NewRoleRepository(db *sqlx.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Grant(ctx context.Context, userID int64, role model.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, role)
	return err
}

func (r *roleRepo) Revoke(ctx context.Context, userID int64, role model.Role) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM roles WHERE user_id = $1 AND role = $2
	`, userID, role)
	return err
}

func (r *roleRepo) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM roles WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *roleRepo) ListByUser(ctx context.Context, userID int64) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.SelectContext(ctx, &roles, `
		SELECT role FROM roles WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepo) ListHolders(ctx context.Context, roles []model.Role) ([]model.RoleHolder, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	var holders []model.RoleHolder
	err := r.db.SelectContext(ctx, &holders, `
		SELECT DISTINCT u.user_id, u.first_name, r.role
		FROM users u JOIN roles r ON u.user_id = r.user_id
		WHERE r.role = ANY($1)
	`, pq.Array(names))
	if err != nil {
		return nil, err
	}
	return holders, nil
}
