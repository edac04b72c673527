package model

import "time"

type User struct {
	UserID    int64     `db:"user_id"`
	Username  *string   `db:"username"`
	FirstName *string   `db:"first_name"`
	LastName  *string   `db:"last_name"`
	JoinedAt  time.Time `db:"joined_at"`
	LastSeen  time.Time `db:"last_seen"`
}

// DisplayName returns the best human-readable name we have
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}
	return "member"
}

type UpsertUserParams struct {
	UserID    int64
	Username  *string
	FirstName *string
	LastName  *string
}

type Ban struct {
	UserID    int64     `db:"user_id"`
	AddedBy   int64     `db:"added_by"`
	Reason    *string   `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

// RoleHolder pairs a user with one of their roles, used by guard
// listing and the nightly report.
type RoleHolder struct {
	UserID    int64   `db:"user_id"`
	FirstName *string `db:"first_name"`
	Role      Role    `db:"role"`
}
