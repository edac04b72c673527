package model

import "time"

// Session is one continuous open-to-close stretch of tracked chat or
// call activity for one user. EndTime is null while the session is
// open; at most one open row exists per (user, kind), enforced by a
// partial unique index in the store.
type Session struct {
	ID           int64        `db:"id"`
	UserID       int64        `db:"user_id"`
	Kind         SessionKind  `db:"kind"`
	StartTime    time.Time    `db:"start_time"`
	LastActivity time.Time    `db:"last_activity_time"`
	EndTime      *time.Time   `db:"end_time"`
	EndReason    *CloseReason `db:"end_reason"`
	MessageCount int          `db:"message_count"`
}

// Open reports whether the session has not been closed yet
func (s *Session) Open() bool {
	return s.EndTime == nil
}

// ClosedSessionSummary is returned by the tracker's close path, one
// per session it closed.
type ClosedSessionSummary struct {
	SessionID    int64
	UserID       int64
	Kind         SessionKind
	Duration     time.Duration
	MessageCount int
	Reason       CloseReason
}
