package model

import "time"

// DailyAggregate holds the running totals for one user on one
// timezone-local day. Day is the local calendar date as YYYY-MM-DD.
// Seconds accumulate only when a session of that kind closes; a
// session spanning midnight accrues entirely to its start date.
type DailyAggregate struct {
	UserID            int64      `db:"user_id"`
	Day               string     `db:"day"`
	MessageCount      int        `db:"message_count"`
	ReplySentCount    int        `db:"reply_sent_count"`
	ReplyRecvCount    int        `db:"reply_received_count"`
	ChatSeconds       int64      `db:"chat_seconds"`
	CallSeconds       int64      `db:"call_seconds"`
	CallSessionCount  int        `db:"call_session_count"`
	FirstCheckinTime  *time.Time `db:"first_checkin_time"`
	LastCheckoutTime  *time.Time `db:"last_checkout_time"`
}

// AggregateDeltas is the upsert payload for IncrementCounters. Zero
// fields add nothing.
type AggregateDeltas struct {
	MessageCount     int
	ReplySentCount   int
	ReplyRecvCount   int
	ChatSeconds      int64
	CallSeconds      int64
	CallSessionCount int
}
