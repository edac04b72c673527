package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/soulsguard/guard-bot-go/internal/database"
	"github.com/soulsguard/guard-bot-go/internal/model"
)

// AggregateRepository persists the per-user per-local-day counters.
// Rows are only ever written by the tracker; readers are the stats
// service and the nightly report.
type AggregateRepository interface {
	// IncrementCounters upserts the (user, day) row, adding the
	// deltas to whatever is already there.
	IncrementCounters(ctx context.Context, userID int64, day string, d model.AggregateDeltas) error
	// SetFirstCheckin records the day's first check-in time.
	// First write wins; later calls are no-ops.
	SetFirstCheckin(ctx context.Context, userID int64, day string, at time.Time) error
	// SetLastCheckout records the day's most recent checkout time.
	// Last write wins.
	SetLastCheckout(ctx context.Context, userID int64, day string, at time.Time) error
	Get(ctx context.Context, userID int64, day string) (*model.DailyAggregate, error)
	// ListForDay returns every user's aggregate row for a local day,
	// ordered by message count descending.
	ListForDay(ctx context.Context, day string) ([]model.DailyAggregate, error)
	WithTx(tx *sqlx.Tx) AggregateRepository
}

type aggregateRepo struct {
	db database.DBTX
}

func NewAggregateRepository(db *sqlx.DB) AggregateRepository {
	return &aggregateRepo{db: db}
}

func (r *aggregateRepo) WithTx(tx *sqlx.Tx) AggregateRepository {
	return &aggregateRepo{db: tx}
}

func (r *aggregateRepo) IncrementCounters(ctx context.Context, userID int64, day string, d model.AggregateDeltas) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_aggregates (
			user_id, day, message_count, reply_sent_count, reply_received_count,
			chat_seconds, call_seconds, call_session_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, day) DO UPDATE SET
			message_count = daily_aggregates.message_count + EXCLUDED.message_count,
			reply_sent_count = daily_aggregates.reply_sent_count + EXCLUDED.reply_sent_count,
			reply_received_count = daily_aggregates.reply_received_count + EXCLUDED.reply_received_count,
			chat_seconds = daily_aggregates.chat_seconds + EXCLUDED.chat_seconds,
			call_seconds = daily_aggregates.call_seconds + EXCLUDED.call_seconds,
			call_session_count = daily_aggregates.call_session_count + EXCLUDED.call_session_count
	`, userID, day, d.MessageCount, d.ReplySentCount, d.ReplyRecvCount,
		d.ChatSeconds, d.CallSeconds, d.CallSessionCount)
	return err
}

func (r *aggregateRepo) SetFirstCheckin(ctx context.Context, userID int64, day string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_aggregates (user_id, day, first_checkin_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, day) DO UPDATE SET
			first_checkin_time = COALESCE(daily_aggregates.first_checkin_time, EXCLUDED.first_checkin_time)
	`, userID, day, at)
	return err
}

func (r *aggregateRepo) SetLastCheckout(ctx context.Context, userID int64, day string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_aggregates (user_id, day, last_checkout_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, day) DO UPDATE SET
			last_checkout_time = EXCLUDED.last_checkout_time
	`, userID, day, at)
	return err
}

func (r *aggregateRepo) Get(ctx context.Context, userID int64, day string) (*model.DailyAggregate, error) {
	var agg model.DailyAggregate
	err := r.db.GetContext(ctx, &agg, `
		SELECT user_id, to_char(day, 'YYYY-MM-DD') AS day, message_count,
			reply_sent_count, reply_received_count, chat_seconds, call_seconds,
			call_session_count, first_checkin_time, last_checkout_time
		FROM daily_aggregates
		WHERE user_id = $1 AND day = $2
	`, userID, day)
	return HandleNotFound(&agg, err)
}

func (r *aggregateRepo) ListForDay(ctx context.Context, day string) ([]model.DailyAggregate, error) {
	var aggs []model.DailyAggregate
	err := r.db.SelectContext(ctx, &aggs, `
		SELECT user_id, to_char(day, 'YYYY-MM-DD') AS day, message_count,
			reply_sent_count, reply_received_count, chat_seconds, call_seconds,
			call_session_count, first_checkin_time, last_checkout_time
		FROM daily_aggregates
		WHERE day = $1
		ORDER BY message_count DESC
	`, day)
	if err != nil {
		return nil, err
	}
	return aggs, nil
}
