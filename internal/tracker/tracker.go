package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/clock"
	"github.com/soulsguard/guard-bot-go/internal/model"
	"github.com/soulsguard/guard-bot-go/internal/notify"
	"github.com/soulsguard/guard-bot-go/internal/repository"
)

// Tracker owns the session lifecycle: open, heartbeat, close, idle
// sweep, and the aggregation that happens when a session closes. It
// never caches session state in memory; every decision re-derives
// from storage, so concurrent handlers and the sweep can interleave
// at any repository call. The one-open-per-kind invariant is backed
// by the store's partial unique index, not by in-process locking.
type Tracker struct {
	sessions repository.SessionRepository
	aggs     repository.AggregateRepository
	notifier notify.Notifier
	clock    clock.Clock
}

func New(
	sessions repository.SessionRepository,
	aggs repository.AggregateRepository,
	notifier notify.Notifier,
	clk clock.Clock,
) *Tracker {
	return &Tracker{
		sessions: sessions,
		aggs:     aggs,
		notifier: notifier,
		clock:    clk,
	}
}

// Open starts a session of the given kind, returning its id. Opening
// while a session of the same kind is already running is a heartbeat,
// not an error, and returns the existing id with its start time
// untouched. An open session of the other kind is closed first with
// reason switched-activity.
func (t *Tracker) Open(ctx context.Context, userID int64, kind model.SessionKind) (int64, error) {
	if !kind.Valid() {
		return 0, apperr.InvalidInput("kind", string(kind))
	}
	now := t.clock.Now()

	existing, err := t.sessions.FindOpen(ctx, userID, kind)
	if err != nil {
		return 0, apperr.Database(err)
	}
	if existing != nil {
		if err := t.sessions.Touch(ctx, existing.ID, now, false); err != nil {
			return 0, apperr.Database(err)
		}
		return existing.ID, nil
	}

	other, err := t.sessions.FindOpen(ctx, userID, kind.Other())
	if err != nil {
		return 0, apperr.Database(err)
	}
	if other != nil {
		if _, err := t.closeSession(ctx, other, now, model.ReasonSwitchedActivity); err != nil {
			return 0, err
		}
	}

	created, err := t.sessions.Create(ctx, userID, kind, now)
	if err != nil {
		if apperr.IsCode(err, apperr.ErrCodeDuplicateOpenSession) {
			// Lost the create race to a concurrent open of the same
			// kind. The winner's session is the session; downgrade
			// to a heartbeat against it.
			return t.heartbeatAfterLostRace(ctx, userID, kind, now)
		}
		return 0, apperr.Database(err)
	}

	if err := t.aggs.SetFirstCheckin(ctx, userID, t.clock.DateOf(now), now); err != nil {
		return 0, apperr.Database(err)
	}

	if err := t.notifier.SessionOpened(ctx, userID, kind); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Str("kind", string(kind)).
			Msg("session opened notification failed")
	}

	log.Info().Int64("user_id", userID).Str("kind", string(kind)).
		Int64("session_id", created.ID).Msg("session opened")
	return created.ID, nil
}

func (t *Tracker) heartbeatAfterLostRace(ctx context.Context, userID int64, kind model.SessionKind, now time.Time) (int64, error) {
	winner, err := t.sessions.FindOpen(ctx, userID, kind)
	if err != nil {
		return 0, apperr.Database(err)
	}
	if winner == nil {
		// The winner closed again in the gap. Rare enough that one
		// retry through Open is the simplest correct move.
		return t.Open(ctx, userID, kind)
	}
	if err := t.sessions.Touch(ctx, winner.ID, now, false); err != nil {
		return 0, apperr.Database(err)
	}
	return winner.ID, nil
}

// Heartbeat registers one qualifying activity inside an open session.
// Without an open session of the kind it is a no-op: auto-opening is
// the caller's policy, not the tracker's. For chat, the session and
// today's aggregate message counters advance; isReply additionally
// bumps the reply-sent counter. Call heartbeats only refresh
// last_activity_time.
func (t *Tracker) Heartbeat(ctx context.Context, userID int64, kind model.SessionKind, isReply bool) error {
	if !kind.Valid() {
		return apperr.InvalidInput("kind", string(kind))
	}
	now := t.clock.Now()

	open, err := t.sessions.FindOpen(ctx, userID, kind)
	if err != nil {
		return apperr.Database(err)
	}
	if open == nil {
		return nil
	}

	countMessage := kind == model.KindChat
	if err := t.sessions.Touch(ctx, open.ID, now, countMessage); err != nil {
		return apperr.Database(err)
	}
	if !countMessage {
		return nil
	}

	deltas := model.AggregateDeltas{MessageCount: 1}
	if isReply {
		deltas.ReplySentCount = 1
	}
	if err := t.aggs.IncrementCounters(ctx, userID, t.clock.DateOf(now), deltas); err != nil {
		return apperr.Database(err)
	}
	return nil
}

// RecordReplyReceived bumps the reply-received counter for the user
// whose message was replied to. Aggregate rows are only ever written
// through the tracker, so this lives here rather than in the handler.
func (t *Tracker) RecordReplyReceived(ctx context.Context, userID int64) error {
	now := t.clock.Now()
	err := t.aggs.IncrementCounters(ctx, userID, t.clock.DateOf(now), model.AggregateDeltas{ReplyRecvCount: 1})
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

// Close ends the user's open sessions. A nil kind closes all kinds.
// Closing with nothing open returns an empty slice, never an error.
func (t *Tracker) Close(ctx context.Context, userID int64, kind *model.SessionKind, reason model.CloseReason) ([]model.ClosedSessionSummary, error) {
	now := t.clock.Now()

	var open []model.Session
	if kind != nil {
		s, err := t.sessions.FindOpen(ctx, userID, *kind)
		if err != nil {
			return nil, apperr.Database(err)
		}
		if s != nil {
			open = append(open, *s)
		}
	} else {
		var err error
		open, err = t.sessions.ListOpenByUser(ctx, userID)
		if err != nil {
			return nil, apperr.Database(err)
		}
	}

	summaries := make([]model.ClosedSessionSummary, 0, len(open))
	for i := range open {
		summary, err := t.closeSession(ctx, &open[i], now, reason)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// closeSession stamps the end, accrues the duration to the aggregate
// of the session's start date, and announces. Notification failure
// never unwinds the recorded close.
func (t *Tracker) closeSession(ctx context.Context, s *model.Session, end time.Time, reason model.CloseReason) (model.ClosedSessionSummary, error) {
	if err := t.sessions.Close(ctx, s.ID, end, reason); err != nil {
		return model.ClosedSessionSummary{}, apperr.Database(err)
	}

	duration := end.Sub(s.StartTime)
	if duration < 0 {
		duration = 0
	}
	seconds := int64(duration.Seconds())

	day := t.clock.DateOf(s.StartTime)
	deltas := model.AggregateDeltas{}
	if s.Kind == model.KindCall {
		deltas.CallSeconds = seconds
		deltas.CallSessionCount = 1
	} else {
		deltas.ChatSeconds = seconds
	}
	if err := t.aggs.IncrementCounters(ctx, s.UserID, day, deltas); err != nil {
		return model.ClosedSessionSummary{}, apperr.Database(err)
	}
	if err := t.aggs.SetLastCheckout(ctx, s.UserID, day, end); err != nil {
		return model.ClosedSessionSummary{}, apperr.Database(err)
	}

	summary := model.ClosedSessionSummary{
		SessionID:    s.ID,
		UserID:       s.UserID,
		Kind:         s.Kind,
		Duration:     duration,
		MessageCount: s.MessageCount,
		Reason:       reason,
	}

	if err := t.notifier.SessionClosed(ctx, summary); err != nil {
		log.Warn().Err(err).Int64("user_id", s.UserID).Str("kind", string(s.Kind)).
			Msg("session closed notification failed")
	}

	log.Info().Int64("user_id", s.UserID).Str("kind", string(s.Kind)).
		Str("reason", string(reason)).Dur("duration", duration).
		Int("messages", s.MessageCount).Msg("session closed")
	return summary, nil
}

// SweepIdle closes every open chat session whose last activity is at
// least threshold in the past. Call sessions are exempt: they have no
// heartbeat source, so staleness means nothing for them. A failure on
// one session is logged and does not stop the sweep.
func (t *Tracker) SweepIdle(ctx context.Context, threshold time.Duration) ([]model.ClosedSessionSummary, error) {
	now := t.clock.Now()
	chat := model.KindChat

	open, err := t.sessions.ListAllOpen(ctx, &chat)
	if err != nil {
		return nil, apperr.Database(err)
	}

	var closed []model.ClosedSessionSummary
	for i := range open {
		s := &open[i]
		if now.Sub(s.LastActivity) < threshold {
			continue
		}
		summary, err := t.closeSession(ctx, s, now, model.ReasonIdleTimeout)
		if err != nil {
			log.Error().Err(err).Int64("session_id", s.ID).Msg("idle sweep: close failed")
			continue
		}
		closed = append(closed, summary)
	}
	return closed, nil
}

// IsOpen reports whether the user has an open session. A nil kind
// means any kind.
func (t *Tracker) IsOpen(ctx context.Context, userID int64, kind *model.SessionKind) (bool, error) {
	if kind != nil {
		s, err := t.sessions.FindOpen(ctx, userID, *kind)
		if err != nil {
			return false, apperr.Database(err)
		}
		return s != nil, nil
	}
	open, err := t.sessions.ListOpenByUser(ctx, userID)
	if err != nil {
		return false, apperr.Database(err)
	}
	return len(open) > 0, nil
}

// OpenKind returns the kind of the user's open session, or nil
func (t *Tracker) OpenKind(ctx context.Context, userID int64) (*model.SessionKind, error) {
	open, err := t.sessions.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	if len(open) == 0 {
		return nil, nil
	}
	kind := open[0].Kind
	return &kind, nil
}
