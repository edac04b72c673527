package notify

import (
	"context"

	"github.com/soulsguard/guard-bot-go/internal/model"
)

// Notifier is the tracker's outbound port for session announcements.
// Calls are best-effort: the tracker logs failures and moves on, a
// lost announcement never rolls back a recorded state change.
type Notifier interface {
	SessionOpened(ctx context.Context, userID int64, kind model.SessionKind) error
	SessionClosed(ctx context.Context, summary model.ClosedSessionSummary) error
}

// Noop discards all notifications. Used in tests and when no guard
// chat is configured.
type Noop struct{}

func (Noop) SessionOpened(ctx context.Context, userID int64, kind model.SessionKind) error {
	return nil
}

func (Noop) SessionClosed(ctx context.Context, summary model.ClosedSessionSummary) error {
	return nil
}
