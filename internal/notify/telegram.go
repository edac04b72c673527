package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soulsguard/guard-bot-go/internal/model"
	"github.com/soulsguard/guard-bot-go/internal/report"
)

// Sender is the slice of the Telegram client the notifier needs.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier announces session transitions in the guard chat
type TelegramNotifier struct {
	bot         Sender
	guardChatID int64
}

func NewTelegramNotifier(bot Sender, guardChatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, guardChatID: guardChatID}
}

func (n *TelegramNotifier) SessionOpened(ctx context.Context, userID int64, kind model.SessionKind) error {
	text := fmt.Sprintf("✅ %s checked in (%s)", report.Mention(userID, "admin"), kindLabel(kind))
	return n.send(text)
}

func (n *TelegramNotifier) SessionClosed(ctx context.Context, s model.ClosedSessionSummary) error {
	text := fmt.Sprintf("❎ %s checked out (%s) — %s",
		report.Mention(s.UserID, "admin"), kindLabel(s.Kind), report.HumanDuration(s.Duration))
	if s.Kind == model.KindChat {
		text += fmt.Sprintf(", %d messages", s.MessageCount)
	}
	if s.Reason != model.ReasonManual {
		text += fmt.Sprintf(" [%s]", s.Reason)
	}
	return n.send(text)
}

func (n *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.guardChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := n.bot.Send(msg)
	return err
}

func kindLabel(kind model.SessionKind) string {
	if kind == model.KindCall {
		return "call"
	}
	return "chat"
}
