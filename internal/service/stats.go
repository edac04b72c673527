package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/clock"
	"github.com/soulsguard/guard-bot-go/internal/model"
	"github.com/soulsguard/guard-bot-go/internal/notify"
	"github.com/soulsguard/guard-bot-go/internal/report"
	"github.com/soulsguard/guard-bot-go/internal/repository"
)

// StatsService reads the daily aggregates and turns them into the
// nightly guard report and per-user stat replies. It never writes
// aggregates; that is the tracker's job alone.
type StatsService struct {
	aggs        repository.AggregateRepository
	roles       repository.RoleRepository
	clock       clock.Clock
	bot         notify.Sender
	guardChatID int64
}

func NewStatsService(
	aggs repository.AggregateRepository,
	roles repository.RoleRepository,
	clk clock.Clock,
	bot notify.Sender,
	guardChatID int64,
) *StatsService {
	return &StatsService{
		aggs:        aggs,
		roles:       roles,
		clock:       clk,
		bot:         bot,
		guardChatID: guardChatID,
	}
}

// SummaryForDay exposes the raw aggregate rows for one local day
func (s *StatsService) SummaryForDay(ctx context.Context, day string) ([]model.DailyAggregate, error) {
	aggs, err := s.aggs.ListForDay(ctx, day)
	if err != nil {
		return nil, apperr.Database(err)
	}
	return aggs, nil
}

// SendNightlyReport posts the chat and call tables for one local day
// to the guard chat.
func (s *StatsService) SendNightlyReport(ctx context.Context, day string) error {
	byUser := map[int64]model.DailyAggregate{}
	aggs, err := s.SummaryForDay(ctx, day)
	if err != nil {
		return err
	}
	for _, a := range aggs {
		byUser[a.UserID] = a
	}

	chatLines, err := s.reportLines(ctx, day, model.ChatRoles, byUser, func(a model.DailyAggregate) string {
		return fmt.Sprintf("messages: %d | replies: %d | chat: %s",
			a.MessageCount, a.ReplySentCount, report.HumanDuration(time.Duration(a.ChatSeconds)*time.Second))
	})
	if err != nil {
		return err
	}
	callLines, err := s.reportLines(ctx, day, model.CallRoles, byUser, func(a model.DailyAggregate) string {
		return fmt.Sprintf("calls: %d | call time: %s",
			a.CallSessionCount, report.HumanDuration(time.Duration(a.CallSeconds)*time.Second))
	})
	if err != nil {
		return err
	}

	text := strings.Join(append(chatLines, append([]string{""}, callLines...)...), "\n")
	msg := tgbotapi.NewMessage(s.guardChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return apperr.External("telegram", err)
	}
	return nil
}

func (s *StatsService) reportLines(
	ctx context.Context,
	day string,
	roles []model.Role,
	byUser map[int64]model.DailyAggregate,
	render func(model.DailyAggregate) string,
) ([]string, error) {
	holders, err := s.roles.ListHolders(ctx, roles)
	if err != nil {
		return nil, apperr.Database(err)
	}

	header := "📊 Guard chat report"
	if roles[len(roles)-1] == model.RoleAdminCall {
		header = "🎙 Guard call report"
	}
	lines := []string{fmt.Sprintf("%s (%s)", header, day)}

	seen := map[int64]bool{}
	for _, h := range holders {
		if seen[h.UserID] {
			continue
		}
		seen[h.UserID] = true
		name := "admin"
		if h.FirstName != nil && *h.FirstName != "" {
			name = *h.FirstName
		}
		lines = append(lines, fmt.Sprintf("• %s — %s", report.Mention(h.UserID, name), render(byUser[h.UserID])))
	}
	if len(lines) == 1 {
		lines = append(lines, "nobody on duty")
	}
	return lines, nil
}

// UserStats renders the last `days` local days for one user, newest
// first. Days with no row render as zeros.
func (s *StatsService) UserStats(ctx context.Context, userID int64, days int) (string, error) {
	now := s.clock.Now()
	var blocks []string
	for i := 0; i < days; i++ {
		day := s.clock.DateOf(now.AddDate(0, 0, -i))
		agg, err := s.aggs.Get(ctx, userID, day)
		if err != nil {
			return "", apperr.Database(err)
		}
		if agg == nil {
			agg = &model.DailyAggregate{UserID: userID, Day: day}
		}
		blocks = append(blocks, fmt.Sprintf(
			"%s\nmessages: %d | chat: %s | call: %s",
			day,
			agg.MessageCount,
			report.HumanDuration(time.Duration(agg.ChatSeconds)*time.Second),
			report.HumanDuration(time.Duration(agg.CallSeconds)*time.Second),
		))
	}
	return strings.Join(blocks, "\n\n"), nil
}
