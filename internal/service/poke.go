package service

import (
	"context"
	"fmt"
	"math/rand"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/clock"
	"github.com/soulsguard/guard-bot-go/internal/config"
	"github.com/soulsguard/guard-bot-go/internal/notify"
	"github.com/soulsguard/guard-bot-go/internal/redis"
	"github.com/soulsguard/guard-bot-go/internal/report"
	"github.com/soulsguard/guard-bot-go/internal/repository"
)

const pokeToggle = "poke"

var pokeLines = []string{
	"کجایی؟ چت روشنه 👀",
	"بیدار شو، حوصله سر رفت 😴",
	"یه چیزی بگو، غیبت طولانی شد ☕",
	"بپر داخل، چایی آماده‌ست 🔥",
	"صدام میاد؟ بیا ویس 🎧",
	"دلمون برات تنگ شد 🫶",
}

// PokeService mentions one member who was around earlier today but
// has gone quiet, to keep the room alive. Off by default; the owner
// flips the toggle.
type PokeService struct {
	users      repository.UserRepository
	redis      *redis.Client
	clock      clock.Clock
	bot        notify.Sender
	mainChatID int64
}

func NewPokeService(
	users repository.UserRepository,
	client *redis.Client,
	clk clock.Clock,
	bot notify.Sender,
	mainChatID int64,
) *PokeService {
	return &PokeService{users: users, redis: client, clock: clk, bot: bot, mainChatID: mainChatID}
}

func (s *PokeService) SetEnabled(ctx context.Context, on bool) error {
	val := "0"
	if on {
		val = "1"
	}
	if err := s.redis.Set(ctx, redis.ToggleKey(pokeToggle), val, 0).Err(); err != nil {
		return apperr.External("redis", err)
	}
	return nil
}

func (s *PokeService) Enabled(ctx context.Context) (bool, error) {
	val, err := s.redis.Get(ctx, redis.ToggleKey(pokeToggle)).Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, apperr.External("redis", err)
	}
	return val == "1", nil
}

// PokeRandomMember picks a member active within the last day but
// silent for a couple of hours and mentions them with a flavor line.
// Quietly does nothing when disabled or when nobody qualifies.
func (s *PokeService) PokeRandomMember(ctx context.Context) error {
	on, err := s.Enabled(ctx)
	if err != nil || !on {
		return err
	}

	now := s.clock.Now()
	candidate, err := s.users.FindPokeCandidate(ctx, s.mainChatID,
		now.Add(-config.PokeActiveWindow), now.Add(-config.PokeSilentWindow))
	if err != nil {
		return apperr.Database(err)
	}
	if candidate == nil {
		return nil
	}

	line := pokeLines[rand.Intn(len(pokeLines))]
	text := fmt.Sprintf("%s %s", report.Mention(candidate.UserID, candidate.DisplayName()), line)
	msg := tgbotapi.NewMessage(s.mainChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		return apperr.External("telegram", err)
	}
	return nil
}
