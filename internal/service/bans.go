package service

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/report"
	"github.com/soulsguard/guard-bot-go/internal/repository"
)

// banAPI is the slice of the Telegram client the ban service needs
type banAPI interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// BanService keeps the ban list and mirrors it onto the main chat.
// The list is authoritative; the platform ban is best-effort (the
// bot may lack rights at that moment, enforcement-on-join catches
// up later).
type BanService struct {
	bans       repository.BanRepository
	api        banAPI
	mainChatID int64
}

func NewBanService(bans repository.BanRepository, api banAPI, mainChatID int64) *BanService {
	return &BanService{bans: bans, api: api, mainChatID: mainChatID}
}

func (s *BanService) Ban(ctx context.Context, userID, addedBy int64, reason string) error {
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	if err := s.bans.Add(ctx, userID, addedBy, reasonPtr); err != nil {
		return apperr.Database(err)
	}
	if _, err := s.api.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: s.mainChatID, UserID: userID},
	}); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("platform ban failed, list entry kept")
	}
	return nil
}

func (s *BanService) Unban(ctx context.Context, userID int64) error {
	if err := s.bans.Remove(ctx, userID); err != nil {
		return apperr.Database(err)
	}
	if _, err := s.api.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: s.mainChatID, UserID: userID},
		OnlyIfBanned:     true,
	}); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("platform unban failed")
	}
	return nil
}

// EnforceOnJoin re-bans a listed user who managed to get back in.
// Returns whether the user was on the list.
func (s *BanService) EnforceOnJoin(ctx context.Context, userID int64) (bool, error) {
	banned, err := s.bans.IsBanned(ctx, userID)
	if err != nil {
		return false, apperr.Database(err)
	}
	if !banned {
		return false, nil
	}
	if _, err := s.api.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: s.mainChatID, UserID: userID},
	}); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("re-ban on join failed")
	}
	return true, nil
}

// ListText renders the most recent ban entries as mention lines
func (s *BanService) ListText(ctx context.Context) (string, error) {
	bans, err := s.bans.List(ctx, 100)
	if err != nil {
		return "", apperr.Database(err)
	}
	if len(bans) == 0 {
		return "ban list is empty", nil
	}
	mentions := make([]string, len(bans))
	for i, b := range bans {
		mentions[i] = report.Mention(b.UserID, "banned member")
	}
	return strings.Join(report.ChunkMentions(mentions, 5), "\n"), nil
}
