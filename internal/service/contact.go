package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/config"
	"github.com/soulsguard/guard-bot-go/internal/redis"
)

// ContactMode says where a member's bridged message goes
type ContactMode string

const (
	ContactGuard ContactMode = "guard"
	ContactOwner ContactMode = "owner"
)

type contactState struct {
	Mode    ContactMode `json:"mode"`
	CanSend bool        `json:"canSend"`
}

// ContactService tracks the member-to-guard message bridge state in
// Redis: which target a member picked and whether their one-message
// send window is open. State is ephemeral by design and expires on
// its own.
type ContactService struct {
	redis *redis.Client
}

func NewContactService(client *redis.Client) *ContactService {
	return &ContactService{redis: client}
}

// StartContact opens a fresh send window toward the chosen target
func (s *ContactService) StartContact(ctx context.Context, userID int64, mode ContactMode) error {
	if mode != ContactGuard && mode != ContactOwner {
		return apperr.InvalidInput("mode", string(mode))
	}
	return s.setState(ctx, userID, contactState{Mode: mode, CanSend: true})
}

// ConsumeSend returns the target mode if the member's window is open,
// closing it. ok is false when there is no open window.
func (s *ContactService) ConsumeSend(ctx context.Context, userID int64) (ContactMode, bool, error) {
	state, err := s.getState(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if state == nil || !state.CanSend {
		return "", false, nil
	}
	state.CanSend = false
	if err := s.setState(ctx, userID, *state); err != nil {
		return "", false, err
	}
	return state.Mode, true, nil
}

// AllowAgain reopens the window after the member taps "send again"
func (s *ContactService) AllowAgain(ctx context.Context, userID int64) error {
	state, err := s.getState(ctx, userID)
	if err != nil {
		return err
	}
	if state == nil {
		return apperr.NotFound("contact state")
	}
	state.CanSend = true
	return s.setState(ctx, userID, *state)
}

// SetReplyTarget arms an admin's next guard-chat message to be
// relayed to the given member.
func (s *ContactService) SetReplyTarget(ctx context.Context, adminID, targetUserID int64) error {
	err := s.redis.Set(ctx, redis.ReplyKey(adminID),
		strconv.FormatInt(targetUserID, 10), config.ContactStateTTL).Err()
	if err != nil {
		return apperr.External("redis", err)
	}
	return nil
}

// ConsumeReplyTarget returns and clears the admin's armed target
func (s *ContactService) ConsumeReplyTarget(ctx context.Context, adminID int64) (int64, bool, error) {
	val, err := s.redis.GetDel(ctx, redis.ReplyKey(adminID)).Result()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperr.External("redis", err)
	}
	target, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, apperr.Internal(fmt.Sprintf("corrupt reply target %q", val))
	}
	return target, true, nil
}

func (s *ContactService) getState(ctx context.Context, userID int64) (*contactState, error) {
	val, err := s.redis.Get(ctx, redis.ContactKey(userID)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.External("redis", err)
	}
	var state contactState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("corrupt contact state: %v", err))
	}
	return &state, nil
}

func (s *ContactService) setState(ctx context.Context, userID int64, state contactState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return apperr.Internal(err.Error())
	}
	if err := s.redis.Set(ctx, redis.ContactKey(userID), payload, config.ContactStateTTL).Err(); err != nil {
		return apperr.External("redis", err)
	}
	return nil
}
