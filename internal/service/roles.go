package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/apperr"
	"github.com/soulsguard/guard-bot-go/internal/model"
	"github.com/soulsguard/guard-bot-go/internal/report"
	"github.com/soulsguard/guard-bot-go/internal/repository"
)

var roleDisplay = map[model.Role]string{
	model.RoleOwner:      "👑 owner",
	model.RoleSeniorAll:  "🛡 head senior",
	model.RoleSeniorChat: "🗨 chat senior",
	model.RoleSeniorCall: "📞 call senior",
	model.RoleAdminChat:  "💬 chat admin",
	model.RoleAdminCall:  "🎙 call admin",
}

// sessionCloser lets the role service end a demoted admin's open
// sessions without depending on the whole tracker.
type sessionCloser interface {
	Close(ctx context.Context, userID int64, kind *model.SessionKind, reason model.CloseReason) ([]model.ClosedSessionSummary, error)
}

// RoleService manages the guard hierarchy. The tracker itself is
// role-agnostic; every "is this user a tracked admin" decision is
// made here, before anything touches a session.
type RoleService struct {
	roles   repository.RoleRepository
	closer  sessionCloser
	ownerID int64
}

func NewRoleService(roles repository.RoleRepository, closer sessionCloser, ownerID int64) *RoleService {
	return &RoleService{roles: roles, closer: closer, ownerID: ownerID}
}

func (s *RoleService) Promote(ctx context.Context, userID int64, role model.Role) error {
	if _, ok := roleDisplay[role]; !ok || role == model.RoleOwner {
		return apperr.InvalidInput("role", string(role))
	}
	if err := s.roles.Grant(ctx, userID, role); err != nil {
		return apperr.Database(err)
	}
	log.Info().Int64("user_id", userID).Str("role", string(role)).Msg("role granted")
	return nil
}

// Demote removes one role. When the user's last role goes, any open
// sessions are closed with reason role-removed: an untracked person
// cannot keep accruing presence.
func (s *RoleService) Demote(ctx context.Context, userID int64, role model.Role) error {
	if err := s.roles.Revoke(ctx, userID, role); err != nil {
		return apperr.Database(err)
	}
	remaining, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return apperr.Database(err)
	}
	if len(remaining) == 0 {
		if _, err := s.closer.Close(ctx, userID, nil, model.ReasonRoleRemoved); err != nil {
			return err
		}
	}
	log.Info().Int64("user_id", userID).Str("role", string(role)).Msg("role revoked")
	return nil
}

// IsManager reports whether the user holds any guard role.
// The owner always qualifies.
func (s *RoleService) IsManager(ctx context.Context, userID int64) (bool, error) {
	if userID == s.ownerID {
		return true, nil
	}
	roles, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return false, apperr.Database(err)
	}
	return len(roles) > 0, nil
}

// IsSeniorOrOwner gates the commands reserved for seniors
func (s *RoleService) IsSeniorOrOwner(ctx context.Context, userID int64) (bool, error) {
	if userID == s.ownerID {
		return true, nil
	}
	roles, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return false, apperr.Database(err)
	}
	for _, r := range roles {
		switch r {
		case model.RoleSeniorAll, model.RoleSeniorChat, model.RoleSeniorCall:
			return true, nil
		}
	}
	return false, nil
}

func (s *RoleService) IsOwner(userID int64) bool {
	return userID == s.ownerID
}

// GuardList renders the full hierarchy, highest role first
func (s *RoleService) GuardList(ctx context.Context) (string, error) {
	holders, err := s.roles.ListHolders(ctx, model.RolesOrder)
	if err != nil {
		return "", apperr.Database(err)
	}

	grouped := map[model.Role][]string{}
	for _, h := range holders {
		name := "admin"
		if h.FirstName != nil && *h.FirstName != "" {
			name = *h.FirstName
		}
		grouped[h.Role] = append(grouped[h.Role], report.Mention(h.UserID, name))
	}

	var lines []string
	for _, role := range model.RolesOrder {
		mentions := grouped[role]
		if len(mentions) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s:", roleDisplay[role]))
		lines = append(lines, report.ChunkMentions(mentions, 5)...)
		lines = append(lines, "")
	}
	if len(lines) == 0 {
		return "no guard members yet", nil
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n"), nil
}

// ParseRole maps a promote/demote keyword (the Persian command
// vocabulary the community uses) to a role.
func ParseRole(keyword string) (model.Role, bool) {
	switch strings.TrimSpace(keyword) {
	case "چت":
		return model.RoleAdminChat, true
	case "کال":
		return model.RoleAdminCall, true
	case "ارشد چت":
		return model.RoleSeniorChat, true
	case "ارشد کال":
		return model.RoleSeniorCall, true
	case "ارشد کل":
		return model.RoleSeniorAll, true
	default:
		return "", false
	}
}
