package handler

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/model"
	"github.com/soulsguard/guard-bot-go/internal/service"
)

// The community runs on plain-text Persian phrases, no slash
// commands. This file maps that vocabulary onto the services.

var (
	spaceRe         = regexp.MustCompile(`\s+`)
	numericTargetRe = regexp.MustCompile(`(-?\d{6,})`)
	persianDigitRe  = regexp.MustCompile(`(-?[۰-۹]{6,})`)
	persianDigits   = strings.NewReplacer(
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
		"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	)
)

// handleCommand returns true when the message was a recognized
// command, whether or not it succeeded.
func (d *Dispatcher) handleCommand(ctx context.Context, msg *tgbotapi.Message) bool {
	if msg.Text == "" {
		return false
	}
	text := spaceRe.ReplaceAllString(strings.TrimSpace(msg.Text), " ")
	userID := msg.From.ID

	switch {
	case strings.HasPrefix(text, "راهنما"):
		d.replyText(msg, helpText)
		return true

	case text == "ثبت" || text == "ثبت حضور":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "نوع فعالیت رو انتخاب کن:")
		reply.ReplyToMessageID = msg.MessageID
		reply.ReplyMarkup = sessionChoiceKeyboard(userID)
		d.trySend(reply)
		return true

	case text == "ثبت خروج" || text == "پایان":
		if _, err := d.tracker.Close(ctx, userID, nil, model.ReasonManual); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("manual close failed")
			d.replyText(msg, "ثبت نشد، دوباره تلاش کن.")
			return true
		}
		d.replyText(msg, "پایان فعالیت شما ثبت شد. خسته نباشید 🌙")
		return true

	case strings.HasPrefix(text, "ممنوع"):
		d.withManager(ctx, msg, func() {
			target, ok := d.extractTarget(msg, text)
			if !ok {
				d.replyText(msg, "هدف مشخص نیست.")
				return
			}
			if err := d.bans.Ban(ctx, target, userID, "manual"); err != nil {
				log.Error().Err(err).Msg("ban failed")
				d.replyText(msg, "ثبت نشد، دوباره تلاش کن.")
				return
			}
			d.replyText(msg, "ثبت شد: کاربر ممنوع.")
		})
		return true

	case strings.HasPrefix(text, "آزاد"):
		d.withManager(ctx, msg, func() {
			target, ok := d.extractTarget(msg, text)
			if !ok {
				d.replyText(msg, "هدف مشخص نیست.")
				return
			}
			if err := d.bans.Unban(ctx, target); err != nil {
				log.Error().Err(err).Msg("unban failed")
				d.replyText(msg, "ثبت نشد، دوباره تلاش کن.")
				return
			}
			d.replyText(msg, "کاربر از لیست ممنوع خارج شد.")
		})
		return true

	case strings.HasPrefix(text, "ترفیع"):
		d.withOwnerOnly(msg, func() {
			d.promoteDemote(ctx, msg, text, "ترفیع", true)
		})
		return true

	case strings.HasPrefix(text, "عزل"):
		d.withOwnerOnly(msg, func() {
			d.promoteDemote(ctx, msg, text, "عزل", false)
		})
		return true

	case strings.HasPrefix(text, "لیست گارد"):
		senior, err := d.roles.IsSeniorOrOwner(ctx, userID)
		if err != nil || !senior {
			return true
		}
		list, err := d.roles.GuardList(ctx)
		if err != nil {
			log.Error().Err(err).Msg("guard list failed")
			return true
		}
		d.replyHTML(msg, list)
		return true

	case strings.HasPrefix(text, "لیست ممنوع"):
		d.withManager(ctx, msg, func() {
			list, err := d.bans.ListText(ctx)
			if err != nil {
				log.Error().Err(err).Msg("ban list failed")
				return
			}
			d.replyHTML(msg, list)
		})
		return true

	case text == "ایدی" || text == "آیدی" || text == "id":
		target := userID
		if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
			target = msg.ReplyToMessage.From.ID
		}
		stats, err := d.stats.UserStats(ctx, target, 7)
		if err != nil {
			log.Error().Err(err).Msg("user stats failed")
			return true
		}
		d.replyText(msg, stats)
		return true

	case text == "تگ روشن" || text == "روشن تگ":
		d.withOwnerOnly(msg, func() {
			if err := d.poke.SetEnabled(ctx, true); err != nil {
				log.Error().Err(err).Msg("poke toggle failed")
				return
			}
			d.replyText(msg, "پینگ فان روشن شد.")
		})
		return true

	case text == "تگ خاموش" || text == "خاموش تگ":
		d.withOwnerOnly(msg, func() {
			if err := d.poke.SetEnabled(ctx, false); err != nil {
				log.Error().Err(err).Msg("poke toggle failed")
				return
			}
			d.replyText(msg, "پینگ فان خاموش شد.")
		})
		return true
	}

	return false
}

func (d *Dispatcher) promoteDemote(ctx context.Context, msg *tgbotapi.Message, text, verb string, promote bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, verb))
	role, keyword := matchRoleKeyword(rest)
	if role == "" {
		d.replyText(msg, "سمت رو مشخص کن (مثلاً: «"+verb+" چت»).")
		return
	}
	target, ok := d.extractTarget(msg, strings.TrimSpace(strings.TrimPrefix(rest, keyword)))
	if !ok {
		d.replyText(msg, "هدف نامشخصه.")
		return
	}

	var err error
	if promote {
		err = d.roles.Promote(ctx, target, role)
	} else {
		err = d.roles.Demote(ctx, target, role)
	}
	if err != nil {
		log.Error().Err(err).Str("verb", verb).Msg("role change failed")
		d.replyText(msg, "ثبت نشد، دوباره تلاش کن.")
		return
	}
	if promote {
		d.replyText(msg, "ترفیع انجام شد ✔️")
	} else {
		d.replyText(msg, "عزل انجام شد ✔️")
	}
}

// matchRoleKeyword finds the longest role keyword at the start of
// rest. Longest first so "ارشد چت" wins over "چت".
func matchRoleKeyword(rest string) (model.Role, string) {
	keywords := []string{"ارشد چت", "ارشد کال", "ارشد کل", "چت", "کال"}
	for _, kw := range keywords {
		if strings.HasPrefix(rest, kw) {
			if role, ok := service.ParseRole(kw); ok {
				return role, kw
			}
		}
	}
	return "", ""
}

// extractTarget resolves a command's target user: the replied-to
// message's author wins, else a numeric id in the text (Persian
// digits accepted).
func (d *Dispatcher) extractTarget(msg *tgbotapi.Message, text string) (int64, bool) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From.ID, true
	}
	if m := numericTargetRe.FindString(text); m != "" {
		id, err := strconv.ParseInt(m, 10, 64)
		return id, err == nil
	}
	if m := persianDigitRe.FindString(text); m != "" {
		id, err := strconv.ParseInt(persianDigits.Replace(m), 10, 64)
		return id, err == nil
	}
	return 0, false
}

func (d *Dispatcher) withManager(ctx context.Context, msg *tgbotapi.Message, fn func()) {
	ok, err := d.roles.IsManager(ctx, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Msg("role check failed")
		return
	}
	if ok {
		fn()
	}
}

func (d *Dispatcher) withOwnerOnly(msg *tgbotapi.Message, fn func()) {
	if d.roles.IsOwner(msg.From.ID) {
		fn()
	}
}

func (d *Dispatcher) replyHTML(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	reply.ParseMode = tgbotapi.ModeHTML
	reply.DisableWebPagePreview = true
	d.trySend(reply)
}

const helpText = `راهنما (خلاصه):
• «ثبت» → شروع حضور (انتخاب چت/کال)
• «ثبت خروج» → پایان حضور
• «ممنوع [ریپلای/آیدی]» / «آزاد ...»
• «ترفیع چت/کال/ارشد چت/ارشد کال/ارشد کل [هدف]»
• «عزل ...» → برعکس ترفیع
• «لیست گارد» → مدیران به ترتیب سمت
• «لیست ممنوع» → لیست ممنوع‌ها
• «آیدی» → آمار ۷ روز گذشته
• «تگ روشن/خاموش» → پینگ فان (فقط مالک)`
