package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/model"
	"github.com/soulsguard/guard-bot-go/internal/repository"
	"github.com/soulsguard/guard-bot-go/internal/service"
	"github.com/soulsguard/guard-bot-go/internal/tracker"
)

// botAPI is the slice of the Telegram client the dispatcher uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Dispatcher routes incoming Telegram updates to the tracker and the
// services. It is the policy layer: role checks, auto-mode prompts,
// and reply classification all happen here, keeping the tracker
// role-agnostic.
type Dispatcher struct {
	bot     botAPI
	tracker *tracker.Tracker
	roles   *service.RoleService
	bans    *service.BanService
	contact *service.ContactService
	poke    *service.PokeService
	stats   *service.StatsService
	users   repository.UserRepository

	mainChatID  int64
	guardChatID int64
	ownerID     int64
}

func NewDispatcher(
	bot botAPI,
	trk *tracker.Tracker,
	roles *service.RoleService,
	bans *service.BanService,
	contact *service.ContactService,
	poke *service.PokeService,
	stats *service.StatsService,
	users repository.UserRepository,
	mainChatID, guardChatID, ownerID int64,
) *Dispatcher {
	return &Dispatcher{
		bot:         bot,
		tracker:     trk,
		roles:       roles,
		bans:        bans,
		contact:     contact,
		poke:        poke,
		stats:       stats,
		users:       users,
		mainChatID:  mainChatID,
		guardChatID: guardChatID,
		ownerID:     ownerID,
	}
}

// HandleUpdate processes one Telegram update end to end
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.ChatMember != nil:
		d.handleMemberUpdate(ctx, update.ChatMember)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if err := d.upsertUser(ctx, msg.From); err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("user upsert failed")
	}

	if handled := d.handleCommand(ctx, msg); handled {
		return
	}

	switch msg.Chat.ID {
	case d.mainChatID:
		d.handleGroupMessage(ctx, msg)
	case d.guardChatID:
		d.handleGuardMessage(ctx, msg)
	default:
		if msg.Chat.IsPrivate() {
			d.handlePrivateMessage(ctx, msg)
		}
	}
}

// handleGroupMessage records the message for stats and drives the
// presence auto-mode: a role holder with an open chat session gets a
// heartbeat, one with no session gets the check-in prompt.
func (d *Dispatcher) handleGroupMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	mentions := 0
	for _, e := range msg.Entities {
		if e.Type == "mention" || e.Type == "text_mention" {
			mentions++
		}
	}
	hasMedia := msg.Photo != nil || msg.Video != nil || msg.Audio != nil ||
		msg.Document != nil || msg.Sticker != nil || msg.Voice != nil
	if err := d.users.RecordMessage(ctx, userID, msg.Chat.ID, msg.Time(), mentions, hasMedia); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("record message failed")
	}

	isManager, err := d.roles.IsManager(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("role check failed")
		return
	}
	if !isManager {
		return
	}

	isReply := msg.ReplyToMessage != nil
	if isReply && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID != userID {
		if err := d.tracker.RecordReplyReceived(ctx, msg.ReplyToMessage.From.ID); err != nil {
			log.Error().Err(err).Msg("record reply received failed")
		}
	}

	if err := d.tracker.Heartbeat(ctx, userID, model.KindChat, isReply); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("heartbeat failed")
		return
	}

	open, err := d.tracker.IsOpen(ctx, userID, nil)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("is-open check failed")
		return
	}
	if !open {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "حضور رو ثبت کنیم؟")
		reply.ReplyToMessageID = msg.MessageID
		reply.ReplyMarkup = sessionChoiceKeyboard(userID)
		d.trySend(reply)
	}
}

// handlePrivateMessage forwards a bridged message when the member's
// send window is open.
func (d *Dispatcher) handlePrivateMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	mode, ok, err := d.contact.ConsumeSend(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("contact state read failed")
		return
	}
	if !ok {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "سلام! از منو یکی رو انتخاب کن:")
		reply.ReplyMarkup = startMenuKeyboard(userID)
		d.trySend(reply)
		return
	}

	targetChat := d.guardChatID
	if mode == service.ContactOwner {
		targetChat = d.ownerID
	}

	copyCfg := tgbotapi.NewCopyMessage(targetChat, msg.Chat.ID, msg.MessageID)
	if mode == service.ContactGuard {
		copyCfg.ReplyMarkup = contactUserKeyboard(userID)
	}
	if _, err := d.bot.Request(copyCfg); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("bridge copy failed")
		d.replyText(msg, "ارسال نشد، دوباره تلاش کن.")
		return
	}

	confirm := tgbotapi.NewMessage(msg.Chat.ID, "پیامت منتقل شد ✔️")
	confirm.ReplyMarkup = sendAgainKeyboard(userID)
	d.trySend(confirm)
}

// handleGuardMessage relays an armed admin reply to its member
func (d *Dispatcher) handleGuardMessage(ctx context.Context, msg *tgbotapi.Message) {
	adminID := msg.From.ID

	target, ok, err := d.contact.ConsumeReplyTarget(ctx, adminID)
	if err != nil {
		log.Error().Err(err).Int64("admin_id", adminID).Msg("reply state read failed")
		return
	}
	if !ok {
		return
	}

	copyCfg := tgbotapi.NewCopyMessage(target, msg.Chat.ID, msg.MessageID)
	if _, err := d.bot.Request(copyCfg); err != nil {
		log.Error().Err(err).Int64("target", target).Msg("guard reply copy failed")
		d.replyText(msg, "ارسال به کاربر ممکن نشد.")
		return
	}
	d.trySend(tgbotapi.NewMessage(target, "📩 پاسخ گارد رسید."))
	d.replyText(msg, "پاسخ ارسال شد ✔️")
}

func (d *Dispatcher) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil {
		return
	}
	core, owner, tagged := splitOwner(q.Data)
	if tagged && owner != q.From.ID {
		alert := tgbotapi.NewCallbackWithAlert(q.ID, "این دکمه مخصوص درخواست‌کننده‌ست.")
		if _, err := d.bot.Request(alert); err != nil {
			log.Warn().Err(err).Msg("callback alert failed")
		}
		return
	}
	if _, err := d.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		log.Warn().Err(err).Msg("callback ack failed")
	}

	userID := q.From.ID
	switch {
	case core == cbSessionChat || core == cbSessionCall:
		kind := model.KindChat
		if core == cbSessionCall {
			kind = model.KindCall
		}
		if _, err := d.tracker.Open(ctx, userID, kind); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("open failed")
			d.answerCallback(q, "ثبت نشد، دوباره تلاش کن.")
			return
		}
		d.answerCallback(q, "شروع شد. موفق باشی 🌟")

	case core == cbContactGuard || core == cbContactOwner:
		mode := service.ContactGuard
		if core == cbContactOwner {
			mode = service.ContactOwner
		}
		if err := d.contact.StartContact(ctx, userID, mode); err != nil {
			log.Error().Err(err).Msg("start contact failed")
			return
		}
		d.answerCallback(q, "پیامت رو همینجا بفرست. فقط اولین پیام منتقل میشه.")

	case core == cbSendAgain:
		if err := d.contact.AllowAgain(ctx, userID); err != nil {
			log.Error().Err(err).Msg("allow again failed")
			return
		}
		d.answerCallback(q, "اوکی؛ پیام بعدی که بفرستی منتقل میشه.")

	case core == cbMyStats:
		text, err := d.stats.UserStats(ctx, userID, 7)
		if err != nil {
			log.Error().Err(err).Msg("user stats failed")
			return
		}
		d.trySend(tgbotapi.NewMessage(userID, text))

	case strings.HasPrefix(core, cbGuardReply+":"):
		target, err := strconv.ParseInt(core[len(cbGuardReply)+1:], 10, 64)
		if err != nil {
			return
		}
		if !d.requireManager(ctx, q, userID) {
			return
		}
		if err := d.contact.SetReplyTarget(ctx, userID, target); err != nil {
			log.Error().Err(err).Msg("set reply target failed")
			return
		}
		d.answerCallback(q, "پاسخ فعال شد. یک پیام بفرست.")

	case strings.HasPrefix(core, cbBlock+":"):
		target, err := strconv.ParseInt(core[len(cbBlock)+1:], 10, 64)
		if err != nil {
			return
		}
		if !d.requireManager(ctx, q, userID) {
			return
		}
		if err := d.bans.Ban(ctx, target, userID, "blocked-from-bridge"); err != nil {
			log.Error().Err(err).Msg("block from bridge failed")
			return
		}
		d.answerCallback(q, "کاربر به لیست ممنوع افزوده شد.")
	}
}

// handleMemberUpdate enforces the ban list on join and prunes roles
// on leave.
func (d *Dispatcher) handleMemberUpdate(ctx context.Context, cm *tgbotapi.ChatMemberUpdated) {
	user := cm.NewChatMember.User
	if user == nil {
		return
	}
	if err := d.upsertUser(ctx, user); err != nil {
		log.Error().Err(err).Msg("user upsert failed")
	}
	if cm.Chat.ID != d.mainChatID {
		return
	}

	switch cm.NewChatMember.Status {
	case "member", "administrator":
		wasBanned, err := d.bans.EnforceOnJoin(ctx, user.ID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("ban enforcement failed")
			return
		}
		if wasBanned {
			text := fmt.Sprintf("⛔ کاربر ممنوع سعی کرد وارد شود: <a href='tg://user?id=%d'>%s</a>",
				user.ID, user.FirstName)
			note := tgbotapi.NewMessage(d.guardChatID, text)
			note.ParseMode = tgbotapi.ModeHTML
			d.trySend(note)
		}
	case "left", "kicked":
		// leaving forfeits any guard position, and with it any open session
		if err := d.demoteAllRoles(ctx, user.ID); err != nil {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("role cleanup on leave failed")
		}
	}
}

func (d *Dispatcher) demoteAllRoles(ctx context.Context, userID int64) error {
	for _, role := range model.RolesOrder {
		if role == model.RoleOwner {
			continue
		}
		if err := d.roles.Demote(ctx, userID, role); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) requireManager(ctx context.Context, q *tgbotapi.CallbackQuery, userID int64) bool {
	ok, err := d.roles.IsManager(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("role check failed")
		return false
	}
	if !ok {
		d.answerCallback(q, "اجازه نداری عزیز.")
	}
	return ok
}

func (d *Dispatcher) upsertUser(ctx context.Context, u *tgbotapi.User) error {
	params := model.UpsertUserParams{UserID: u.ID}
	if u.UserName != "" {
		params.Username = &u.UserName
	}
	if u.FirstName != "" {
		params.FirstName = &u.FirstName
	}
	if u.LastName != "" {
		params.LastName = &u.LastName
	}
	return d.users.Upsert(ctx, params)
}

func (d *Dispatcher) answerCallback(q *tgbotapi.CallbackQuery, text string) {
	if q.Message != nil {
		d.trySend(tgbotapi.NewMessage(q.Message.Chat.ID, text))
	}
}

func (d *Dispatcher) replyText(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	d.trySend(reply)
}

func (d *Dispatcher) trySend(c tgbotapi.Chattable) {
	if _, err := d.bot.Send(c); err != nil {
		log.Warn().Err(err).Msg("telegram send failed")
	}
}
