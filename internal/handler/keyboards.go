package handler

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data vocabulary. Each button carries an owner tag so only
// the member who asked can press it.
const (
	cbSessionChat  = "session:start:chat"
	cbSessionCall  = "session:start:call"
	cbContactGuard = "contact:guard"
	cbContactOwner = "contact:owner"
	cbSendAgain    = "send_again"
	cbMyStats      = "mystats"
	cbGuardReply   = "guard_reply" // guard_reply:<user_id>
	cbBlock        = "block"       // block:<user_id>
)

// withOwner tags callback data with the requesting user's id
func withOwner(data string, ownerID int64) string {
	return fmt.Sprintf("%s|by:%d", data, ownerID)
}

// splitOwner strips the owner tag, returning (core, ownerID, tagged)
func splitOwner(data string) (string, int64, bool) {
	idx := strings.LastIndex(data, "|by:")
	if idx < 0 {
		return data, 0, false
	}
	owner, err := strconv.ParseInt(data[idx+4:], 10, 64)
	if err != nil {
		return data[:idx], 0, false
	}
	return data[:idx], owner, true
}

func sessionChoiceKeyboard(ownerID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎙 کال", withOwner(cbSessionCall, ownerID)),
			tgbotapi.NewInlineKeyboardButtonData("💬 چت", withOwner(cbSessionChat, ownerID)),
		),
	)
}

func startMenuKeyboard(ownerID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 تماس با گارد", withOwner(cbContactGuard, ownerID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👑 ارتباط با مالک", withOwner(cbContactOwner, ownerID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 آمار من", withOwner(cbMyStats, ownerID)),
		),
	)
}

func sendAgainKeyboard(ownerID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 ارسال مجدد", withOwner(cbSendAgain, ownerID)),
		),
	)
}

// contactUserKeyboard goes under a bridged message in the guard
// chat; any admin may press either button, so no owner tag.
func contactUserKeyboard(fromUserID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 پاسخ",
				fmt.Sprintf("%s:%d", cbGuardReply, fromUserID)),
			tgbotapi.NewInlineKeyboardButtonData("⛔ مسدود",
				fmt.Sprintf("%s:%d", cbBlock, fromUserID)),
		),
	)
}
