package report

import (
	"fmt"
	"strings"
	"time"
)

// HumanDuration renders a duration as compact hours/minutes/seconds,
// e.g. "1h03m" or "42s". Seconds are dropped once hours appear.
func HumanDuration(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Mention renders a Telegram HTML deep-link mention
func Mention(userID int64, name string) string {
	if name == "" {
		name = "member"
	}
	return fmt.Sprintf("<a href='tg://user?id=%d'>%s</a>", userID, escape(name))
}

// ChunkMentions joins mentions into lines of at most perLine entries,
// keeping each Telegram message under the mention-notification cap.
func ChunkMentions(mentions []string, perLine int) []string {
	if perLine <= 0 {
		perLine = 5
	}
	var lines []string
	for start := 0; start < len(mentions); start += perLine {
		end := start + perLine
		if end > len(mentions) {
			end = len(mentions)
		}
		lines = append(lines, strings.Join(mentions[start:end], " "))
	}
	return lines
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
