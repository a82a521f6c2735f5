package user

import (
	"strings"
	"time"
)

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	// TelegramUsername is matched against the sender of /start to link a chat.
	TelegramUsername string
	// TelegramChatId is where reminders are delivered. Nil means the user has
	// not opted in.
	TelegramChatId   *int64
	TelegramLinkedAt *time.Time
	CreatedAt        time.Time
}

func (u User) HasTelegramChat() bool {
	return u.TelegramChatId != nil
}

// NormalizeTelegramUsername lowercases a Telegram handle and strips the
// leading "@". Telegram usernames are case-insensitive.
func NormalizeTelegramUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}
