package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v4"
)

const (
	noUsernameReply = "Please set a username in your Telegram settings and send /start again."
	pendingReply    = "👋 Hi @%s! Enter <b>%s</b> as your Telegram username in Keepsake and this chat will start receiving your reminders."
	notLinkedReply  = "This chat is not linked to a Keepsake account."
	failureReply    = "Something went wrong, please try again later."
)

// Linker is the user side of the /start and /stop handshake.
type Linker interface {
	LinkTelegramChat(ctx context.Context, telegramUsername string, chatId int64) (user.User, error)
	GetUserByTelegramUsername(ctx context.Context, telegramUsername string) (user.User, error)
	UnlinkTelegramChat(ctx context.Context, userId int) error
}

// LinkBot links Telegram chats to users. A successful /start or /stop is
// confirmed by the OwnerLinked and OwnerUnlinked subscribers, so the bot only
// replies itself when nothing changed.
type LinkBot struct {
	bot     *tele.Bot
	links   Linker
	pending PendingLinkRepository
}

func NewLinkBot(bot *tele.Bot, links Linker, pending PendingLinkRepository) *LinkBot {
	return &LinkBot{bot: bot, links: links, pending: pending}
}

// Start registers the command handlers and begins long polling in the
// background.
func (b *LinkBot) Start() {
	b.bot.Handle("/start", b.onCommand(b.HandleStart))
	b.bot.Handle("/stop", b.onCommand(b.HandleStop))
	go b.bot.Start()
	log.Info("Telegram link bot started")
}

func (b *LinkBot) Stop() {
	b.bot.Stop()
	log.Info("Telegram link bot stopped")
}

func (b *LinkBot) onCommand(handle func(ctx context.Context, username string, chatId int64) (string, error)) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil || c.Chat() == nil {
			return nil
		}
		reply, err := handle(context.Background(), c.Sender().Username, c.Chat().ID)
		if err != nil {
			log.Errorf("telegram command %q from chat %d failed: %v", c.Text(), c.Chat().ID, err)
			return c.Send(failureReply)
		}
		if reply == "" {
			return nil
		}
		return c.Send(reply, tele.ModeHTML)
	}
}

// HandleStart links chatId to the user whose Telegram username is username,
// or remembers the chat until such a user appears.
func (b *LinkBot) HandleStart(ctx context.Context, username string, chatId int64) (string, error) {
	normalized := user.NormalizeTelegramUsername(username)
	if normalized == "" {
		return noUsernameReply, nil
	}

	_, err := b.links.LinkTelegramChat(ctx, normalized, chatId)
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return "", err
	}

	if err := b.pending.SavePendingLink(ctx, normalized, chatId); err != nil {
		return "", err
	}
	log.Infof("Saved pending telegram link for @%s", normalized)
	return fmt.Sprintf(pendingReply, normalized, normalized), nil
}

// HandleStop unlinks chatId from its user and forgets any pending link.
func (b *LinkBot) HandleStop(ctx context.Context, username string, chatId int64) (string, error) {
	normalized := user.NormalizeTelegramUsername(username)
	if normalized == "" {
		return notLinkedReply, nil
	}
	if _, _, err := b.pending.TakePendingLink(ctx, normalized); err != nil {
		return "", err
	}

	u, err := b.links.GetUserByTelegramUsername(ctx, normalized)
	if errors.Is(err, user.ErrUserNotFound) {
		return notLinkedReply, nil
	} else if err != nil {
		return "", err
	}
	if !u.HasTelegramChat() || *u.TelegramChatId != chatId {
		return notLinkedReply, nil
	}
	if err := b.links.UnlinkTelegramChat(ctx, u.Id); err != nil {
		return "", err
	}
	return "", nil
}
