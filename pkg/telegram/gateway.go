package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/keepsake/keepsake/internal/config"
	"github.com/keepsake/keepsake/pkg/reminder"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

var (
	ErrNotConfigured = errors.New("telegram bot is not configured")
	ErrNoChat        = errors.New("no telegram chat linked")
)

const pollTimeout = 10 * time.Second

// Sender is the part of *tele.Bot used for outgoing messages.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// NewBot creates the Telegram client. An empty token yields ErrNotConfigured.
// When the Bot API cannot be reached the bot is created offline, so the
// service still starts and sends are retried on the next dispatch.
func NewBot(cfg config.Telegram, sendTimeout time.Duration) (*tele.Bot, error) {
	if cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	clientTimeout := pollTimeout + 5*time.Second
	if sendTimeout > clientTimeout {
		clientTimeout = sendTimeout
	}
	settings := tele.Settings{
		URL:    cfg.APIURL,
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
		Client: &http.Client{Timeout: clientTimeout},
		OnError: func(err error, c tele.Context) {
			log.Errorf("telegram: %v", err)
		},
	}
	bot, err := tele.NewBot(settings)
	if err != nil {
		log.Warnf("Telegram bot authorization failed, starting offline: %v", err)
		settings.Offline = true
		bot, err = tele.NewBot(settings)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		return bot, nil
	}
	log.Infof("Telegram bot authorized as @%s", bot.Me.Username)
	return bot, nil
}

// Gateway sends HTML messages to Telegram chats, throttled to a global rate.
// A Gateway without a sender fails every send with ErrNotConfigured.
type Gateway struct {
	sender  Sender
	limiter *rate.Limiter
}

func NewGateway(sender Sender, ratePerSec float64) *Gateway {
	if ratePerSec <= 0 {
		ratePerSec = 25
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Gateway{sender: sender, limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// SendBatch sends all notices as a single message.
func (g *Gateway) SendBatch(ctx context.Context, chatId int64, notices []reminder.Notice) (bool, error) {
	if len(notices) == 0 {
		return false, nil
	}
	if err := g.SendText(ctx, chatId, FormatMessage(notices)); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gateway) SendTest(ctx context.Context, chatId int64) error {
	return g.SendText(ctx, chatId, testMessage)
}

func (g *Gateway) SendText(ctx context.Context, chatId int64, text string) error {
	if g.sender == nil {
		return ErrNotConfigured
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatId, err)
	}
	_, err := g.sender.Send(tele.ChatID(chatId), text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatId, err)
	}
	log.Debugf("Telegram message sent to chat %d", chatId)
	return nil
}
