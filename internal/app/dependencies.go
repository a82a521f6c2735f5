package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keepsake/keepsake/internal/config"
	"github.com/keepsake/keepsake/internal/event_bus"
	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/calendar"
	"github.com/keepsake/keepsake/pkg/event"
	"github.com/keepsake/keepsake/pkg/reminder"
	"github.com/keepsake/keepsake/pkg/telegram"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v4"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.SystemClock
	Location *time.Location
	EventBus *event_bus.EventBus

	PendingLinks *telegram.PendingLinkRepositoryImpl
	UserRepo     *user.UserRepoImpl
	UserService  *user.UserServiceImpl
	UserHandler  *user.Handler

	EventRepo    *event.EventRepositoryImpl
	EventService *event.EventServiceImpl
	EventHandler *event.EventHandler

	// Bot is nil when no token is configured.
	Bot             *tele.Bot
	Gateway         *telegram.Gateway
	LinkBot         *telegram.LinkBot
	TelegramHandler *telegram.Handler

	Dispatcher      *reminder.Dispatcher
	Scheduler       *reminder.Scheduler
	ReminderHandler *reminder.Handler

	CalendarExporter *calendar.Exporter
	CalendarHandler  *calendar.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	location, err := cfg.Reminder.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid reminder timezone %q: %w", cfg.Reminder.Timezone, err)
	}
	deps.Location = location
	deps.Clock = utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.PendingLinks = telegram.NewPendingLinkRepository(db)
	deps.UserRepo = user.NewUserRepo(db)
	deps.UserService = user.NewUserService(deps.UserRepo, deps.PendingLinks, deps.EventBus, deps.Clock)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.EventRepo = event.NewEventRepo(db)
	deps.EventService = event.NewEventService(deps.EventRepo, deps.Clock, deps.Location)
	deps.EventHandler = event.NewEventHandler(deps.EventService)

	var sender telegram.Sender
	bot, err := telegram.NewBot(cfg.Telegram, cfg.Reminder.SendTimeout)
	switch {
	case errors.Is(err, telegram.ErrNotConfigured):
		log.Warn("Telegram token is not set, notifications are disabled")
	case err != nil:
		return nil, err
	default:
		deps.Bot = bot
		sender = bot
	}
	deps.Gateway = telegram.NewGateway(sender, cfg.Telegram.RateLimit)
	deps.TelegramHandler = telegram.NewHandler(deps.Gateway, deps.UserService)
	telegram.SubscribeLinkNotifications(deps.EventBus, deps.Gateway)
	if deps.Bot != nil && cfg.Telegram.Polling {
		deps.LinkBot = telegram.NewLinkBot(deps.Bot, deps.UserService, deps.PendingLinks)
	}

	deps.Dispatcher = reminder.NewDispatcher(
		deps.UserRepo,
		deps.EventRepo,
		deps.Gateway,
		deps.Clock,
		cfg.Reminder.OwnerDelay,
		cfg.Reminder.SendTimeout,
	)
	deps.Scheduler, err = reminder.NewScheduler(deps.Dispatcher, deps.Clock, cfg.Reminder.Schedule, deps.Location)
	if err != nil {
		return nil, err
	}
	deps.ReminderHandler = reminder.NewHandler(deps.Dispatcher, deps.Clock, deps.Location)

	deps.CalendarExporter = calendar.NewExporter(deps.EventService, deps.Clock)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarExporter, deps.UserService)

	return deps, nil
}
