// Package reminder sends each user one Telegram message per day listing the
// events that fall on that day.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/event"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Notice is one event inside a reminder message.
type Notice struct {
	Name        string
	EventDate   occurrence.Date
	EventLabel  string
	Notes       string
	IsRecurring bool
	// YearCount is the number of anniversaries reached today, 0 for
	// non-recurring events.
	YearCount int
}

// Gateway delivers a batch of notices as a single message. It returns true
// when the message was accepted.
type Gateway interface {
	SendBatch(ctx context.Context, chatId int64, notices []Notice) (bool, error)
}

type OwnerRepository interface {
	GetUsersWithTelegramChat(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, id int) (user.User, error)
}

type EventRepository interface {
	GetEvents(ctx context.Context, ownerId int) ([]event.Event, error)
}

// Result of a dispatch run. Count is the number of event mentions delivered,
// not the number of messages.
type Result struct {
	Count  int      `json:"count"`
	Events []string `json:"events"`
}

func emptyResult() Result {
	return Result{Count: 0, Events: []string{}}
}

func (r *Result) add(sent []string) {
	r.Count += len(sent)
	r.Events = append(r.Events, sent...)
}

type Dispatcher struct {
	owners      OwnerRepository
	events      EventRepository
	gateway     Gateway
	sleeper     utils.Sleeper
	ownerDelay  time.Duration
	sendTimeout time.Duration
}

func NewDispatcher(owners OwnerRepository, events EventRepository, gateway Gateway, sleeper utils.Sleeper, ownerDelay, sendTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		owners:      owners,
		events:      events,
		gateway:     gateway,
		sleeper:     sleeper,
		ownerDelay:  ownerDelay,
		sendTimeout: sendTimeout,
	}
}

// RunDailyDispatch notifies every user with a linked chat about their events
// matching today. Owners are processed one by one with ownerDelay after each
// send attempt. A failed send only affects its owner; a repository failure
// aborts the run and no result is returned.
func (d *Dispatcher) RunDailyDispatch(ctx context.Context, today occurrence.Date) (Result, error) {
	owners, err := d.owners.GetUsersWithTelegramChat(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list users with telegram chat: %w", err)
	}
	log.Infof("Running daily dispatch for %s over %d user(s)", today, len(owners))

	result := emptyResult()
	for _, owner := range owners {
		sent, attempted, err := d.dispatchOwner(ctx, owner, today)
		if err != nil {
			return Result{}, err
		}
		result.add(sent)
		if !attempted {
			continue
		}
		if err := d.sleeper.Sleep(ctx, d.ownerDelay); err != nil {
			log.Warnf("Daily dispatch interrupted after %d event(s): %v", result.Count, err)
			return result, fmt.Errorf("daily dispatch interrupted: %w", err)
		}
	}

	log.Infof("Daily dispatch for %s sent %d event(s)", today, result.Count)
	return result, nil
}

// RunDailyDispatchForOwner is RunDailyDispatch restricted to one user. A
// missing or unlinked user yields an empty result.
func (d *Dispatcher) RunDailyDispatchForOwner(ctx context.Context, ownerId int, today occurrence.Date) (Result, error) {
	owner, err := d.owners.GetUser(ctx, ownerId)
	if errors.Is(err, user.ErrUserNotFound) {
		log.Debugf("User %d not found, nothing to dispatch", ownerId)
		return emptyResult(), nil
	} else if err != nil {
		return Result{}, fmt.Errorf("failed to get user %d: %w", ownerId, err)
	}
	if !owner.HasTelegramChat() {
		log.Debugf("User %s has no telegram chat, nothing to dispatch", owner.Username)
		return emptyResult(), nil
	}

	result := emptyResult()
	sent, _, err := d.dispatchOwner(ctx, owner, today)
	if err != nil {
		return Result{}, err
	}
	result.add(sent)
	return result, nil
}

// dispatchOwner sends the owner's matching events. It reports whether the
// gateway was called; the error is set only for repository failures.
func (d *Dispatcher) dispatchOwner(ctx context.Context, owner user.User, today occurrence.Date) ([]string, bool, error) {
	events, err := d.events.GetEvents(ctx, owner.Id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load events of user %d: %w", owner.Id, err)
	}

	matching := make([]event.Event, 0)
	for _, e := range events {
		if occurrence.MatchesDay(e.EventDate, today) {
			matching = append(matching, e)
		}
	}
	if len(matching) == 0 {
		log.Debugf("No events today for user %s", owner.Username)
		return nil, false, nil
	}

	notices := make([]Notice, 0, len(matching))
	for _, e := range matching {
		notices = append(notices, noticeOf(e, today))
	}

	sendCtx := ctx
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	chatId := *owner.TelegramChatId
	ok, err := d.send(sendCtx, chatId, notices)
	if err != nil {
		log.Errorf("Failed to send %d reminder(s) to user %s (chat %d): %v", len(notices), owner.Username, chatId, err)
		return nil, true, nil
	}
	if !ok {
		log.Warnf("Reminder for user %s (chat %d) was not accepted", owner.Username, chatId)
		return nil, true, nil
	}

	sent := make([]string, 0, len(matching))
	for _, e := range matching {
		sent = append(sent, e.Name+" -> "+owner.Username)
	}
	log.Infof("Sent %d reminder(s) to user %s", len(sent), owner.Username)
	return sent, true, nil
}

// send calls the gateway and turns a panic into an error so one owner cannot
// abort the run.
func (d *Dispatcher) send(ctx context.Context, chatId int64, notices []Notice) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return d.gateway.SendBatch(ctx, chatId, notices)
}

func noticeOf(e event.Event, today occurrence.Date) Notice {
	n := Notice{
		Name:        e.Name,
		EventDate:   e.EventDate,
		EventLabel:  e.EventLabel,
		Notes:       e.Notes,
		IsRecurring: e.IsRecurring,
	}
	if e.IsRecurring {
		n.YearCount = occurrence.Project(e.EventDate, true, today).YearCount
	}
	return n
}
