package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/keepsake/keepsake/internal/event_bus"
	"github.com/keepsake/keepsake/internal/utils"
	log "github.com/sirupsen/logrus"
)

var ErrUserDataInvalid = errors.New("invalid user data")

// PendingLinks hands out chats that sent /start before a user with the
// matching Telegram username existed. A taken link is removed; SavePendingLink
// puts one back when linking it fails.
type PendingLinks interface {
	TakePendingLink(ctx context.Context, telegramUsername string) (chatId int64, found bool, err error)
	SavePendingLink(ctx context.Context, telegramUsername string, chatId int64) error
}

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByTelegramUsername(ctx context.Context, telegramUsername string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
	LinkTelegramChat(ctx context.Context, telegramUsername string, chatId int64) (User, error)
	UnlinkTelegramChat(ctx context.Context, userId int) error
}

type Provider interface {
	GetCurrentUser(ctx context.Context) (User, error)
}

type UserServiceImpl struct {
	repo    Repo
	pending PendingLinks
	bus     *event_bus.EventBus
	clock   utils.Clock
}

func NewUserService(repo Repo, pending PendingLinks, bus *event_bus.EventBus, clock utils.Clock) *UserServiceImpl {
	return &UserServiceImpl{repo: repo, pending: pending, bus: bus, clock: clock}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Username == "" || user.DisplayName == "" {
		return User{}, ErrUserDataInvalid
	}
	user.TelegramUsername = NormalizeTelegramUsername(user.TelegramUsername)
	user.TelegramChatId = nil
	user.TelegramLinkedAt = nil

	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	u.consumePendingLink(ctx, &user)
	return user, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) GetUserByTelegramUsername(ctx context.Context, telegramUsername string) (User, error) {
	return u.repo.GetUserByTelegramUsername(ctx, NormalizeTelegramUsername(telegramUsername))
}

// UpdateUser updates the display name and Telegram username of the current
// user. Changing the Telegram username drops the linked chat.
func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if user.DisplayName == "" {
		return User{}, ErrUserDataInvalid
	}
	existing, err := u.repo.GetUser(ctx, userId)
	if err != nil {
		return User{}, err
	}

	user.TelegramUsername = NormalizeTelegramUsername(user.TelegramUsername)
	updated, err := u.repo.UpdateUser(ctx, userId, user)
	if err != nil {
		return User{}, err
	}
	if existing.HasTelegramChat() && !updated.HasTelegramChat() {
		log.Infof("Telegram username of user %s changed, unlinked chat %d", existing.Username, *existing.TelegramChatId)
		u.publishUnlinked(ctx, existing)
	}
	if !updated.HasTelegramChat() {
		u.consumePendingLink(ctx, &updated)
	}
	return updated, nil
}

func (u *UserServiceImpl) DeleteUser(ctx context.Context, id int) error {
	return u.repo.DeleteUser(ctx, id)
}

// LinkTelegramChat stores chatId as the notification destination of the user
// with the given Telegram username.
func (u *UserServiceImpl) LinkTelegramChat(ctx context.Context, telegramUsername string, chatId int64) (User, error) {
	user, err := u.GetUserByTelegramUsername(ctx, telegramUsername)
	if err != nil {
		return User{}, err
	}
	if err := u.link(ctx, &user, chatId); err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserServiceImpl) UnlinkTelegramChat(ctx context.Context, userId int) error {
	user, err := u.repo.GetUser(ctx, userId)
	if err != nil {
		return err
	}
	if !user.HasTelegramChat() {
		return nil
	}
	return u.unlink(ctx, user)
}

// consumePendingLink links a chat waiting for the user's Telegram username.
// The user is already stored, so failures are logged and leave the user
// unlinked.
func (u *UserServiceImpl) consumePendingLink(ctx context.Context, user *User) {
	if u.pending == nil || user.TelegramUsername == "" {
		return
	}
	chatId, found, err := u.pending.TakePendingLink(ctx, user.TelegramUsername)
	if err != nil {
		log.Errorf("failed to read pending telegram link for @%s: %v", user.TelegramUsername, err)
		return
	}
	if !found {
		return
	}
	log.Infof("Consuming pending telegram link for @%s", user.TelegramUsername)
	if err := u.link(ctx, user, chatId); err != nil {
		log.Errorf("failed to consume pending telegram link for @%s: %v", user.TelegramUsername, err)
		if err := u.pending.SavePendingLink(ctx, user.TelegramUsername, chatId); err != nil {
			log.Errorf("failed to restore pending telegram link for @%s: %v", user.TelegramUsername, err)
		}
	}
}

func (u *UserServiceImpl) link(ctx context.Context, user *User, chatId int64) error {
	linkedAt := u.clock.Now()
	if err := u.repo.SetTelegramChat(ctx, user.Id, chatId, linkedAt); err != nil {
		return fmt.Errorf("failed to link telegram chat: %w", err)
	}
	user.TelegramChatId = &chatId
	user.TelegramLinkedAt = &linkedAt
	log.Infof("Linked telegram chat %d to user %s", chatId, user.Username)

	u.publish(ctx, event_bus.OwnerLinkedType, event_bus.OwnerLinked{
		UserId:           user.Id,
		TelegramUsername: user.TelegramUsername,
		ChatId:           chatId,
		LinkedAt:         linkedAt,
	})
	return nil
}

func (u *UserServiceImpl) unlink(ctx context.Context, user User) error {
	if err := u.repo.ClearTelegramChat(ctx, user.Id); err != nil {
		return fmt.Errorf("failed to unlink telegram chat: %w", err)
	}
	log.Infof("Unlinked telegram chat of user %s", user.Username)
	u.publishUnlinked(ctx, user)
	return nil
}

// publishUnlinked announces that the chat user was linked to is gone.
func (u *UserServiceImpl) publishUnlinked(ctx context.Context, user User) {
	u.publish(ctx, event_bus.OwnerUnlinkedType, event_bus.OwnerUnlinked{
		UserId: user.Id,
		ChatId: *user.TelegramChatId,
	})
}

// publish failures only affect subscribers, the link itself is stored.
func (u *UserServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if u.bus == nil {
		return
	}
	if err := u.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("failed to publish %s: %v", eventType, err)
	}
}
