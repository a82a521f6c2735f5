package user

import (
	"context"
	"sort"
	"time"
)

type StubUserRepository struct {
	nextId int
	data   map[int]User
	// Err, when set, is returned by every call.
	Err error
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[int]User{}}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) (int, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	for _, existing := range s.data {
		if existing.Username == user.Username ||
			(existing.Uid != "" && existing.Uid == user.Uid) ||
			(existing.TelegramUsername != "" && existing.TelegramUsername == user.TelegramUsername) {
			return 0, ErrUserConflict
		}
	}
	s.nextId++
	user.Id = s.nextId
	s.data[s.nextId] = user
	return s.nextId, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	if s.Err != nil {
		return User{}, s.Err
	}
	user, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return s.find(func(u User) bool { return u.Uid == uid })
}

func (s *StubUserRepository) GetUserByTelegramUsername(ctx context.Context, telegramUsername string) (User, error) {
	if telegramUsername == "" {
		return User{}, ErrUserNotFound
	}
	wanted := NormalizeTelegramUsername(telegramUsername)
	return s.find(func(u User) bool { return NormalizeTelegramUsername(u.TelegramUsername) == wanted })
}

func (s *StubUserRepository) find(match func(User) bool) (User, error) {
	if s.Err != nil {
		return User{}, s.Err
	}
	for _, id := range s.ids() {
		if match(s.data[id]) {
			return s.data[id], nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepository) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	if s.Err != nil {
		return User{}, s.Err
	}
	existing, ok := s.data[userId]
	if !ok {
		return User{}, ErrUserNotFound
	}
	for id, other := range s.data {
		if id != userId && user.TelegramUsername != "" && other.TelegramUsername == user.TelegramUsername {
			return User{}, ErrUserConflict
		}
	}
	if existing.TelegramUsername != user.TelegramUsername {
		existing.TelegramChatId = nil
		existing.TelegramLinkedAt = nil
	}
	existing.DisplayName = user.DisplayName
	existing.TelegramUsername = user.TelegramUsername
	s.data[userId] = existing
	return existing, nil
}

func (s *StubUserRepository) DeleteUser(ctx context.Context, id int) error {
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.data[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *StubUserRepository) GetUsersWithTelegramChat(ctx context.Context) ([]User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	users := make([]User, 0)
	for _, id := range s.ids() {
		if s.data[id].HasTelegramChat() {
			users = append(users, s.data[id])
		}
	}
	return users, nil
}

func (s *StubUserRepository) SetTelegramChat(ctx context.Context, userId int, chatId int64, linkedAt time.Time) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.data[userId]
	if !ok {
		return ErrUserNotFound
	}
	user.TelegramChatId = &chatId
	user.TelegramLinkedAt = &linkedAt
	s.data[userId] = user
	return nil
}

func (s *StubUserRepository) ClearTelegramChat(ctx context.Context, userId int) error {
	if s.Err != nil {
		return s.Err
	}
	user, ok := s.data[userId]
	if !ok {
		return ErrUserNotFound
	}
	user.TelegramChatId = nil
	user.TelegramLinkedAt = nil
	s.data[userId] = user
	return nil
}

func (s *StubUserRepository) ids() []int {
	ids := make([]int, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
