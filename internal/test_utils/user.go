package test_utils

import (
	"context"

	"github.com/keepsake/keepsake/pkg/user"
)

// TestUserProvider always returns the same linked user.
type TestUserProvider struct{}

func (p TestUserProvider) GetCurrentUser(ctx context.Context) (user.User, error) {
	chatId := int64(987654321)
	return user.User{
		Id:               123,
		Uid:              "test-user-uid",
		Username:         "test_user",
		DisplayName:      "Test User",
		TelegramUsername: "test_user_tg",
		TelegramChatId:   &chatId,
	}, nil
}
