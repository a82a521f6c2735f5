package telegram

import (
	"context"
	"errors"
	"net/http"

	"github.com/keepsake/keepsake/internal/rest"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

type TestSender interface {
	SendTest(ctx context.Context, chatId int64) error
}

type Handler struct {
	gateway TestSender
	users   user.Provider
}

func NewHandler(gateway TestSender, users user.Provider) *Handler {
	return &Handler{gateway: gateway, users: users}
}

// SendTestMessage godoc
// @Summary Send a Telegram test message
// @Description Send a fixed test message to the current user's linked chat
// @Tags Telegram
// @Produce json
// @Success 200 {object} rest.Response
// @Failure 400 {object} rest.Response
// @Failure 403 {string} string "User not found"
// @Router /api/telegram/test [post]
// @Security XUserId
func (h *Handler) SendTestMessage(w http.ResponseWriter, r *http.Request) {
	log.Trace("Sending telegram test message")

	currentUser, err := h.users.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			http.Error(w, "User not found", http.StatusForbidden)
			return
		}
		log.Errorf("failed to get current user: %v", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Response{Success: false, Message: "Failed to send test message"})
		return
	}

	err = ErrNoChat
	if currentUser.HasTelegramChat() {
		err = h.gateway.SendTest(r.Context(), *currentUser.TelegramChatId)
	}
	if err != nil {
		log.Warnf("telegram test message for user %s failed: %v", currentUser.Username, err)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Response{Success: false, Message: failureMessage(err)})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Response{Success: true, Message: "Test message sent successfully"})
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoChat):
		return "No Telegram chat linked. Send /start to the bot first."
	case errors.Is(err, ErrNotConfigured):
		return "Telegram bot is not configured"
	default:
		return "Failed to send test message"
	}
}
