package reminder

import (
	"context"
	"net/http"
	"time"

	"github.com/keepsake/keepsake/internal/rest"
	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

type OwnerDispatcher interface {
	RunDailyDispatchForOwner(ctx context.Context, ownerId int, today occurrence.Date) (Result, error)
}

type Handler struct {
	dispatcher OwnerDispatcher
	clock      utils.Clock
	location   *time.Location
}

func NewHandler(dispatcher OwnerDispatcher, clock utils.Clock, location *time.Location) *Handler {
	return &Handler{dispatcher: dispatcher, clock: clock, location: location}
}

// SendToday godoc
// @Summary Send today's reminders
// @Description Run today's reminder dispatch for the current user only
// @Tags Reminder
// @Produce json
// @Success 200 {object} rest.Response
// @Failure 403 {string} string "User not found"
// @Failure 500 {object} rest.Response
// @Router /api/reminder/today [post]
// @Security XUserId
func (h *Handler) SendToday(w http.ResponseWriter, r *http.Request) {
	log.Trace("Sending today's reminders")

	userId, err := user.CurrentId(r.Context())
	if err != nil {
		http.Error(w, "User not found", http.StatusForbidden)
		return
	}

	today := occurrence.Today(h.clock.Now(), h.location)
	result, err := h.dispatcher.RunDailyDispatchForOwner(r.Context(), userId, today)
	if err != nil {
		log.Errorf("on-demand dispatch for user %d failed: %v", userId, err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Response{
			Success: false,
			Data:    nil,
			Message: "Failed to send notifications",
		})
		return
	}

	message := "No events today"
	if result.Count > 0 {
		message = "Notifications sent successfully"
	}
	rest.WriteJSON(w, http.StatusOK, rest.Response{
		Success: true,
		Data:    result,
		Message: message,
	})
}
