package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/keepsake/keepsake/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid              string     `json:"uid"`
	Username         string     `json:"username"`
	DisplayName      string     `json:"displayName"`
	TelegramUsername string     `json:"telegramUsername"`
	TelegramLinked   bool       `json:"telegramLinked"`
	TelegramLinkedAt *time.Time `json:"telegramLinkedAt,omitempty"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Create a new user
// @Description Register a new user. A missing uid is generated.
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "User already exists"
// @Router /api/user [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating user")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if len(dto.Username) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Username is required", "")
		return
	}
	if len(dto.DisplayName) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Display name is required", "")
		return
	}
	if dto.Uid == "" {
		dto.Uid = uuid.NewString()
	}

	createdUser, err := h.userService.CreateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		if errors.Is(err, ErrUserDataInvalid) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid user data", "")
			return
		}
		if errors.Is(err, ErrUserConflict) {
			rest.WriteError(w, http.StatusConflict, "User already exists", "Username or Telegram username is taken")
			return
		}
		log.Errorf("failed to create user: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to create user", "")
		return
	}
	log.Tracef("Created user: %+v", createdUser)

	rest.WriteJSON(w, http.StatusCreated, userToDTO(createdUser))
}

// CurrentUser godoc
// @Summary Get current user
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 403 {string} string "User not found"
// @Router /api/user/current [get]
// @Security XUserId
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(currentUser))
}

// UpdateUser godoc
// @Summary Update current user
// @Description Update the display name and Telegram username of the current user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 403 {string} string "User not found"
// @Failure 409 {object} rest.ErrorResponse "Telegram username is taken"
// @Router /api/user/current [put]
// @Security XUserId
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Updating user")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if len(dto.DisplayName) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Display name is required", "")
		return
	}

	updatedUser, err := h.userService.UpdateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Debug("Updated user: ", updatedUser.Username)

	rest.WriteJSON(w, http.StatusOK, userToDTO(updatedUser))
}

// UnlinkTelegram godoc
// @Summary Stop Telegram reminders
// @Description Remove the linked Telegram chat of the current user
// @Tags User
// @Success 204 "No Content"
// @Failure 403 {string} string "User not found"
// @Router /api/user/current/telegram [delete]
// @Security XUserId
func (h *Handler) UnlinkTelegram(w http.ResponseWriter, r *http.Request) {
	log.Trace("Unlinking telegram chat")

	userId, err := CurrentId(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.userService.UnlinkTelegramChat(r.Context(), userId); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoUser):
		http.Error(w, "User not found", http.StatusForbidden)
	case errors.Is(err, ErrUserNotFound):
		rest.WriteError(w, http.StatusNotFound, "User not found", "")
	case errors.Is(err, ErrUserDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid user data", "")
	case errors.Is(err, ErrUserConflict):
		rest.WriteError(w, http.StatusConflict, "Telegram username is taken", "")
	default:
		log.Errorf("user request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Uid:              user.Uid,
		Username:         user.Username,
		DisplayName:      user.DisplayName,
		TelegramUsername: user.TelegramUsername,
		TelegramLinked:   user.HasTelegramChat(),
		TelegramLinkedAt: user.TelegramLinkedAt,
	}
}

func dtoToUser(dto UserDTO) User {
	return User{
		Uid:              dto.Uid,
		Username:         dto.Username,
		DisplayName:      dto.DisplayName,
		TelegramUsername: dto.TelegramUsername,
	}
}
