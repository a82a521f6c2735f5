package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/keepsake/keepsake/internal/rest"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	Id          string          `json:"id"`
	Name        string          `json:"name"`
	EventDate   occurrence.Date `json:"eventDate"`
	EventLabel  string          `json:"eventLabel,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	IsRecurring bool            `json:"isRecurring"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type UpcomingEventDTO struct {
	EventDTO
	NextOccurrence occurrence.Date `json:"nextOccurrence"`
	DaysUntil      int             `json:"daysUntil"`
	YearCount      int             `json:"yearCount"`
}

// EventRequest is the body of create and update calls. IsRecurring defaults
// to true.
type EventRequest struct {
	Name        string `json:"name"`
	EventDate   string `json:"eventDate"`
	EventLabel  string `json:"eventLabel"`
	Notes       string `json:"notes"`
	IsRecurring *bool  `json:"isRecurring"`
}

type EventHandler struct {
	eventService EventService
}

func NewEventHandler(eventService EventService) *EventHandler {
	return &EventHandler{eventService}
}

// ListEvents godoc
// @Summary List events
// @Description List the current user's events, newest first
// @Tags Event
// @Produce json
// @Success 200 {array} EventDTO
// @Router /api/event [get]
// @Security XUserId
func (e *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing events")

	events, err := e.eventService.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]EventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, eventToDTO(event))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// GetEvent godoc
// @Summary Get event
// @Tags Event
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} EventDTO
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/event/{eventId} [get]
// @Security XUserId
func (e *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting event")

	id, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}
	event, err := e.eventService.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, eventToDTO(event))
}

// CreateEvent godoc
// @Summary Create event
// @Tags Event
// @Accept json
// @Produce json
// @Param event body EventRequest true "Event"
// @Success 201 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/event [post]
// @Security XUserId
func (e *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	log.Trace("Creating event")

	event, ok := decodeEventRequest(w, r)
	if !ok {
		return
	}
	created, err := e.eventService.CreateEvent(r.Context(), event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, eventToDTO(created))
}

// UpdateEvent godoc
// @Summary Update event
// @Tags Event
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param event body EventRequest true "Event"
// @Success 200 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/event/{eventId} [put]
// @Security XUserId
func (e *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	log.Trace("Updating event")

	id, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}
	event, ok := decodeEventRequest(w, r)
	if !ok {
		return
	}
	event.Id = id
	updated, err := e.eventService.UpdateEvent(r.Context(), event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, eventToDTO(updated))
}

// DeleteEvent godoc
// @Summary Delete event
// @Tags Event
// @Param eventId path string true "Event ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/event/{eventId} [delete]
// @Security XUserId
func (e *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	log.Trace("Deleting event")

	id, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}
	if err := e.eventService.DeleteEvent(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpcomingEvents godoc
// @Summary Upcoming events
// @Description Events ordered by days until their next occurrence. Past one-off events are left out.
// @Tags Event
// @Produce json
// @Success 200 {array} UpcomingEventDTO
// @Router /api/event/upcoming [get]
// @Security XUserId
func (e *EventHandler) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting upcoming events")

	upcoming, err := e.eventService.UpcomingEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]UpcomingEventDTO, 0, len(upcoming))
	for _, u := range upcoming {
		dtos = append(dtos, UpcomingEventDTO{
			EventDTO:       eventToDTO(u.Value),
			NextOccurrence: u.Projection.NextOccurrence,
			DaysUntil:      u.Projection.DaysUntil,
			YearCount:      u.Projection.YearCount,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// EventNames godoc
// @Summary Distinct event names
// @Tags Event
// @Produce json
// @Success 200 {array} string
// @Router /api/event/names [get]
// @Security XUserId
func (e *EventHandler) EventNames(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting event names")

	names, err := e.eventService.EventNames(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, names)
}

func eventIdFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["eventId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event id", "")
		return uuid.Nil, false
	}
	return id, true
}

func decodeEventRequest(w http.ResponseWriter, r *http.Request) (Event, bool) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return Event{}, false
	}
	log.Debug("Event request: ", req)

	if req.Name == "" {
		rest.WriteError(w, http.StatusBadRequest, "Name is required", "")
		return Event{}, false
	}
	eventDate, err := occurrence.ParseDate(req.EventDate)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event date format", "Event date must be a valid date in YYYY-MM-DD format")
		return Event{}, false
	}
	isRecurring := true
	if req.IsRecurring != nil {
		isRecurring = *req.IsRecurring
	}
	return Event{
		Name:        req.Name,
		EventDate:   eventDate,
		EventLabel:  req.EventLabel,
		Notes:       req.Notes,
		IsRecurring: isRecurring,
	}, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, "User not found", http.StatusForbidden)
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", "")
	case errors.Is(err, ErrEventInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
	default:
		log.Errorf("event request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func eventToDTO(e Event) EventDTO {
	return EventDTO{
		Id:          e.Id.String(),
		Name:        e.Name,
		EventDate:   e.EventDate,
		EventLabel:  e.EventLabel,
		Notes:       e.Notes,
		IsRecurring: e.IsRecurring,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
