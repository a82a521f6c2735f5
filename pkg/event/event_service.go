package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrEventInvalid = errors.New("invalid event")

type UpcomingEvent = occurrence.Projected[Event]

type EventService interface {
	// ListEvents returns the current user's events, newest first.
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	// UpcomingEvents projects the current user's events onto today and orders
	// them by days until the next occurrence.
	UpcomingEvents(ctx context.Context) ([]UpcomingEvent, error)
	EventNames(ctx context.Context) ([]string, error)
}

type EventServiceImpl struct {
	repo     EventRepository
	clock    utils.Clock
	location *time.Location
}

func NewEventService(repo EventRepository, clock utils.Clock, location *time.Location) *EventServiceImpl {
	return &EventServiceImpl{repo: repo, clock: clock, location: location}
}

func (s *EventServiceImpl) ListEvents(ctx context.Context) ([]Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	events, err := s.repo.GetEvents(ctx, userId)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}

func (s *EventServiceImpl) GetEvent(ctx context.Context, id uuid.UUID) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetEvent(ctx, userId, id)
}

func (s *EventServiceImpl) CreateEvent(ctx context.Context, event Event) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	event, err = normalize(event)
	if err != nil {
		return Event{}, err
	}
	event.Id = uuid.Nil
	created, err := s.repo.StoreEvent(ctx, userId, event)
	if err != nil {
		return Event{}, err
	}
	log.Debugf("Created event %s for user %d", created.Id, userId)
	return created, nil
}

func (s *EventServiceImpl) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	event, err = normalize(event)
	if err != nil {
		return Event{}, err
	}
	return s.repo.UpdateEvent(ctx, userId, event)
}

func (s *EventServiceImpl) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.DeleteEvent(ctx, userId, id)
}

func (s *EventServiceImpl) UpcomingEvents(ctx context.Context) ([]UpcomingEvent, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	events, err := s.repo.GetEvents(ctx, userId)
	if err != nil {
		return nil, err
	}
	today := occurrence.Today(s.clock.Now(), s.location)
	return occurrence.Upcoming(events, today, Occurrence), nil
}

func (s *EventServiceImpl) EventNames(ctx context.Context) ([]string, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetDistinctNames(ctx, userId)
}

func normalize(event Event) (Event, error) {
	event.Name = strings.TrimSpace(event.Name)
	event.EventLabel = strings.TrimSpace(event.EventLabel)
	event.Notes = strings.TrimSpace(event.Notes)
	if event.Name == "" {
		return Event{}, fmt.Errorf("%w: name is required", ErrEventInvalid)
	}
	if !event.EventDate.IsValid() {
		return Event{}, fmt.Errorf("%w: event date %s is not a calendar date", ErrEventInvalid, event.EventDate)
	}
	return event, nil
}
