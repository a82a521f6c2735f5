package event

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// StubEventRepository keeps events in memory in insertion order.
type StubEventRepository struct {
	events []Event
	// Err, when set, is returned by every call.
	Err error
}

func NewStubEventRepository(events ...Event) *StubEventRepository {
	return &StubEventRepository{events: events}
}

func (s *StubEventRepository) StoreEvent(ctx context.Context, userId int, event Event) (Event, error) {
	if s.Err != nil {
		return Event{}, s.Err
	}
	if event.Id == uuid.Nil {
		event.Id = uuid.New()
	}
	event.OwnerId = userId
	s.events = append(s.events, event)
	return event, nil
}

func (s *StubEventRepository) GetEvent(ctx context.Context, userId int, id uuid.UUID) (Event, error) {
	if s.Err != nil {
		return Event{}, s.Err
	}
	for _, e := range s.events {
		if e.Id == id && e.OwnerId == userId {
			return e, nil
		}
	}
	return Event{}, ErrEventNotFound
}

func (s *StubEventRepository) GetEvents(ctx context.Context, userId int) ([]Event, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]Event, 0)
	for _, e := range s.events {
		if e.OwnerId == userId {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *StubEventRepository) UpdateEvent(ctx context.Context, userId int, event Event) (Event, error) {
	if s.Err != nil {
		return Event{}, s.Err
	}
	for i, e := range s.events {
		if e.Id == event.Id && e.OwnerId == userId {
			event.OwnerId = userId
			event.CreatedAt = e.CreatedAt
			s.events[i] = event
			return event, nil
		}
	}
	return Event{}, ErrEventNotFound
}

func (s *StubEventRepository) DeleteEvent(ctx context.Context, userId int, id uuid.UUID) error {
	if s.Err != nil {
		return s.Err
	}
	for i, e := range s.events {
		if e.Id == id && e.OwnerId == userId {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}

func (s *StubEventRepository) GetDistinctNames(ctx context.Context, userId int) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	seen := map[string]bool{}
	names := make([]string, 0)
	for _, e := range s.events {
		if e.OwnerId == userId && !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
