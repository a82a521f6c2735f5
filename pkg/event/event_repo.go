package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keepsake/keepsake/pkg/occurrence"
	log "github.com/sirupsen/logrus"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	StoreEvent(ctx context.Context, userId int, event Event) (Event, error)
	GetEvent(ctx context.Context, userId int, id uuid.UUID) (Event, error)
	// GetEvents returns all events of the user in creation order.
	GetEvents(ctx context.Context, userId int) ([]Event, error)
	UpdateEvent(ctx context.Context, userId int, event Event) (Event, error)
	DeleteEvent(ctx context.Context, userId int, id uuid.UUID) error
	GetDistinctNames(ctx context.Context, userId int) ([]string, error)
}

type EventRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewEventRepo(db *pgxpool.Pool) *EventRepositoryImpl {
	return &EventRepositoryImpl{db: db}
}

const eventColumns = `id, user_id, name, event_date, event_label, notes, is_recurring, created_at, updated_at`

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	var eventDate time.Time
	err := row.Scan(&e.Id, &e.OwnerId, &e.Name, &eventDate, &e.EventLabel, &e.Notes, &e.IsRecurring, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Event{}, err
	}
	e.EventDate = occurrence.DateOf(eventDate)
	return e, nil
}

func (r *EventRepositoryImpl) StoreEvent(ctx context.Context, userId int, event Event) (Event, error) {
	if event.Id == uuid.Nil {
		event.Id = uuid.New()
	}
	query := `INSERT INTO event (id, user_id, name, event_date, event_label, notes, is_recurring)
			  VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + eventColumns
	stored, err := scanEvent(r.db.QueryRow(ctx, query,
		event.Id,
		userId,
		event.Name,
		event.EventDate.Time(),
		event.EventLabel,
		event.Notes,
		event.IsRecurring,
	))
	if err != nil {
		err := fmt.Errorf("could not store event: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return stored, nil
}

func (r *EventRepositoryImpl) GetEvent(ctx context.Context, userId int, id uuid.UUID) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE id = $1 AND user_id = $2`
	e, err := scanEvent(r.db.QueryRow(ctx, query, id, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	} else if err != nil {
		log.Errorf("failed to get event %s: %v", id, err)
		return Event{}, err
	}
	return e, nil
}

func (r *EventRepositoryImpl) GetEvents(ctx context.Context, userId int) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query events of user %d: %w", userId, err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			log.Errorf("failed to scan event: %v", err)
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return events, nil
}

func (r *EventRepositoryImpl) UpdateEvent(ctx context.Context, userId int, event Event) (Event, error) {
	query := `UPDATE event SET name = $1, event_date = $2, event_label = $3, notes = $4, is_recurring = $5, updated_at = now()
			  WHERE id = $6 AND user_id = $7 RETURNING ` + eventColumns
	updated, err := scanEvent(r.db.QueryRow(ctx, query,
		event.Name,
		event.EventDate.Time(),
		event.EventLabel,
		event.Notes,
		event.IsRecurring,
		event.Id,
		userId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	} else if err != nil {
		log.Errorf("failed to update event %s: %v", event.Id, err)
		return Event{}, err
	}
	return updated, nil
}

func (r *EventRepositoryImpl) DeleteEvent(ctx context.Context, userId int, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM event WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		log.Errorf("failed to delete event %s: %v", id, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *EventRepositoryImpl) GetDistinctNames(ctx context.Context, userId int) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT name FROM event WHERE user_id = $1 ORDER BY name`, userId)
	if err != nil {
		log.Errorf("failed to query event names: %v", err)
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		log.Errorf("failed to collect event names: %v", err)
		return nil, err
	}
	return names, nil
}
