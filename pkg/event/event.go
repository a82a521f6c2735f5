package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/keepsake/keepsake/pkg/occurrence"
)

// Event is a dated occasion owned by a single user. Only the month and day of
// EventDate decide when it is due; the year is the original year.
type Event struct {
	Id          uuid.UUID
	OwnerId     int
	Name        string
	EventDate   occurrence.Date
	EventLabel  string
	Notes       string
	IsRecurring bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Title is "Name's Label", or just the name when there is no label.
func (e Event) Title() string {
	if e.EventLabel == "" {
		return e.Name
	}
	return e.Name + "'s " + e.EventLabel
}

// Occurrence returns what occurrence.Upcoming needs to project the event.
func Occurrence(e Event) (occurrence.Date, bool) {
	return e.EventDate, e.IsRecurring
}
