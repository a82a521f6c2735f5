package calendar

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/event"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

type stubLister struct {
	events []event.Event
	err    error
}

func (s stubLister) ListEvents(ctx context.Context) ([]event.Event, error) {
	return s.events, s.err
}

var exportTime = time.Date(2024, time.June, 10, 1, 0, 0, 0, time.UTC)

func export(t *testing.T, events ...event.Event) *ical.Calendar {
	t.Helper()
	exporter := NewExporter(stubLister{events: events}, &utils.MockClock{FixedNow: exportTime})

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(context.Background(), &buf, "Alice"))

	cal, err := ical.ParseCalendar(&buf)
	require.NoError(t, err)
	return cal
}

func property(c *ical.ComponentBase, p ical.ComponentProperty) string {
	if prop := c.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

func TestExporter_Export(t *testing.T) {
	t.Run("should export a recurring event as a yearly all-day event", func(t *testing.T) {
		// given
		id := uuid.New()
		birthday := event.Event{
			Id:          id,
			Name:        "Mom",
			EventLabel:  "Birthday",
			Notes:       "Flowers",
			EventDate:   occurrence.Date{Year: 1960, Month: time.June, Day: 15},
			IsRecurring: true,
		}

		// when
		cal := export(t, birthday)

		// then
		require.Len(t, cal.Events(), 1)
		vevent := cal.Events()[0]
		assert.Equal(t, id.String()+"@keepsake", property(&vevent.ComponentBase, ical.ComponentPropertyUniqueId))
		assert.Equal(t, "Mom's Birthday", property(&vevent.ComponentBase, ical.ComponentPropertySummary))
		assert.Equal(t, "Flowers", property(&vevent.ComponentBase, ical.ComponentPropertyDescription))
		assert.Equal(t, "FREQ=YEARLY", property(&vevent.ComponentBase, ical.ComponentPropertyRrule))
		assert.Equal(t, "20240610T010000Z", property(&vevent.ComponentBase, ical.ComponentPropertyDtstamp))

		start := vevent.GetProperty(ical.ComponentPropertyDtStart)
		require.NotNil(t, start)
		assert.Equal(t, "19600615", start.Value)
		assert.Equal(t, []string{"DATE"}, start.ICalParameters["VALUE"])

		require.Len(t, vevent.Alarms(), 1)
		alarm := vevent.Alarms()[0]
		assert.Equal(t, "DISPLAY", property(&alarm.ComponentBase, ical.ComponentPropertyAction))
		assert.Equal(t, "-PT9H", property(&alarm.ComponentBase, ical.ComponentPropertyTrigger))
	})

	t.Run("should not repeat a one-off event", func(t *testing.T) {
		cal := export(t, event.Event{
			Id:        uuid.New(),
			Name:      "Dentist",
			EventDate: occurrence.Date{Year: 2024, Month: time.July, Day: 1},
		})

		require.Len(t, cal.Events(), 1)
		vevent := cal.Events()[0]
		assert.Nil(t, vevent.GetProperty(ical.ComponentPropertyRrule))
		assert.Nil(t, vevent.GetProperty(ical.ComponentPropertyDescription))
		assert.Equal(t, "Dentist", property(&vevent.ComponentBase, ical.ComponentPropertySummary))
	})

	t.Run("should name the calendar", func(t *testing.T) {
		cal := export(t)

		assert.Empty(t, cal.Events())
		var name string
		for _, p := range cal.CalendarProperties {
			if p.IANAToken == string(ical.PropertyXWRCalName) {
				name = p.Value
			}
		}
		assert.Equal(t, "Alice", name)
	})

	t.Run("should return lister failures", func(t *testing.T) {
		exporter := NewExporter(stubLister{err: errors.New("connection refused")}, utils.SystemClock{})

		err := exporter.Export(context.Background(), &bytes.Buffer{}, "")

		assert.Error(t, err)
	})
}

func TestYearlyRule_LeapDay(t *testing.T) {
	// given
	leapDay := event.Event{
		Name:        "Leapling",
		EventDate:   occurrence.Date{Year: 2000, Month: time.February, Day: 29},
		IsRecurring: true,
	}

	// when
	rule, err := yearlyRule(leapDay)

	// then
	require.NoError(t, err)
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=-1", rule)

	r, err := rrule.StrToRRule(rule)
	require.NoError(t, err)
	r.DTStart(leapDay.EventDate.Time())
	occurrences := r.Between(
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		true,
	)
	require.Len(t, occurrences, 2)
	for _, o := range occurrences {
		projected := occurrence.Project(leapDay.EventDate, true, occurrence.DateOf(o))
		assert.Equal(t, 0, projected.DaysUntil, "occurrence %s", o)
	}
	assert.Equal(t, occurrence.Date{Year: 2023, Month: time.February, Day: 28}, occurrence.DateOf(occurrences[0]))
	assert.Equal(t, occurrence.Date{Year: 2024, Month: time.February, Day: 29}, occurrence.DateOf(occurrences[1]))
}
