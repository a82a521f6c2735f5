// Package calendar exports events as an iCalendar feed.
package calendar

import (
	"context"
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/event"
	"github.com/teambition/rrule-go"
)

const (
	productId    = "-//Keepsake//Event Reminders//EN"
	uidDomain    = "keepsake"
	alarmTrigger = "-PT9H"
)

type EventLister interface {
	ListEvents(ctx context.Context) ([]event.Event, error)
}

// Exporter renders the current user's events as all-day VEVENTs. Recurring
// events repeat yearly; a February 29 event falls on February 28 in common
// years, the same as reminders do.
type Exporter struct {
	events EventLister
	clock  utils.Clock
}

func NewExporter(events EventLister, clock utils.Clock) *Exporter {
	return &Exporter{events: events, clock: clock}
}

// Export writes the calendar of the user in ctx to w. name, when not empty,
// becomes the calendar display name.
func (e *Exporter) Export(ctx context.Context, w io.Writer, name string) error {
	events, err := e.events.ListEvents(ctx)
	if err != nil {
		return err
	}
	cal, err := e.build(events, name)
	if err != nil {
		return err
	}
	return cal.SerializeTo(w)
}

func (e *Exporter) build(events []event.Event, name string) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.SetProductId(productId)
	cal.SetMethod(ical.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.clock.Now().UTC()
	for _, ev := range events {
		vevent := cal.AddEvent(fmt.Sprintf("%s@%s", ev.Id, uidDomain))
		vevent.SetDtStampTime(stamp)
		start := ev.EventDate.Time()
		vevent.SetAllDayStartAt(start)
		vevent.SetAllDayEndAt(start.AddDate(0, 0, 1))
		vevent.SetSummary(ev.Title())
		if ev.Notes != "" {
			vevent.SetDescription(ev.Notes)
		}
		if ev.IsRecurring {
			rule, err := yearlyRule(ev)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", ev.Id, err)
			}
			vevent.AddRrule(rule)
		}

		alarm := vevent.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger(alarmTrigger)
		alarm.SetProperty(ical.ComponentPropertyDescription, ev.Title())
	}
	return cal, nil
}

// yearlyRule returns the RRULE value for a recurring event.
func yearlyRule(ev event.Event) (string, error) {
	opt := rrule.ROption{Freq: rrule.YEARLY}
	if ev.EventDate.Month == time.February && ev.EventDate.Day == 29 {
		opt.Bymonth = []int{int(time.February)}
		opt.Bymonthday = []int{-1}
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("invalid recurrence: %w", err)
	}
	return opt.RRuleString(), nil
}
