// Package occurrence projects dated events onto a reference day.
//
// Everything here is pure: callers pass "today" explicitly, already
// normalized to the timezone they care about.
package occurrence

import "sort"

// Projection is the next occurrence of an event relative to a reference day.
type Projection struct {
	NextOccurrence Date
	// DaysUntil is 0 for today and negative only for past non-recurring events.
	DaysUntil int
	// YearCount is the number of anniversaries reached at NextOccurrence,
	// always 0 for non-recurring events.
	YearCount int
}

// Project computes the next occurrence of an event dated eventDate.
//
// A recurring event repeats every year on its month and day, so its next
// occurrence is the first such day on or after today. A non-recurring event
// only happens on its literal date, which may lie in the past.
func Project(eventDate Date, isRecurring bool, today Date) Projection {
	if !isRecurring {
		return Projection{
			NextOccurrence: eventDate,
			DaysUntil:      today.DaysUntil(eventDate),
			YearCount:      0,
		}
	}

	next := eventDate.OnYear(today.Year)
	if next.Before(today) {
		next = eventDate.OnYear(today.Year + 1)
	}
	return Projection{
		NextOccurrence: next,
		DaysUntil:      today.DaysUntil(next),
		YearCount:      next.Year - eventDate.Year,
	}
}

// MatchesDay reports whether an event dated eventDate falls on today,
// ignoring the year. Leap day events match February 28 in non-leap years.
// Daily dispatch uses this rule on purpose so a reminder fires on the day
// Project reports DaysUntil == 0.
func MatchesDay(eventDate Date, today Date) bool {
	return eventDate.OnYear(today.Year) == today
}

// Projected pairs a value with its projection.
type Projected[T any] struct {
	Value      T
	Projection Projection
}

// Upcoming projects items onto today and orders them by DaysUntil. Past
// non-recurring items are dropped. Items with the same DaysUntil keep their
// input order.
func Upcoming[T any](items []T, today Date, dateOf func(T) (Date, bool)) []Projected[T] {
	result := make([]Projected[T], 0, len(items))
	for _, item := range items {
		eventDate, isRecurring := dateOf(item)
		p := Project(eventDate, isRecurring, today)
		if !isRecurring && p.DaysUntil < 0 {
			continue
		}
		result = append(result, Projected[T]{Value: item, Projection: p})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Projection.DaysUntil < result[j].Projection.DaysUntil
	})
	return result
}
