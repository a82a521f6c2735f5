package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/keepsake/keepsake/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var singapore = time.FixedZone("UTC+8", 8*60*60)

func mustDate(t *testing.T, s string) occurrence.Date {
	t.Helper()
	d, err := occurrence.ParseDate(s)
	require.NoError(t, err)
	return d
}

func userCtx(id int) context.Context {
	return user.WithUser(context.Background(), user.User{Id: id, Username: "owner"})
}

func setupService(now time.Time, events ...Event) (*EventServiceImpl, *StubEventRepository) {
	repo := NewStubEventRepository(events...)
	return NewEventService(repo, &utils.MockClock{FixedNow: now}, singapore), repo
}

func TestEventServiceImpl_CreateEvent(t *testing.T) {
	t.Run("should store a trimmed event for the current user", func(t *testing.T) {
		// given
		service, repo := setupService(time.Now())

		// when
		created, err := service.CreateEvent(userCtx(1), Event{Name: "  Mom ", EventDate: mustDate(t, "1960-05-12"), EventLabel: "birthday", IsRecurring: true})

		// then
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.Id)
		assert.Equal(t, "Mom", created.Name)
		assert.Equal(t, 1, created.OwnerId)
		stored, _ := repo.GetEvents(context.Background(), 1)
		assert.Len(t, stored, 1)
	})

	testCases := []struct {
		name  string
		event Event
	}{
		{name: "Empty name", event: Event{Name: "   ", EventDate: occurrence.Date{Year: 2000, Month: time.January, Day: 1}}},
		{name: "Invalid date", event: Event{Name: "x", EventDate: occurrence.Date{Year: 2023, Month: time.February, Day: 29}}},
		{name: "Zero date", event: Event{Name: "x"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, _ := setupService(time.Now())

			_, err := service.CreateEvent(userCtx(1), tc.event)

			assert.ErrorIs(t, err, ErrEventInvalid)
		})
	}

	t.Run("should require a user in context", func(t *testing.T) {
		service, _ := setupService(time.Now())

		_, err := service.CreateEvent(context.Background(), Event{Name: "x", EventDate: mustDate(t, "2000-01-01")})

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestEventServiceImpl_OwnerIsolation(t *testing.T) {
	// given
	foreign := Event{Id: uuid.New(), OwnerId: 2, Name: "Foreign", EventDate: mustDate(t, "2000-01-01")}
	service, _ := setupService(time.Now(), foreign)
	ctx := userCtx(1)

	// when
	_, getErr := service.GetEvent(ctx, foreign.Id)
	_, updateErr := service.UpdateEvent(ctx, Event{Id: foreign.Id, Name: "Mine", EventDate: mustDate(t, "2000-01-01")})
	deleteErr := service.DeleteEvent(ctx, foreign.Id)
	events, listErr := service.ListEvents(ctx)

	// then
	assert.ErrorIs(t, getErr, ErrEventNotFound)
	assert.ErrorIs(t, updateErr, ErrEventNotFound)
	assert.ErrorIs(t, deleteErr, ErrEventNotFound)
	require.NoError(t, listErr)
	assert.Empty(t, events)
}

func TestEventServiceImpl_ListEvents(t *testing.T) {
	// given
	service, _ := setupService(time.Now(),
		Event{Id: uuid.New(), OwnerId: 1, Name: "first", EventDate: mustDate(t, "2000-01-01")},
		Event{Id: uuid.New(), OwnerId: 1, Name: "second", EventDate: mustDate(t, "2000-01-02")},
	)

	// when
	events, err := service.ListEvents(userCtx(1))

	// then
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Name)
	assert.Equal(t, "first", events[1].Name)
}

func TestEventServiceImpl_UpcomingEvents(t *testing.T) {
	t.Run("should use today in the configured timezone", func(t *testing.T) {
		// given
		// 2024-06-09 17:00 UTC is already June 10 in UTC+8
		now := time.Date(2024, time.June, 9, 17, 0, 0, 0, time.UTC)
		service, _ := setupService(now,
			Event{Id: uuid.New(), OwnerId: 1, Name: "Later", EventDate: mustDate(t, "2020-06-15"), IsRecurring: true},
			Event{Id: uuid.New(), OwnerId: 1, Name: "Today", EventDate: mustDate(t, "1990-06-10"), IsRecurring: true},
			Event{Id: uuid.New(), OwnerId: 1, Name: "Gone", EventDate: mustDate(t, "2024-06-09"), IsRecurring: false},
			Event{Id: uuid.New(), OwnerId: 2, Name: "Other user", EventDate: mustDate(t, "1990-06-10"), IsRecurring: true},
		)

		// when
		upcoming, err := service.UpcomingEvents(userCtx(1))

		// then
		require.NoError(t, err)
		require.Len(t, upcoming, 2)
		assert.Equal(t, "Today", upcoming[0].Value.Name)
		assert.Equal(t, 0, upcoming[0].Projection.DaysUntil)
		assert.Equal(t, 34, upcoming[0].Projection.YearCount)
		assert.Equal(t, "Later", upcoming[1].Value.Name)
		assert.Equal(t, 5, upcoming[1].Projection.DaysUntil)
		assert.Equal(t, 4, upcoming[1].Projection.YearCount)
	})

	t.Run("should propagate repository errors", func(t *testing.T) {
		service, repo := setupService(time.Now())
		repo.Err = errors.New("connection refused")

		_, err := service.UpcomingEvents(userCtx(1))

		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestEventServiceImpl_EventNames(t *testing.T) {
	service, _ := setupService(time.Now(),
		Event{Id: uuid.New(), OwnerId: 1, Name: "Mom", EventDate: mustDate(t, "2000-01-01")},
		Event{Id: uuid.New(), OwnerId: 1, Name: "Dad", EventDate: mustDate(t, "2000-01-01")},
		Event{Id: uuid.New(), OwnerId: 1, Name: "Mom", EventDate: mustDate(t, "2010-01-01")},
	)

	names, err := service.EventNames(userCtx(1))

	require.NoError(t, err)
	assert.Equal(t, []string{"Dad", "Mom"}, names)
}

func TestEvent_Title(t *testing.T) {
	assert.Equal(t, "Mom's birthday", Event{Name: "Mom", EventLabel: "birthday"}.Title())
	assert.Equal(t, "Wedding", Event{Name: "Wedding"}.Title())
}
