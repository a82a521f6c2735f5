package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	days []occurrence.Date
}

func (r *recordingDispatcher) RunDailyDispatch(ctx context.Context, today occurrence.Date) (Result, error) {
	r.days = append(r.days, today)
	return Result{Count: 0, Events: []string{}}, nil
}

func TestScheduler(t *testing.T) {
	singapore := time.FixedZone("UTC+8", 8*60*60)

	t.Run("should derive today in the scheduler location", func(t *testing.T) {
		// given
		dispatcher := &recordingDispatcher{}
		// 2024-03-04 16:30 UTC is already March 5 in UTC+8
		clock := &utils.MockClock{FixedNow: time.Date(2024, time.March, 4, 16, 30, 0, 0, time.UTC)}
		scheduler, err := NewScheduler(dispatcher, clock, "0 9 * * *", singapore)
		require.NoError(t, err)

		// when
		_, err = scheduler.RunNow(context.Background())
		scheduler.run()

		// then
		require.NoError(t, err)
		expected := occurrence.Date{Year: 2024, Month: time.March, Day: 5}
		assert.Equal(t, []occurrence.Date{expected, expected}, dispatcher.days)
	})

	t.Run("should schedule the next run at the configured local hour", func(t *testing.T) {
		// given
		scheduler, err := NewScheduler(&recordingDispatcher{}, utils.SystemClock{}, "0 9 * * *", singapore)
		require.NoError(t, err)

		// when
		scheduler.Start()
		defer scheduler.Stop()

		// then
		next := scheduler.Next().In(singapore)
		assert.Equal(t, 9, next.Hour())
		assert.Equal(t, 0, next.Minute())
		assert.True(t, next.After(time.Now()))
	})

	t.Run("should reject an invalid schedule", func(t *testing.T) {
		_, err := NewScheduler(&recordingDispatcher{}, utils.SystemClock{}, "every morning", singapore)

		assert.ErrorContains(t, err, "invalid reminder schedule")
	})
}
