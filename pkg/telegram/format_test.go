package telegram

import (
	"testing"
	"time"

	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/keepsake/keepsake/pkg/reminder"
	"github.com/stretchr/testify/assert"
)

func TestFormatMessage(t *testing.T) {
	t.Run("should render one block per event", func(t *testing.T) {
		// given
		notices := []reminder.Notice{
			{
				Name:        "Mom",
				EventDate:   occurrence.Date{Year: 1960, Month: time.June, Day: 10},
				EventLabel:  "Birthday",
				Notes:       "Call her in the morning",
				IsRecurring: true,
				YearCount:   64,
			},
			{
				Name:        "Dentist",
				EventDate:   occurrence.Date{Year: 2024, Month: time.June, Day: 10},
				IsRecurring: false,
			},
		}

		// when
		message := FormatMessage(notices)

		// then
		expected := "🎉 <b>Today's reminders</b>" +
			"\n\n🎂 <b>Mom</b>'s Birthday\n📅 since 1960 (64 years)\n📝 Call her in the morning" +
			"\n\n🎂 <b>Dentist</b>"
		assert.Equal(t, expected, message)
	})

	t.Run("should use singular for the first anniversary", func(t *testing.T) {
		message := FormatMessage([]reminder.Notice{{
			Name:        "Wedding",
			EventDate:   occurrence.Date{Year: 2023, Month: time.June, Day: 10},
			IsRecurring: true,
			YearCount:   1,
		}})

		assert.Contains(t, message, "since 2023 (1 year)")
	})

	t.Run("should skip the year line when no anniversary is reached", func(t *testing.T) {
		message := FormatMessage([]reminder.Notice{{
			Name:        "Kid",
			EventDate:   occurrence.Date{Year: 2024, Month: time.June, Day: 10},
			IsRecurring: true,
			YearCount:   0,
		}})

		assert.NotContains(t, message, "since")
	})

	t.Run("should escape user provided text", func(t *testing.T) {
		message := FormatMessage([]reminder.Notice{{
			Name:       "<script>",
			EventLabel: "A & B",
			Notes:      "1 < 2",
		}})

		assert.Contains(t, message, "<b>&lt;script&gt;</b>'s A &amp; B")
		assert.Contains(t, message, "📝 1 &lt; 2")
		assert.NotContains(t, message, "<script>")
	})
}
