package occurrence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("should parse a valid date", func(t *testing.T) {
		d, err := ParseDate("1992-02-29")

		require.NoError(t, err)
		assert.Equal(t, Date{Year: 1992, Month: time.February, Day: 29}, d)
	})

	t.Run("should reject non-existing dates", func(t *testing.T) {
		for _, s := range []string{"2023-02-29", "2024-04-31", "2024-13-01", "2024-00-10", "", "15/06/2020"} {
			_, err := ParseDate(s)
			assert.ErrorIs(t, err, ErrInvalidDate, s)
		}
	})
}

func TestNewDate(t *testing.T) {
	_, err := NewDate(2023, time.February, 29)
	assert.ErrorIs(t, err, ErrInvalidDate)

	d, err := NewDate(2024, time.February, 29)
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
}

func TestToday(t *testing.T) {
	singapore := time.FixedZone("UTC+8", 8*60*60)
	// 20:30 UTC on Dec 31 is already Jan 1 in UTC+8
	now := time.Date(2023, time.December, 31, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, Date{Year: 2024, Month: time.January, Day: 1}, Today(now, singapore))
	assert.Equal(t, Date{Year: 2023, Month: time.December, Day: 31}, Today(now, time.UTC))
	assert.Equal(t, Date{Year: 2023, Month: time.December, Day: 31}, Today(now, nil))
}

func TestDate_OnYear(t *testing.T) {
	leapDay := Date{Year: 2020, Month: time.February, Day: 29}

	assert.Equal(t, Date{Year: 2021, Month: time.February, Day: 28}, leapDay.OnYear(2021))
	assert.Equal(t, Date{Year: 2100, Month: time.February, Day: 28}, leapDay.OnYear(2100))
	assert.Equal(t, Date{Year: 2000, Month: time.February, Day: 29}, leapDay.OnYear(2000))
	assert.Equal(t, Date{Year: 2031, Month: time.August, Day: 31}, Date{Year: 1999, Month: time.August, Day: 31}.OnYear(2031))
}

func TestDate_DaysUntil(t *testing.T) {
	from := Date{Year: 2024, Month: time.March, Day: 30}
	// spans the European DST switch; dates must not be affected by it
	to := Date{Year: 2024, Month: time.April, Day: 2}

	assert.Equal(t, 3, from.DaysUntil(to))
	assert.Equal(t, -3, to.DaysUntil(from))
	assert.Equal(t, 0, from.DaysUntil(from))
	assert.Equal(t, 366, Date{Year: 2024, Month: time.January, Day: 1}.DaysUntil(Date{Year: 2025, Month: time.January, Day: 1}))
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		EventDate Date `json:"eventDate"`
	}

	err := json.Unmarshal([]byte(`{"eventDate":"2000-02-29"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2000, Month: time.February, Day: 29}, payload.EventDate)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"eventDate":"2000-02-29"}`, string(encoded))

	err = json.Unmarshal([]byte(`{"eventDate":"2001-02-29"}`), &payload)
	assert.ErrorIs(t, err, ErrInvalidDate)

	err = json.Unmarshal([]byte(`{"eventDate":20010228}`), &payload)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
