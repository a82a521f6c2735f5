package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Listen)
	assert.Equal(t, "0 9 * * *", cfg.Reminder.Schedule)
	assert.Equal(t, "Asia/Singapore", cfg.Reminder.Timezone)
	assert.Equal(t, 150*time.Millisecond, cfg.Reminder.OwnerDelay)
	assert.Equal(t, 10*time.Second, cfg.Reminder.SendTimeout)
	assert.True(t, cfg.Reminder.Enabled)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Empty(t, cfg.Telegram.Token)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.yaml")
	content := `
reminder:
  schedule: "30 8 * * *"
  timezone: "Europe/Warsaw"
  ownerdelay: 1s
telegram:
  token: from-file
db:
  host: db.internal
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("KEEPSAKE_TELEGRAM_TOKEN", "from-env")
	t.Setenv("KEEPSAKE_DB_PORT", "6543")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "30 8 * * *", cfg.Reminder.Schedule)
	assert.Equal(t, "Europe/Warsaw", cfg.Reminder.Timezone)
	assert.Equal(t, time.Second, cfg.Reminder.OwnerDelay)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestParseTimezone(t *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedOffset int
	}{
		{name: "Positive hour offset", input: "UTC+8", expectedOffset: 8 * 3600},
		{name: "Negative hour offset", input: "UTC-5", expectedOffset: -5 * 3600},
		{name: "Offset with minutes", input: "UTC+5:30", expectedOffset: 5*3600 + 30*60},
		{name: "Negative offset with minutes", input: "UTC-0:30", expectedOffset: -30 * 60},
		{name: "Plain UTC", input: "UTC", expectedOffset: 0},
	}

	reference := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := ParseTimezone(tc.input)

			require.NoError(t, err)
			_, offset := reference.In(loc).Zone()
			assert.Equal(t, tc.expectedOffset, offset)
		})
	}

	t.Run("IANA name", func(t *testing.T) {
		loc, err := ParseTimezone("Asia/Singapore")

		require.NoError(t, err)
		_, offset := reference.In(loc).Zone()
		assert.Equal(t, 8*3600, offset)
	})

	t.Run("Invalid name", func(t *testing.T) {
		_, err := ParseTimezone("Mars/Olympus")
		assert.Error(t, err)

		_, err = ParseTimezone("UTC+abc")
		assert.Error(t, err)
	})
}
