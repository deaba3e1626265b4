package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.False(t, cfg.DatabaseEnabled())
	assert.Equal(t, "Debug", cfg.Grid.LogSheet)
	assert.Equal(t, 5*time.Second, cfg.Watch.Interval)

	layout := cfg.Grid.Layout()
	assert.Equal(t, validation.Layout{
		DayRow:         3,
		DateRow:        4,
		FirstDayColumn: 2,
		DayCount:       7,
		NameColumn:     1,
		SummaryCell:    "B15",
		Discovery: validation.Discovery{
			Mode:     validation.DiscoveryScan,
			StartRow: 6,
			Count:    7,
		},
	}, layout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GRID_DISCOVERY", "Fixed")
	t.Setenv("GRID_EMPLOYEE_ROWS", "6, 8,10")
	t.Setenv("GRID_LOG_SCHEMA", "basic")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.DatabaseEnabled())
	assert.Equal(t, "postgres://postgres:secret@db:5432/schedule_checker?sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, slog.LevelDebug, cfg.App.SlogLevel())

	layout := cfg.Grid.Layout()
	assert.Equal(t, validation.DiscoveryFixed, layout.Discovery.Mode)
	assert.Equal(t, []int{6, 8, 10}, layout.Discovery.Rows)
	assert.Equal(t, "basic", cfg.Grid.LogSchema)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"APP_PORT":        "abc",
		"GRID_DAY_ROW":    "three",
		"WATCH_INTERVAL":  "soon",
		"GRID_LOG_SCHEMA": "verbose",
		"GRID_LOG_SHEET":  "bad/name",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DatabaseHostWithoutPassword(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}
