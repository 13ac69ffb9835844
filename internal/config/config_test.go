package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRooms = `
rooms:
  - id: studio
    name: Studio Executive
    nightly_rate: "35000"
    max_guests: 2
    blocked_dates: ["2024-02-01"]
    is_active: true
  - id: suite
    name: Self Contained Suite
    nightly_rate: "45000.50"
    is_active: false
blocked_dates:
  - date: "2024-01-15"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoomsConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rooms.yaml", testRooms)

	cfg, err := LoadRoomsConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "NGN", cfg.Currency)
	require.Len(t, cfg.Rooms, 2)
	assert.Equal(t, "35000", cfg.Rooms[0].Rate().String())
	assert.Equal(t, "45000.5", cfg.Rooms[1].Rate().String())
	assert.Equal(t, 1, cfg.Rooms[0].MinGuests)
	assert.Equal(t, 1, cfg.Rooms[1].MaxGuests)

	room, err := cfg.Room("studio")
	require.NoError(t, err)
	assert.Equal(t, "Studio Executive", room.Name)

	_, err = cfg.Room("suite")
	assert.ErrorIs(t, err, ErrUnknownRoom, "inactive rooms are not bookable")
	_, err = cfg.Room("penthouse")
	assert.ErrorIs(t, err, ErrUnknownRoom)

	assert.Len(t, cfg.ActiveRooms(), 1)
	assert.Equal(t, "RoomsConfig: 2 rooms (1 active), 1 blocked dates", cfg.String())
}

func TestRoomsConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RoomsConfig
		wantErr string
	}{
		{"empty", RoomsConfig{}, "no rooms defined"},
		{"missing id", RoomsConfig{Rooms: []RoomConfig{{Name: "x", NightlyRate: "1"}}}, "id is required"},
		{"duplicate id", RoomsConfig{Rooms: []RoomConfig{
			{ID: "a", Name: "A", NightlyRate: "1"},
			{ID: "a", Name: "B", NightlyRate: "1"},
		}}, "duplicate id"},
		{"missing name", RoomsConfig{Rooms: []RoomConfig{{ID: "a", NightlyRate: "1"}}}, "name is required"},
		{"bad rate", RoomsConfig{Rooms: []RoomConfig{{ID: "a", Name: "A", NightlyRate: "cheap"}}}, "invalid nightly_rate"},
		{"zero rate", RoomsConfig{Rooms: []RoomConfig{{ID: "a", Name: "A", NightlyRate: "0"}}}, "must be positive"},
		{"guests", RoomsConfig{Rooms: []RoomConfig{{ID: "a", Name: "A", NightlyRate: "1", MinGuests: 3, MaxGuests: 2}}}, "min_guests exceeds"},
		{"room blocked date", RoomsConfig{Rooms: []RoomConfig{{ID: "a", Name: "A", NightlyRate: "1", BlockedDates: []string{"01/02/2024"}}}}, "invalid date format"},
		{"global blocked date", RoomsConfig{
			Rooms:        []RoomConfig{{ID: "a", Name: "A", NightlyRate: "1"}},
			BlockedDates: []BlockedDateConfig{{Date: ""}},
		}, "date is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ExpandsEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_ADMIN_KEY", "secret")
	path := writeFile(t, dir, "config.yaml", `
server:
  admin_api_key: ${TEST_ADMIN_KEY}
calendar:
  timezone: UTC
database:
  path: `+filepath.Join(dir, "db", "petalz.db")+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Server.AdminAPIKey)
	assert.Equal(t, SourceStatic, cfg.Availability.Source)
	assert.Equal(t, "configs/rooms.yaml", cfg.RoomsPath)
	assert.Equal(t, 8080, cfg.ServerPort())
	assert.Equal(t, 60, cfg.HorizonDays())
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, "@every 5m", cfg.CleanupSchedule())
	assert.Zero(t, cfg.CacheTTL())
	assert.Zero(t, cfg.SimulatedLatency())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestLoad_RejectsBadSource(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "petalz.db")

	path := writeFile(t, dir, "bad.yaml", "availability:\n  source: carrier-pigeon\ndatabase:\n  path: "+db+"\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown availability.source")

	path = writeFile(t, dir, "remote.yaml", "availability:\n  source: remote\ndatabase:\n  path: "+db+"\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "remote_url is required")

	path = writeFile(t, dir, "tz.yaml", "calendar:\n  timezone: Mars/Olympus\ndatabase:\n  path: "+db+"\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "calendar.timezone")
}

func TestWatchRooms_ReloadsValidChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rooms.yaml", testRooms)
	initial, err := LoadRoomsConfig(path)
	require.NoError(t, err)

	catalog := NewCatalog(initial)
	logger := zerolog.New(io.Discard)
	updates := make(chan *RoomsConfig, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, WatchRooms(ctx, path, 10*time.Millisecond, catalog, &logger, func(c *RoomsConfig) { updates <- c }))

	// Broken file: ignored, old catalog stays.
	writeFile(t, dir, "rooms.yaml", "rooms: []\n")
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	time.Sleep(50 * time.Millisecond)
	assert.Same(t, initial, catalog.Get())

	writeFile(t, dir, "rooms.yaml", `
rooms:
  - id: apartment
    name: One Bedroom Apartment
    nightly_rate: "60000"
    is_active: true
`)
	future = future.Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case got := <-updates:
		assert.Equal(t, "apartment", got.Rooms[0].ID)
		assert.Same(t, got, catalog.Get())
	case <-time.After(2 * time.Second):
		t.Fatal("rooms config was not reloaded")
	}
}
