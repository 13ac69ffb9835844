package database

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

	"petalz/internal/calendar"
	"petalz/internal/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "petalz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testRooms(t *testing.T) *config.RoomsConfig {
	t.Helper()
	cfg := &config.RoomsConfig{
		Rooms: []config.RoomConfig{
			{ID: "studio", Name: "Studio Executive", NightlyRate: "35000", MinGuests: 1, MaxGuests: 2, IsActive: true, BlockedDates: []string{"2024-01-20"}},
			{ID: "suite", Name: "Self Contained Suite", NightlyRate: "45000", MinGuests: 2, MaxGuests: 3, IsActive: true},
		},
		BlockedDates: []config.BlockedDateConfig{{Date: "2024-01-15", Reason: "maintenance"}},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func d(s string) calendar.Date { return calendar.MustParseDate(s) }

func TestNewDB_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petalz.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestSyncRoomsFromConfig(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cfg := testRooms(t)

	require.NoError(t, db.SyncRoomsFromConfig(ctx, cfg))
	rooms, err := db.Rooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, StoredRoom{ID: "studio", Name: "Studio Executive", NightlyRate: "35000", MinGuests: 1, MaxGuests: 2, IsActive: true}, rooms[0])

	// Suite removed from the file: kept but deactivated.
	cfg.Rooms = cfg.Rooms[:1]
	cfg.Rooms[0].Name = "Studio"
	require.NoError(t, db.SyncRoomsFromConfig(ctx, cfg))
	rooms, err = db.Rooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Studio", rooms[0].Name)
	assert.False(t, rooms[1].IsActive)

	assert.Error(t, db.SyncRoomsFromConfig(ctx, nil))
}

func TestBlockedDates_GlobalAndRoomScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.SyncRoomsFromConfig(ctx, testRooms(t)))

	got, err := db.BlockedDates(ctx, "studio", d("2024-01-10"), d("2024-03-09"))
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{d("2024-01-15"), d("2024-01-20")}, got)

	got, err = db.BlockedDates(ctx, "suite", d("2024-01-10"), d("2024-03-09"))
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{d("2024-01-15")}, got)

	got, err = db.BlockedDates(ctx, "studio", d("2024-01-16"), d("2024-01-19"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddRemoveBlockedDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.SyncRoomsFromConfig(ctx, testRooms(t)))

	b, err := db.AddBlockedDate(ctx, "suite", d("2024-02-01"), "private event")
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, "admin", b.Source)

	_, err = db.AddBlockedDate(ctx, "suite", d("2024-02-01"), "again")
	assert.ErrorIs(t, err, ErrAlreadyBlocked)

	_, err = db.AddBlockedDate(ctx, "penthouse", d("2024-02-01"), "")
	assert.ErrorIs(t, err, config.ErrUnknownRoom)

	_, err = db.AddBlockedDate(ctx, "", d("2024-02-02"), "")
	require.NoError(t, err)

	got, err := db.BlockedDates(ctx, "suite", d("2024-02-01"), d("2024-02-28"))
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{d("2024-02-01"), d("2024-02-02")}, got)

	require.NoError(t, db.RemoveBlockedDate(ctx, "suite", d("2024-02-01")))
	assert.ErrorIs(t, db.RemoveBlockedDate(ctx, "suite", d("2024-02-01")), ErrNotBlocked)

	all, err := db.ListBlockedDates(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, d("2024-01-15"), all[0].Date)
	assert.Equal(t, "config", all[0].Source)
	assert.Equal(t, "", all[2].Room)
}

func TestSyncRoomsFromConfig_KeepsAdminBlocks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cfg := testRooms(t)
	require.NoError(t, db.SyncRoomsFromConfig(ctx, cfg))
	_, err := db.AddBlockedDate(ctx, "studio", d("2024-02-10"), "")
	require.NoError(t, err)

	cfg.BlockedDates = nil
	require.NoError(t, db.SyncRoomsFromConfig(ctx, cfg))

	got, err := db.BlockedDates(ctx, "studio", d("2024-01-01"), d("2024-12-31"))
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{d("2024-01-20"), d("2024-02-10")}, got)
}

func TestBackupService(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.SyncRoomsFromConfig(ctx, testRooms(t)))

	dir := filepath.Join(t.TempDir(), "backups")
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: dir, RetentionDays: 7}, &logger)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC) }
	assert.True(t, svc.Enabled())
	assert.Equal(t, "0 3 * * *", svc.Schedule())

	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "petalz_20240110_030000.db"), path)

	restored, err := NewDB(path)
	require.NoError(t, err)
	defer restored.Close()
	rooms, err := restored.Rooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	_, err = svc.PerformBackup(ctx)
	assert.ErrorContains(t, err, "already exists")

	old := filepath.Join(dir, "petalz_20231201_030000.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	stale := svc.now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, stale, stale))
	foreign := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(foreign, stale, stale))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, old)
	assert.FileExists(t, foreign)
	assert.FileExists(t, path)
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(nil, config.BackupConfig{}, &logger)
	assert.False(t, svc.Enabled())
	assert.Zero(t, svc.CleanupOldBackups())
}
