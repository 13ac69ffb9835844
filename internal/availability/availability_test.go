package availability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petalz/internal/calendar"
	"petalz/internal/config"
)

var fixedNow = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func d(s string) calendar.Date { return calendar.MustParseDate(s) }

func TestHorizonSource_Fetch(t *testing.T) {
	deny := StaticDenylist{
		All:    []calendar.Date{d("2024-01-15"), d("2023-12-31"), d("2024-06-01")},
		ByRoom: map[string][]calendar.Date{"suite": {d("2024-01-20")}},
	}
	src := &HorizonSource{Days: 60, Denylist: deny, Now: clock}

	set, err := src.Fetch(context.Background(), "studio")
	require.NoError(t, err)
	assert.Equal(t, 59, set.Len())
	assert.True(t, set.Contains(d("2024-01-10")), "today is bookable")
	assert.True(t, set.Contains(d("2024-03-09")), "last horizon day")
	assert.False(t, set.Contains(d("2024-03-10")), "beyond horizon")
	assert.False(t, set.Contains(d("2024-01-15")))
	assert.True(t, set.Contains(d("2024-01-20")), "other room's block does not apply")

	set, err = src.Fetch(context.Background(), "suite")
	require.NoError(t, err)
	assert.Equal(t, 58, set.Len())
	assert.False(t, set.Contains(d("2024-01-20")))
}

func TestHorizonSource_DefaultsAndLocation(t *testing.T) {
	// 23:30 UTC is already the next day one hour east.
	late := time.Date(2024, time.January, 10, 23, 30, 0, 0, time.UTC)
	src := &HorizonSource{Location: time.FixedZone("WAT", 3600), Now: func() time.Time { return late }}

	set, err := src.Fetch(context.Background(), "studio")
	require.NoError(t, err)
	assert.Equal(t, DefaultHorizonDays, set.Len())
	assert.Equal(t, d("2024-01-11"), set.Dates()[0])
}

func TestHorizonSource_LatencyHonoursCancellation(t *testing.T) {
	src := &HorizonSource{Now: clock, Latency: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := src.Fetch(ctx, "studio")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHorizonSource_DenylistError(t *testing.T) {
	boom := errors.New("db down")
	src := &HorizonSource{Now: clock, Denylist: DenylistFunc(func(context.Context, string, calendar.Date, calendar.Date) ([]calendar.Date, error) {
		return nil, boom
	})}

	_, err := src.Fetch(context.Background(), "studio")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "load blocked dates")
}

func TestDenylistFromConfig(t *testing.T) {
	cfg := &config.RoomsConfig{
		Rooms: []config.RoomConfig{
			{ID: "studio", BlockedDates: []string{"2024-02-01"}},
		},
		BlockedDates: []config.BlockedDateConfig{{Date: "2024-01-15", Reason: "maintenance"}},
	}
	deny, err := DenylistFromConfig(cfg)
	require.NoError(t, err)

	got, err := deny.BlockedDates(context.Background(), "studio", d("2024-01-01"), d("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, []calendar.Date{d("2024-01-15")}, got)

	got, err = deny.BlockedDates(context.Background(), "studio", d("2024-01-01"), d("2024-02-29"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []calendar.Date{d("2024-01-15"), d("2024-02-01")}, got)

	cfg.BlockedDates[0].Date = "15/01/2024"
	_, err = DenylistFromConfig(cfg)
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

func TestCatalogDenylist_FollowsReload(t *testing.T) {
	catalog := config.NewCatalog(&config.RoomsConfig{
		BlockedDates: []config.BlockedDateConfig{{Date: "2024-01-15"}},
	})
	deny := CatalogDenylist{Catalog: catalog}
	from, to := d("2024-01-01"), d("2024-01-31")

	got, err := deny.BlockedDates(context.Background(), "studio", from, to)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	catalog.Set(&config.RoomsConfig{})
	got, err = deny.BlockedDates(context.Background(), "studio", from, to)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemoteSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/availability/studio", r.URL.Path)
		assert.Equal(t, "2024-01-10", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-01-16", r.URL.Query().Get("to"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"room":"studio","dates":["2024-01-09","2024-01-10","2024-01-12","2024-02-01"]}`))
	}))
	defer srv.Close()

	src := NewRemoteSource(srv.URL, "k", 7, time.UTC)
	src.now = clock

	set, err := src.Fetch(context.Background(), "studio")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10", "2024-01-12"}, set.Strings())
}

func TestRemoteSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusBadGateway, `{}`, "inventory http 502"},
		{"bad date", http.StatusOK, `{"dates":["tomorrow"]}`, "inventory response"},
		{"bad json", http.StatusOK, `{"dates":`, "unexpected EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src := NewRemoteSource(srv.URL, "", 0, nil)
			src.now = clock
			_, err := src.Fetch(context.Background(), "studio")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRemoteSource_HealthCheck(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	src := NewRemoteSource(srv.URL, "", 0, nil)
	assert.NoError(t, src.HealthCheck(context.Background()))
	healthy.Store(false)
	assert.ErrorContains(t, src.HealthCheck(context.Background()), "503")
}

func newCache(t *testing.T, next calendar.Source, ttl time.Duration) (*CachedSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zerolog.New(io.Discard)
	c := NewCachedSource(next, rdb, ttl, time.UTC, &logger)
	c.now = clock
	return c, mr
}

func countingSource(calls *int32, dates ...string) calendar.Source {
	return calendar.SourceFunc(func(context.Context, string) (calendar.Set, error) {
		atomic.AddInt32(calls, 1)
		return calendar.ParseSet(dates)
	})
}

func TestCachedSource_ReadThrough(t *testing.T) {
	var calls int32
	c, mr := newCache(t, countingSource(&calls, "2024-01-10", "2024-01-11"), time.Minute)
	ctx := context.Background()

	first, err := c.Fetch(ctx, "studio")
	require.NoError(t, err)
	second, err := c.Fetch(ctx, "studio")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first.Strings(), second.Strings())
	assert.True(t, mr.Exists("availability:studio:2024-01-10"))

	mr.FastForward(2 * time.Minute)
	_, err = c.Fetch(ctx, "studio")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "expired entry is refetched")
}

func TestCachedSource_Invalidate(t *testing.T) {
	var calls int32
	c, mr := newCache(t, countingSource(&calls, "2024-01-10"), time.Minute)
	ctx := context.Background()

	_, err := c.Fetch(ctx, "studio")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "studio"))
	assert.False(t, mr.Exists("availability:studio:2024-01-10"))

	_, err = c.Fetch(ctx, "studio")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedSource_CorruptEntryFallsThrough(t *testing.T) {
	var calls int32
	c, mr := newCache(t, countingSource(&calls, "2024-01-10"), time.Minute)
	require.NoError(t, mr.Set("availability:studio:2024-01-10", `{"dates":["soon"]}`))

	set, err := c.Fetch(context.Background(), "studio")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10"}, set.Strings())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("upstream down")
	c, mr := newCache(t, calendar.SourceFunc(func(context.Context, string) (calendar.Set, error) {
		return calendar.Set{}, boom
	}), time.Minute)

	_, err := c.Fetch(context.Background(), "studio")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mr.Keys())
}

func TestCachedSource_Disabled(t *testing.T) {
	var calls int32
	logger := zerolog.New(io.Discard)
	c := NewCachedSource(countingSource(&calls, "2024-01-10"), nil, time.Minute, nil, &logger)

	for i := 0; i < 3; i++ {
		_, err := c.Fetch(context.Background(), "studio")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.NoError(t, c.Invalidate(context.Background(), "studio"))
}

func TestCachedSource_ReadFailuresAreLoggedMissesAreNot(t *testing.T) {
	var calls int32
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c := NewCachedSource(countingSource(&calls, "2024-01-10"), rdb, time.Minute, time.UTC, &logger)
	c.now = clock
	ctx := context.Background()

	_, err := c.Fetch(ctx, "studio")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "availability cache read failed")

	mr.SetError("LOADING server is loading")
	set, err := c.Fetch(ctx, "suite")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10"}, set.Strings())
	assert.Contains(t, buf.String(), "availability cache read failed")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
