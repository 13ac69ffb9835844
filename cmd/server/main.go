package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"petalz/internal/api"
	"petalz/internal/availability"
	"petalz/internal/calendar"
	"petalz/internal/config"
	"petalz/internal/database"
	"petalz/internal/events"
	"petalz/internal/jobs"
	"petalz/internal/metrics"
	"petalz/internal/notify"
	"petalz/internal/session"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("PETALZ_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	rooms, err := config.LoadRoomsConfig(cfg.RoomsPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.RoomsPath).Msg("failed to load rooms config")
	}
	catalog := config.NewCatalog(rooms)
	logger.Info().Str("catalog", rooms.String()).Msg("rooms loaded")

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.SyncRoomsFromConfig(ctx, rooms); err != nil {
		logger.Fatal().Err(err).Msg("sync rooms error")
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	source, blocked, remote := buildSource(cfg, catalog, db, loc)
	var cache *availability.CachedSource
	if rdb != nil && cfg.CacheTTL() > 0 {
		cache = availability.NewCachedSource(source, rdb, cfg.CacheTTL(), loc, &logger)
		source = cache
	}
	logger.Info().Str("source", cfg.Availability.Source).Bool("cache", cache != nil).Msg("availability source ready")

	onReload := func(next *config.RoomsConfig) {
		if err := db.SyncRoomsFromConfig(ctx, next); err != nil {
			logger.Error().Err(err).Msg("sync rooms after reload failed")
		}
		if cache == nil {
			return
		}
		for _, room := range next.Rooms {
			if err := cache.Invalidate(ctx, room.ID); err != nil {
				logger.Warn().Err(err).Str("room", room.ID).Msg("availability cache invalidation failed")
			}
		}
	}
	if err := config.WatchRooms(ctx, cfg.RoomsPath, 0, catalog, &logger, onReload); err != nil {
		logger.Error().Err(err).Msg("rooms config watch disabled")
	}

	sessions := session.NewStore(cfg.SessionTimeout())
	sessions.OnChange(metrics.SetActiveSessions)

	bus := events.NewEventBus()
	bus.SubscribeAll(events.Analytics(&logger))
	bus.OnError(func(e events.Event, err error) {
		logger.Error().Err(err).Str("event", e.Type).Int64("id", e.ID).Msg("event handler failed")
	})
	if cfg.Telegram.BotToken != "" && cfg.Telegram.StaffChatID != 0 {
		n, err := notify.NewBot(cfg.Telegram.BotToken, cfg.Telegram.StaffChatID, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier disabled")
		} else {
			n.Subscribe(bus)
		}
	}

	deps := api.Dependencies{
		Catalog:  catalog,
		Source:   source,
		Sessions: sessions,
		Bus:      bus,
		Logger:   &logger,
	}
	if blocked != nil {
		deps.Blocked = blocked
	}
	if cache != nil {
		deps.Cache = cache
	}
	srv := api.NewServer(deps, api.Options{
		Location:           loc,
		HorizonDays:        cfg.HorizonDays(),
		FetchTimeout:       cfg.FetchTimeout(),
		WhatsAppPhone:      cfg.Handoff.WhatsAppPhone,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		AdminAPIKey:        cfg.Server.AdminAPIKey,
		RateLimitPerSecond: cfg.Server.RateLimitPerSecond,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
	})

	scheduler := jobs.New(loc, &logger)
	mustSchedule(&logger, scheduler.Add("session-cleanup", cfg.CleanupSchedule(), func(context.Context) {
		if n := sessions.Cleanup(); n > 0 {
			logger.Info().Int("removed", n).Msg("expired sessions removed")
		}
	}))
	mustSchedule(&logger, scheduler.Add("rate-limit-prune", "@every 10m", func(context.Context) {
		srv.PruneRateLimits(10 * time.Minute)
	}))
	backups := database.NewBackupService(db, cfg.Backup, &logger)
	if backups.Enabled() {
		mustSchedule(&logger, scheduler.Add("backup", backups.Schedule(), backups.Run))
	}
	go scheduler.Run(ctx)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, remote, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort()),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.ServerPort()).Msg("Petalz booking API started")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("api server error")
	}
	logger.Info().Msg("Petalz booking API stopped")
}

// buildSource picks the availability source named in config. blocked is
// non-nil only when the database owns the denylist; remote only for the
// inventory service.
func buildSource(cfg *config.Config, catalog *config.Catalog, db *database.DB, loc *time.Location) (calendar.Source, api.BlockedDateStore, *availability.RemoteSource) {
	switch cfg.Availability.Source {
	case config.SourceRemote:
		remote := availability.NewRemoteSource(cfg.Availability.RemoteURL, cfg.Availability.RemoteAPIKey, cfg.HorizonDays(), loc)
		return remote, nil, remote
	case config.SourceDatabase:
		src := availability.NewHorizonSource(cfg.HorizonDays(), db)
		src.Location = loc
		src.Latency = cfg.SimulatedLatency()
		return src, db, nil
	default:
		src := availability.NewHorizonSource(cfg.HorizonDays(), availability.CatalogDenylist{Catalog: catalog})
		src.Location = loc
		src.Latency = cfg.SimulatedLatency()
		return src, nil, nil
	}
}

func mustSchedule(logger *zerolog.Logger, err error) {
	if err != nil {
		logger.Fatal().Err(err).Msg("schedule job error")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, remote *availability.RemoteSource, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.HealthCheck(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if remote != nil {
			if err := remote.HealthCheck(ctxPing); err != nil {
				http.Error(w, "inventory not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
