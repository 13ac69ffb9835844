// Package api exposes the booking calendar over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"petalz/internal/availability"
	"petalz/internal/calendar"
	"petalz/internal/config"
	"petalz/internal/database"
	"petalz/internal/events"
	"petalz/internal/handoff"
	"petalz/internal/session"
)

// BlockedDateStore manages the admin denylist.
type BlockedDateStore interface {
	ListBlockedDates(ctx context.Context) ([]database.BlockedDate, error)
	AddBlockedDate(ctx context.Context, room string, date calendar.Date, reason string) (*database.BlockedDate, error)
	RemoveBlockedDate(ctx context.Context, room string, date calendar.Date) error
}

// CacheInvalidator drops cached availability for a room.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, room string) error
}

// Options tunes the server.
type Options struct {
	Location      *time.Location
	HorizonDays   int
	FetchTimeout  time.Duration
	WhatsAppPhone string

	AllowedOrigins []string
	AdminAPIKey    string
	// RateLimitPerSecond of zero disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int

	Now func() time.Time
}

// Dependencies are the collaborators of the server. Blocked and Cache are
// optional.
type Dependencies struct {
	Catalog  *config.Catalog
	Source   calendar.Source
	Sessions *session.Store
	Bus      *events.EventBus
	Blocked  BlockedDateStore
	Cache    CacheInvalidator
	Logger   *zerolog.Logger
}

type Server struct {
	catalog  *config.Catalog
	source   calendar.Source
	sessions *session.Store
	bus      *events.EventBus
	blocked  BlockedDateStore
	cache    CacheInvalidator
	logger   *zerolog.Logger
	opts     Options
	limiter  *clientLimiter
}

func NewServer(deps Dependencies, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = availability.DefaultHorizonDays
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = calendar.DefaultFetchTimeout
	}
	if opts.WhatsAppPhone == "" {
		opts.WhatsAppPhone = handoff.DefaultPhone
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Bus == nil {
		deps.Bus = events.NewEventBus()
	}
	s := &Server{
		catalog:  deps.Catalog,
		source:   deps.Source,
		sessions: deps.Sessions,
		bus:      deps.Bus,
		blocked:  deps.Blocked,
		cache:    deps.Cache,
		logger:   deps.Logger,
		opts:     opts,
	}
	if opts.RateLimitPerSecond > 0 {
		s.limiter = newClientLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst)
		s.limiter.now = opts.Now
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(CORSMiddleware(CORSOptions{AllowedOrigins: s.opts.AllowedOrigins}))
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}

		r.Get("/rooms", s.handleListRooms)
		r.Get("/rooms/{room}/availability", s.handleRoomAvailability)
		r.Get("/contact", s.handleContact)
		r.Post("/inquiries", s.handleInquiry)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/room", s.handleSetRoom)
				r.Post("/retry", s.handleRetry)
				r.Post("/select", s.handleSelect)
				r.Post("/handoff", s.handleHandoff)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(adminAuth(s.opts.AdminAPIKey))
			r.Get("/availability/export.xlsx", s.handleExport)
			r.Get("/admin/blocked-dates", s.handleListBlockedDates)
			r.Post("/admin/blocked-dates", s.handleAddBlockedDate)
			r.Delete("/admin/blocked-dates", s.handleRemoveBlockedDate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// PruneRateLimits forgets rate-limit state of clients idle for longer than
// idle. It is a maintenance job.
func (s *Server) PruneRateLimits(idle time.Duration) int {
	if s.limiter == nil {
		return 0
	}
	return s.limiter.prune(idle)
}

func (s *Server) today() calendar.Date {
	return calendar.Today(s.opts.Now(), s.opts.Location)
}

func (s *Server) publish(eventType string, payload events.BookingPayload) {
	e, err := events.NewEvent(eventType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to encode event")
		return
	}
	s.bus.Publish(e)
}
