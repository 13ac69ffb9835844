package api

import (
	"context"
	"errors"
	"net/http"

	"petalz/internal/config"
	"petalz/internal/database"
)

// BlockedDateRequest is the body of POST /api/admin/blocked-dates. An empty
// room blocks the date for every room.
type BlockedDateRequest struct {
	Room   string `json:"room"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// handleListBlockedDates lists the denylist.
// GET /api/admin/blocked-dates
func (s *Server) handleListBlockedDates(w http.ResponseWriter, r *http.Request) {
	if !s.requireBlockedStore(w) {
		return
	}
	list, err := s.blocked.ListBlockedDates(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list blocked dates failed")
		writeError(w, http.StatusInternalServerError, "internal", "failed to list blocked dates")
		return
	}
	if list == nil {
		list = []database.BlockedDate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocked_dates": list})
}

// handleAddBlockedDate blocks a date.
// POST /api/admin/blocked-dates
func (s *Server) handleAddBlockedDate(w http.ResponseWriter, r *http.Request) {
	if !s.requireBlockedStore(w) {
		return
	}
	var req BlockedDateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	d, ok := parseDate(w, "date", req.Date)
	if !ok {
		return
	}

	b, err := s.blocked.AddBlockedDate(r.Context(), req.Room, d, req.Reason)
	switch {
	case errors.Is(err, config.ErrUnknownRoom):
		writeError(w, http.StatusNotFound, "unknown_room", err.Error())
		return
	case errors.Is(err, database.ErrAlreadyBlocked):
		writeError(w, http.StatusConflict, "already_blocked", err.Error())
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("add blocked date failed")
		writeError(w, http.StatusInternalServerError, "internal", "failed to block date")
		return
	}

	s.invalidate(r.Context(), req.Room)
	s.logger.Info().Str("room", req.Room).Str("date", d.String()).Str("reason", req.Reason).Msg("date blocked")
	writeJSON(w, http.StatusCreated, b)
}

// handleRemoveBlockedDate unblocks a date given by ?room=&date=.
// DELETE /api/admin/blocked-dates
func (s *Server) handleRemoveBlockedDate(w http.ResponseWriter, r *http.Request) {
	if !s.requireBlockedStore(w) {
		return
	}
	room := r.URL.Query().Get("room")
	d, ok := parseDate(w, "date", r.URL.Query().Get("date"))
	if !ok {
		return
	}

	err := s.blocked.RemoveBlockedDate(r.Context(), room, d)
	switch {
	case errors.Is(err, database.ErrNotBlocked):
		writeError(w, http.StatusNotFound, "not_blocked", err.Error())
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("remove blocked date failed")
		writeError(w, http.StatusInternalServerError, "internal", "failed to unblock date")
		return
	}

	s.invalidate(r.Context(), room)
	s.logger.Info().Str("room", room).Str("date", d.String()).Msg("date unblocked")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireBlockedStore(w http.ResponseWriter) bool {
	if s.blocked == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "blocked dates are managed in rooms.yaml for this source")
		return false
	}
	return true
}

// invalidate drops cached availability for room, or for every room when
// room is empty.
func (s *Server) invalidate(ctx context.Context, room string) {
	if s.cache == nil {
		return
	}
	rooms := []string{room}
	if room == "" {
		rooms = rooms[:0]
		for _, rc := range s.catalog.Get().Rooms {
			rooms = append(rooms, rc.ID)
		}
	}
	for _, id := range rooms {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("room", id).Msg("availability cache invalidation failed")
		}
	}
}
