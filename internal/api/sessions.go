package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"petalz/internal/calendar"
	"petalz/internal/events"
	"petalz/internal/handoff"
	"petalz/internal/metrics"
	"petalz/internal/session"
)

// RoomRequest is the body of POST /api/sessions and PUT /api/sessions/{id}/room.
type RoomRequest struct {
	Room string `json:"room"`
}

// SelectRequest is the body of POST /api/sessions/{id}/select.
type SelectRequest struct {
	Date string `json:"date"`
}

// SessionResponse carries a session id and its rendered calendar.
type SessionResponse struct {
	ID   string        `json:"id"`
	View calendar.View `json:"view"`
}

// SelectResponse reports the effect of a click. Ignored clicks have
// Changed false and leave the view untouched.
type SelectResponse struct {
	Changed   bool            `json:"changed"`
	Completed bool            `json:"completed"`
	Range     *calendar.Range `json:"range,omitempty"`
	View      calendar.View   `json:"view"`
}

// QuoteResponse is a priced stay.
type QuoteResponse struct {
	Nights       int    `json:"nights"`
	NightlyRate  string `json:"nightly_rate"`
	Total        string `json:"total"`
	Currency     string `json:"currency"`
	TotalDisplay string `json:"total_display"`
}

// HandoffResponse is the booking message for the completed range.
type HandoffResponse struct {
	Room        string        `json:"room"`
	RoomName    string        `json:"room_name"`
	CheckIn     calendar.Date `json:"check_in"`
	CheckOut    calendar.Date `json:"check_out"`
	Message     string        `json:"message"`
	WhatsAppURL string        `json:"whatsapp_url"`
	Quote       QuoteResponse `json:"quote"`
}

func (s *Server) newCalendar(id string) *calendar.Calendar {
	return calendar.New(s.source, calendar.Options{
		Location:     s.opts.Location,
		FetchTimeout: s.opts.FetchTimeout,
		Now:          s.opts.Now,
		OnRange: func(room string, r calendar.Range) {
			metrics.IncRangeSelected(room)
			s.publish(events.RangeSelected, events.BookingPayload{
				Session:  id,
				Room:     room,
				CheckIn:  r.CheckIn.String(),
				CheckOut: r.CheckOut.String(),
				Nights:   r.Nights(),
			})
		},
		OnFetch: func(res calendar.FetchResult) {
			metrics.ObserveFetch(res.Room, string(res.Outcome), res.Duration)
			switch res.Outcome {
			case calendar.FetchError:
				s.logger.Warn().Err(res.Err).Str("session", id).Str("room", res.Room).Msg("availability fetch failed")
			case calendar.FetchStale:
				s.logger.Debug().Str("session", id).Str("room", res.Room).Msg("stale availability discarded")
			}
		},
	})
}

// wait blocks until done closes when the request asks for it with
// ?wait=true, bounded by the request context.
func wait(r *http.Request, done <-chan struct{}) {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !ok {
		return
	}
	select {
	case <-done:
	case <-r.Context().Done():
	}
}

// handleCreateSession starts a calendar for a room and its first fetch.
// POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	room, ok := s.lookupRoom(w, req.Room)
	if !ok {
		return
	}

	sess := s.sessions.Create(s.newCalendar)
	wait(r, sess.Calendar.SetRoom(r.Context(), room.ID))

	s.logger.Info().Str("session", sess.ID).Str("room", room.ID).Msg("calendar session created")
	writeJSON(w, http.StatusCreated, SessionResponse{ID: sess.ID, View: sess.Calendar.View()})
}

// handleGetSession renders the session calendar: loading, error or the grid.
// GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID, View: sess.Calendar.View()})
}

// handleDeleteSession drops a session.
// DELETE /api/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetRoom switches room category, refetching and clearing the selection.
// PUT /api/sessions/{id}/room
func (s *Server) handleSetRoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req RoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	room, ok := s.lookupRoom(w, req.Room)
	if !ok {
		return
	}

	wait(r, sess.Calendar.SetRoom(r.Context(), room.ID))
	writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID, View: sess.Calendar.View()})
}

// handleRetry refetches after a failed load.
// POST /api/sessions/{id}/retry
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	wait(r, sess.Calendar.Retry(r.Context()))
	writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID, View: sess.Calendar.View()})
}

// handleSelect feeds one date click into the selection.
// POST /api/sessions/{id}/select
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	d, ok := parseDate(w, "date", req.Date)
	if !ok {
		return
	}

	changed, rng, completed := sess.Calendar.Select(d)
	resp := SelectResponse{Changed: changed, Completed: completed}
	if changed {
		s.publish(events.BookingStarted, events.BookingPayload{
			Session: sess.ID,
			Room:    sess.Calendar.Room(),
			Date:    d.String(),
		})
	}
	if completed {
		resp.Range = &rng
	}
	resp.View = sess.Calendar.View()
	writeJSON(w, http.StatusOK, resp)
}

// handleHandoff builds the WhatsApp booking message for the completed range.
// POST /api/sessions/{id}/handoff
func (s *Server) handleHandoff(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sel := sess.Calendar.Selection()
	if !sel.Complete() {
		writeError(w, http.StatusConflict, "incomplete_range", handoff.ErrIncompleteRange.Error())
		return
	}
	if avail, ready := sess.Calendar.Availability(); !ready || !sel.AvailableIn(avail) {
		writeError(w, http.StatusConflict, "dates_unavailable", "the selected dates are no longer available")
		return
	}
	room, ok := s.lookupRoom(w, sess.Calendar.Room())
	if !ok {
		return
	}

	quote, err := handoff.NewQuote(room.Rate(), sel.CheckIn, sel.CheckOut)
	if err != nil {
		writeError(w, http.StatusConflict, "incomplete_range", err.Error())
		return
	}
	msg := handoff.FormatHandoff(room.Name, sel.CheckIn, sel.CheckOut)
	resp := HandoffResponse{
		Room:        room.ID,
		RoomName:    room.Name,
		CheckIn:     sel.CheckIn,
		CheckOut:    sel.CheckOut,
		Message:     msg,
		WhatsAppURL: handoff.WhatsAppLink(s.opts.WhatsAppPhone, msg),
		Quote: QuoteResponse{
			Nights:       quote.Nights,
			NightlyRate:  quote.Rate.String(),
			Total:        quote.Total.String(),
			Currency:     quote.Currency,
			TotalDisplay: quote.FormatTotal(),
		},
	}

	metrics.IncHandoff(room.ID)
	s.publish(events.BookingCompleted, events.BookingPayload{
		Session:  sess.ID,
		Room:     room.ID,
		RoomName: room.Name,
		CheckIn:  sel.CheckIn.String(),
		CheckOut: sel.CheckOut.String(),
		Nights:   quote.Nights,
		Value:    quote.Total.String(),
		Currency: quote.Currency,
		Message:  msg,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "internal", "session lookup failed")
		}
		return nil, false
	}
	return sess, true
}
