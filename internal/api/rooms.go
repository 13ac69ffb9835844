package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"petalz/internal/calendar"
	"petalz/internal/config"
	"petalz/internal/export"
	"petalz/internal/handoff"
)

// RoomResponse is a catalog entry.
type RoomResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	NightlyRate  string   `json:"nightly_rate"`
	PriceDisplay string   `json:"price_display"`
	MinGuests    int      `json:"min_guests"`
	MaxGuests    int      `json:"max_guests"`
	Features     []string `json:"features,omitempty"`
}

// RoomsResponse is the response for GET /api/rooms.
type RoomsResponse struct {
	Currency string         `json:"currency"`
	Rooms    []RoomResponse `json:"rooms"`
}

// AvailabilityResponse is the response for GET /api/rooms/{room}/availability.
type AvailabilityResponse struct {
	Room  string   `json:"room"`
	From  string   `json:"from"`
	To    string   `json:"to"`
	Dates []string `json:"dates"`
}

// ContactResponse lists the quick WhatsApp openers.
type ContactResponse struct {
	Phone         string         `json:"phone"`
	SupportURL    string         `json:"support_url"`
	QuickMessages []QuickMessage `json:"quick_messages"`
}

type QuickMessage struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func toRoomResponse(r config.RoomConfig) RoomResponse {
	return RoomResponse{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		NightlyRate:  r.Rate().String(),
		PriceDisplay: handoff.FormatNaira(r.Rate()),
		MinGuests:    r.MinGuests,
		MaxGuests:    r.MaxGuests,
		Features:     r.Features,
	}
}

// handleListRooms returns the active room catalog.
// GET /api/rooms
func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	cfg := s.catalog.Get()
	resp := RoomsResponse{Currency: cfg.Currency, Rooms: make([]RoomResponse, 0, len(cfg.Rooms))}
	for _, room := range cfg.ActiveRooms() {
		resp.Rooms = append(resp.Rooms, toRoomResponse(room))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRoomAvailability returns the bookable dates of the horizon.
// GET /api/rooms/{room}/availability
func (s *Server) handleRoomAvailability(w http.ResponseWriter, r *http.Request) {
	room, ok := s.lookupRoom(w, chi.URLParam(r, "room"))
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.FetchTimeout)
	defer cancel()
	set, err := s.source.Fetch(ctx, room.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("room", room.ID).Msg("availability fetch failed")
		writeError(w, http.StatusBadGateway, "availability_unavailable", "availability could not be loaded; try again")
		return
	}

	from := s.today()
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		Room:  room.ID,
		From:  from.String(),
		To:    from.AddDays(s.opts.HorizonDays - 1).String(),
		Dates: set.Strings(),
	})
}

// handleContact returns the WhatsApp quick messages.
// GET /api/contact
func (s *Server) handleContact(w http.ResponseWriter, _ *http.Request) {
	resp := ContactResponse{
		Phone:      s.opts.WhatsAppPhone,
		SupportURL: handoff.WhatsAppLink(s.opts.WhatsAppPhone, handoff.SupportMessage),
	}
	for _, m := range handoff.QuickMessages {
		resp.QuickMessages = append(resp.QuickMessages, QuickMessage{Text: m, URL: handoff.WhatsAppLink(s.opts.WhatsAppPhone, m)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport streams an xlsx workbook of every active room's horizon.
// GET /api/availability/export.xlsx
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*s.opts.FetchTimeout)
	defer cancel()

	rooms, err := export.Collect(ctx, s.source, s.catalog.Get().ActiveRooms())
	if err != nil {
		s.logger.Error().Err(err).Msg("export fetch failed")
		writeError(w, http.StatusBadGateway, "availability_unavailable", "availability could not be loaded; try again")
		return
	}

	wb := export.NewWorkbook()
	defer wb.Close()
	today := s.today()
	if err := wb.AddAvailability(rooms, today, s.opts.HorizonDays); err != nil {
		s.logger.Error().Err(err).Msg("export build failed")
		writeError(w, http.StatusInternalServerError, "internal", "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="petalz-availability-%s.xlsx"`, today))
	if err := wb.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("export write failed")
	}
}

// lookupRoom resolves an active room or writes a 404.
func (s *Server) lookupRoom(w http.ResponseWriter, id string) (*config.RoomConfig, bool) {
	room, err := s.catalog.Get().Room(id)
	if err != nil {
		if errors.Is(err, config.ErrUnknownRoom) {
			writeError(w, http.StatusNotFound, "unknown_room", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "internal", "room lookup failed")
		}
		return nil, false
	}
	return room, true
}

// parseDate parses an ISO date or writes a 400.
func parseDate(w http.ResponseWriter, field, value string) (calendar.Date, bool) {
	d, err := calendar.ParseDate(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", fmt.Sprintf("%s: %v", field, err))
		return calendar.Date{}, false
	}
	return d, true
}
