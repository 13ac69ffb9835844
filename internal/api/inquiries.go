package api

import (
	"errors"
	"fmt"
	"net/http"

	"petalz/internal/config"
	"petalz/internal/events"
	"petalz/internal/handoff"
	"petalz/internal/metrics"
)

// InquiryResponse is the WhatsApp message built from a contact form.
type InquiryResponse struct {
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsapp_url"`
}

// handleInquiry validates a contact form and turns it into a WhatsApp link.
// POST /api/inquiries
func (s *Server) handleInquiry(w http.ResponseWriter, r *http.Request) {
	var q handoff.Inquiry
	if err := decodeJSON(w, r, &q); err != nil {
		metrics.IncInquiry("rejected")
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	if err := q.Validate(s.today()); err != nil {
		metrics.IncInquiry("rejected")
		var verr *handoff.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	room, err := s.catalog.Get().Room(q.Room)
	if err != nil {
		metrics.IncInquiry("rejected")
		if errors.Is(err, config.ErrUnknownRoom) {
			writeValidationError(w, &handoff.ValidationError{Fields: []handoff.FieldError{{Field: "room", Message: "is not an available room"}}})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "room lookup failed")
		return
	}
	if msg := guestsProblem(room, q.Guests); msg != "" {
		metrics.IncInquiry("rejected")
		writeValidationError(w, &handoff.ValidationError{Fields: []handoff.FieldError{{Field: "guests", Message: msg}}})
		return
	}

	msg := q.WhatsAppMessage(room.Name)
	in, out := q.Dates()
	metrics.IncInquiry("accepted")
	s.publish(events.ContactWhatsApp, events.BookingPayload{
		Room:     room.ID,
		RoomName: room.Name,
		CheckIn:  in.String(),
		CheckOut: out.String(),
		Nights:   in.DaysUntil(out),
		Message:  msg,
	})
	writeJSON(w, http.StatusOK, InquiryResponse{
		Message:     msg,
		WhatsAppURL: handoff.WhatsAppLink(s.opts.WhatsAppPhone, msg),
	})
}

// guestsProblem checks the party size against the room's capacity. A zero
// bound is not enforced.
func guestsProblem(room *config.RoomConfig, guests int) string {
	switch {
	case room.MaxGuests > 0 && guests > room.MaxGuests:
		return fmt.Sprintf("%s sleeps at most %d", room.Name, room.MaxGuests)
	case room.MinGuests > 0 && guests < room.MinGuests:
		return fmt.Sprintf("%s is booked for at least %d guests", room.Name, room.MinGuests)
	}
	return ""
}
