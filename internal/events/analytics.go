package events

import (
	"github.com/rs/zerolog"

	"petalz/internal/metrics"
)

// Analytics returns a handler that logs every event and counts it by type.
func Analytics(logger *zerolog.Logger) EventHandler {
	return func(event Event) error {
		var p BookingPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		metrics.IncEvent(event.Type)

		e := logger.Info().Int64("event_id", event.ID).Str("event", event.Type).Str("room", p.Room)
		if p.Date != "" {
			e = e.Str("date", p.Date)
		}
		if p.CheckIn != "" {
			e = e.Str("check_in", p.CheckIn).Str("check_out", p.CheckOut).Int("nights", p.Nights)
		}
		if p.Value != "" {
			e = e.Str("value", p.Value).Str("currency", p.Currency)
		}
		e.Msg("analytics event")
		return nil
	}
}
