package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewEventBus()
	var got []string
	bus.Subscribe(RangeSelected, func(e Event) error {
		got = append(got, "range:"+e.Type)
		return nil
	})
	bus.SubscribeAll(func(e Event) error {
		got = append(got, "all:"+e.Type)
		return nil
	})

	first := bus.Publish(Event{Type: RangeSelected})
	second := bus.Publish(Event{Type: BookingStarted})

	assert.Equal(t, []string{"range:range_selected", "all:range_selected", "all:booking_started"}, got)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestEventBus_HandlerErrors(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	var failed []error
	bus.OnError(func(_ Event, err error) { failed = append(failed, err) })

	calls := 0
	bus.Subscribe(ContactWhatsApp, func(Event) error { return boom })
	bus.Subscribe(ContactWhatsApp, func(Event) error { calls++; return nil })

	bus.Publish(Event{Type: ContactWhatsApp})
	assert.Equal(t, []error{boom}, failed)
	assert.Equal(t, 1, calls, "a failing handler does not stop the rest")
}

func TestNewEvent_RoundTrip(t *testing.T) {
	e, err := NewEvent(BookingCompleted, BookingPayload{Room: "studio", CheckIn: "2024-01-12", CheckOut: "2024-01-14", Nights: 2, Value: "70000", Currency: "NGN"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"room":"studio","check_in":"2024-01-12","check_out":"2024-01-14","nights":2,"value":"70000","currency":"NGN"}`, string(e.Payload))

	var p BookingPayload
	require.NoError(t, e.Decode(&p))
	assert.Equal(t, 2, p.Nights)
}

func TestAnalytics_LogsEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus()
	bus.SubscribeAll(Analytics(&logger))

	e, err := NewEvent(RangeSelected, BookingPayload{Room: "suite", CheckIn: "2024-01-12", CheckOut: "2024-01-14", Nights: 2})
	require.NoError(t, err)
	bus.Publish(e)

	out := buf.String()
	assert.Contains(t, out, `"event":"range_selected"`)
	assert.Contains(t, out, `"room":"suite"`)
	assert.Contains(t, out, `"nights":2`)
	assert.NotContains(t, out, `"value"`)
}

func TestAnalytics_RejectsBadPayload(t *testing.T) {
	logger := zerolog.Nop()
	err := Analytics(&logger)(Event{Type: BookingStarted, Payload: []byte("{")})
	assert.Error(t, err)
}
