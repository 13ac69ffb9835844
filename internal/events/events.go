package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Analytics event types published by the booking flow.
const (
	// BookingStarted fires on every accepted date click.
	BookingStarted = "booking_started"
	// RangeSelected fires when a check-in/check-out pair completes.
	RangeSelected = "range_selected"
	// BookingCompleted fires on handoff; Value is the quoted total.
	BookingCompleted = "booking_completed"
	// ContactWhatsApp fires when a contact form is turned into a WhatsApp link.
	ContactWhatsApp = "contact_whatsapp"
)

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// BookingPayload is the JSON payload of the booking events.
type BookingPayload struct {
	Session  string `json:"session,omitempty"`
	Room     string `json:"room"`
	RoomName string `json:"room_name,omitempty"`
	Date     string `json:"date,omitempty"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
	Nights   int    `json:"nights,omitempty"`
	Value    string `json:"value,omitempty"`
	Currency string `json:"currency,omitempty"`
	// Message is the WhatsApp text handed to the guest.
	Message string `json:"message,omitempty"`
}

// NewEvent marshals payload into an event of type t.
func NewEvent(t string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Payload: data}, nil
}

// Decode unmarshals the payload into out.
func (e Event) Decode(out any) error {
	return json.Unmarshal(e.Payload, out)
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// ErrorHandler receives handler failures.
type ErrorHandler func(event Event, err error)

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	all         []EventHandler
	onError     ErrorHandler
	seq         atomic.Int64
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError sets the callback for handler failures.
func (b *EventBus) OnError(fn ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish notifies subscribers of the event type and returns the event as
// delivered.
func (b *EventBus) Publish(event Event) Event {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.all...)
	onError := b.onError
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
	return event
}
