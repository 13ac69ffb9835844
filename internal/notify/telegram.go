// Package notify alerts staff on Telegram about booking requests and
// contact form submissions.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"petalz/internal/events"
)

// TelegramSender is the part of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts staff alerts into a single chat.
type Notifier struct {
	sender TelegramSender
	chatID int64
	logger *zerolog.Logger
}

// New builds a notifier for chatID.
func New(sender TelegramSender, chatID int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{sender: sender, chatID: chatID, logger: logger}
}

// NewBot connects to the Bot API with token.
func NewBot(token string, chatID int64, logger *zerolog.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	logger.Info().Str("bot", api.Self.UserName).Int64("chat_id", chatID).Msg("Telegram notifier authorized")
	return New(api, chatID, logger), nil
}

// Subscribe routes booking and contact events to staff.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.BookingCompleted, n.handle)
	bus.Subscribe(events.ContactWhatsApp, n.handle)
}

func (n *Notifier) handle(e events.Event) error {
	var p events.BookingPayload
	if err := e.Decode(&p); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	var text string
	switch e.Type {
	case events.BookingCompleted:
		text = BookingText(p)
	case events.ContactWhatsApp:
		text = InquiryText(p)
	default:
		return nil
	}
	if err := n.send(text); err != nil {
		n.logger.Error().Err(err).Str("event", e.Type).Msg("Failed to notify staff")
		return err
	}
	return nil
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := n.sender.Send(msg)
	return err
}

// BookingText is the staff alert for a booking handoff.
func BookingText(p events.BookingPayload) string {
	var b strings.Builder
	b.WriteString("🛎 New booking request\n")
	fmt.Fprintf(&b, "Room: %s\n", roomLabel(p))
	fmt.Fprintf(&b, "Check-in: %s\nCheck-out: %s\n", p.CheckIn, p.CheckOut)
	fmt.Fprintf(&b, "Nights: %d", p.Nights)
	if p.Value != "" {
		fmt.Fprintf(&b, "\nQuoted: %s %s", p.Value, p.Currency)
	}
	return b.String()
}

// InquiryText is the staff alert for a contact form submission.
func InquiryText(p events.BookingPayload) string {
	var b strings.Builder
	b.WriteString("✉️ New inquiry\n")
	fmt.Fprintf(&b, "Room: %s\n", roomLabel(p))
	b.WriteString(p.Message)
	return b.String()
}

func roomLabel(p events.BookingPayload) string {
	if p.RoomName != "" {
		return p.RoomName + " (" + p.Room + ")"
	}
	return p.Room
}
