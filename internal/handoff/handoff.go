// Package handoff turns a completed date range or a contact form into the
// WhatsApp message staff receive.
package handoff

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"petalz/internal/calendar"
)

// DefaultPhone is the guesthouse WhatsApp number.
const DefaultPhone = "2348144257874"

// ErrIncompleteRange is returned when a handoff is requested before both
// dates are chosen.
var ErrIncompleteRange = errors.New("check-in and check-out must both be selected")

// QuickMessages are the canned openers offered next to the chat link.
var QuickMessages = []string{
	"Hi! I'd like to check room availability.",
	"What are your current room rates?",
	"I need help with booking a room.",
	"Can I get directions to Petalz Home?",
	"Tell me about your amenities.",
}

// SupportMessage opens a general support chat.
const SupportMessage = "Hi! I'd like to speak with customer support."

// FormatHandoff renders the booking request for room.
func FormatHandoff(room string, checkIn, checkOut calendar.Date) string {
	return fmt.Sprintf("Hi! I'd like to book the %s from %s to %s. Is it available?", room, checkIn, checkOut)
}

// WhatsAppLink builds a wa.me deep link. Non-digits in phone are dropped and
// the message is percent-encoded with spaces as %20.
func WhatsAppLink(phone, message string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits.String() + "?text=" + text
}

// Quote prices a stay.
type Quote struct {
	Nights   int             `json:"nights"`
	Rate     decimal.Decimal `json:"rate"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// NewQuote prices checkIn..checkOut at rate per night. The check-out night
// is not charged.
func NewQuote(rate decimal.Decimal, checkIn, checkOut calendar.Date) (Quote, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return Quote{}, ErrIncompleteRange
	}
	nights := checkIn.DaysUntil(checkOut)
	if nights <= 0 {
		return Quote{}, fmt.Errorf("check-out %s must be after check-in %s", checkOut, checkIn)
	}
	return Quote{
		Nights:   nights,
		Rate:     rate,
		Total:    rate.Mul(decimal.NewFromInt(int64(nights))),
		Currency: "NGN",
	}, nil
}

// FormatTotal is the total in display form, e.g. ₦70,000.
func (q Quote) FormatTotal() string { return FormatNaira(q.Total) }

// FormatRate is the nightly rate in display form.
func (q Quote) FormatRate() string { return FormatNaira(q.Rate) }

// FormatNaira renders an amount like ₦35,000 or ₦1,250.50.
func FormatNaira(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	s := amount.StringFixed(2)
	if amount.Equal(amount.Truncate(0)) {
		s = amount.StringFixed(0)
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + "₦" + b.String()
}
