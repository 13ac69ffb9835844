package handoff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"petalz/internal/calendar"
)

// Inquiry is the contact form submission.
type Inquiry struct {
	Name     string `json:"name" validate:"required,max=128"`
	Phone    string `json:"phone" validate:"required,min=7,max=32"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Room     string `json:"room" validate:"required"`
	Guests   int    `json:"guests" validate:"required,gte=1,lte=4"`
	Message  string `json:"message" validate:"max=2000"`
}

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid inquiry: " + strings.Join(parts, "; ")
}

var validate = validator.New()

// Validate checks field rules and that check-out follows check-in no
// earlier than today.
func (q *Inquiry) Validate(today calendar.Date) error {
	verr := &ValidationError{}
	if err := validate.Struct(q); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return err
		}
		for _, fe := range errs {
			verr.Fields = append(verr.Fields, FieldError{Field: jsonName(fe.Field()), Message: fieldMessage(fe)})
		}
		return verr
	}

	in, out := q.Dates()
	if in.Before(today) {
		verr.Fields = append(verr.Fields, FieldError{Field: "check_in", Message: "must not be in the past"})
	}
	if !out.After(in) {
		verr.Fields = append(verr.Fields, FieldError{Field: "check_out", Message: "must be after check_in"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Dates parses the stay dates. Call after Validate.
func (q *Inquiry) Dates() (calendar.Date, calendar.Date) {
	in, _ := calendar.ParseDate(q.CheckIn)
	out, _ := calendar.ParseDate(q.CheckOut)
	return in, out
}

// WhatsAppMessage renders the inquiry for WhatsApp using the room's display name.
func (q *Inquiry) WhatsAppMessage(roomName string) string {
	in, out := q.Dates()
	var b strings.Builder
	b.WriteString(FormatHandoff(roomName, in, out))
	fmt.Fprintf(&b, "\nName: %s", q.Name)
	guests := "guests"
	if q.Guests == 1 {
		guests = "guest"
	}
	fmt.Fprintf(&b, "\nGuests: %d %s\nPhone: %s", q.Guests, guests, q.Phone)
	if q.Email != "" {
		fmt.Fprintf(&b, "\nEmail: %s", q.Email)
	}
	if msg := strings.TrimSpace(q.Message); msg != "" {
		fmt.Fprintf(&b, "\nSpecial requests: %s", msg)
	}
	return b.String()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func jsonName(field string) string {
	switch field {
	case "CheckIn":
		return "check_in"
	case "CheckOut":
		return "check_out"
	default:
		return strings.ToLower(field)
	}
}
