package calendar

// Status is the display status of a single day.
type Status string

const (
	StatusPast      Status = "past"
	StatusBooked    Status = "booked"
	StatusAvailable Status = "available"
	StatusCheckIn   Status = "checkin"
	StatusCheckOut  Status = "checkout"
	StatusInRange   Status = "inrange"
)

// Classify derives the status of date. The checks are ordered: a booked day
// inside a selected range stays booked, and any day before today is past.
func Classify(date, today Date, avail Set, sel Selection) Status {
	switch {
	case date.Before(today):
		return StatusPast
	case !avail.Contains(date):
		return StatusBooked
	case !sel.CheckIn.IsZero() && date == sel.CheckIn:
		return StatusCheckIn
	case !sel.CheckOut.IsZero() && date == sel.CheckOut:
		return StatusCheckOut
	case sel.Complete() && date.After(sel.CheckIn) && date.Before(sel.CheckOut):
		return StatusInRange
	default:
		return StatusAvailable
	}
}

// Selectable reports whether a cell accepts a selection.
func Selectable(day Day, status Status) bool {
	return day.InMonth && status == StatusAvailable
}
