package calendar

import "fmt"

// Phase is the state of the range selection.
type Phase string

const (
	PhaseEmpty    Phase = "empty"
	PhaseHasStart Phase = "has_start"
	PhaseComplete Phase = "complete"
)

// Selection holds the check-in/check-out endpoints. A zero Date is unset.
type Selection struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

// Phase derives the state machine phase from the endpoints.
func (s Selection) Phase() Phase {
	switch {
	case s.CheckIn.IsZero():
		return PhaseEmpty
	case s.CheckOut.IsZero():
		return PhaseHasStart
	default:
		return PhaseComplete
	}
}

// Complete reports whether both endpoints are set.
func (s Selection) Complete() bool {
	return s.Phase() == PhaseComplete
}

// AvailableIn reports whether every set endpoint is in avail.
func (s Selection) AvailableIn(avail Set) bool {
	if !s.CheckIn.IsZero() && !avail.Contains(s.CheckIn) {
		return false
	}
	return s.CheckOut.IsZero() || avail.Contains(s.CheckOut)
}

func (s Selection) valid() bool {
	if s.CheckOut.IsZero() {
		return true
	}
	return !s.CheckIn.IsZero() && s.CheckOut.After(s.CheckIn)
}

// Range is a completed stay.
type Range struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

// Nights returns the number of nights between check-in and check-out.
func (r Range) Nights() int {
	return r.CheckIn.DaysUntil(r.CheckOut)
}

// Selector is the check-in/check-out state machine. The zero value is an
// empty selector. It is not safe for concurrent use; the owning Calendar
// serializes access and reports completed ranges to Options.OnRange.
type Selector struct {
	sel Selection
}

// Selection returns a copy of the current endpoints.
func (s *Selector) Selection() Selection {
	return s.sel
}

// Phase returns the current phase.
func (s *Selector) Phase() Phase {
	return s.sel.Phase()
}

// Reset clears both endpoints.
func (s *Selector) Reset() {
	s.sel = Selection{}
}

// Select feeds date d into the state machine. Callers are expected to pass
// only dates the classifier marked available. It returns the completed range
// and true when this selection completed one.
func (s *Selector) Select(d Date) (Range, bool) {
	if d.IsZero() {
		return Range{}, false
	}

	var (
		completed Range
		done      bool
	)
	switch s.sel.Phase() {
	case PhaseEmpty, PhaseComplete:
		s.sel = Selection{CheckIn: d}
	case PhaseHasStart:
		if d.After(s.sel.CheckIn) {
			s.sel.CheckOut = d
			completed = Range{CheckIn: s.sel.CheckIn, CheckOut: d}
			done = true
		} else {
			// Re-anchor: an earlier or equal date becomes the new start.
			s.sel = Selection{CheckIn: d}
		}
	}

	if !s.sel.valid() {
		panic(fmt.Sprintf("calendar: selection invariant violated: check_in=%s check_out=%s", s.sel.CheckIn, s.sel.CheckOut))
	}
	return completed, done
}
