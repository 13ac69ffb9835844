// Package availability provides the calendar.Source implementations: a
// horizon generator over an injectable denylist, an HTTP client for an
// external inventory service and a Redis read-through cache.
package availability

import (
	"context"
	"fmt"
	"time"

	"petalz/internal/calendar"
)

// DefaultHorizonDays is the bookable window starting today.
const DefaultHorizonDays = 60

// Denylist reports dates already taken for a room within [from, to].
type Denylist interface {
	BlockedDates(ctx context.Context, room string, from, to calendar.Date) ([]calendar.Date, error)
}

// HorizonSource offers every date from today through today+Days-1 except
// the denylisted ones. Denylist entries outside the horizon have no effect.
type HorizonSource struct {
	Days     int
	Denylist Denylist
	Location *time.Location
	Now      func() time.Time
	// Latency simulates a slow upstream; it honours cancellation.
	Latency time.Duration
}

// NewHorizonSource builds a source with the default clock and UTC.
func NewHorizonSource(days int, deny Denylist) *HorizonSource {
	return &HorizonSource{Days: days, Denylist: deny}
}

// Fetch implements calendar.Source.
func (s *HorizonSource) Fetch(ctx context.Context, room string) (calendar.Set, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return calendar.Set{}, ctx.Err()
		}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	days := s.Days
	if days <= 0 {
		days = DefaultHorizonDays
	}
	from := calendar.Today(now(), s.Location)
	to := from.AddDays(days - 1)

	blocked := make(map[calendar.Date]bool)
	if s.Denylist != nil {
		dates, err := s.Denylist.BlockedDates(ctx, room, from, to)
		if err != nil {
			return calendar.Set{}, fmt.Errorf("load blocked dates: %w", err)
		}
		for _, d := range dates {
			blocked[d] = true
		}
	}

	dates := make([]calendar.Date, 0, days)
	for d := from; !d.After(to); d = d.AddDays(1) {
		if !blocked[d] {
			dates = append(dates, d)
		}
	}
	return calendar.NewSet(dates...), nil
}

// StaticDenylist is a fixed denylist: dates blocked for every room plus
// room-specific ones.
type StaticDenylist struct {
	All    []calendar.Date
	ByRoom map[string][]calendar.Date
}

// BlockedDates implements Denylist.
func (d StaticDenylist) BlockedDates(_ context.Context, room string, from, to calendar.Date) ([]calendar.Date, error) {
	var out []calendar.Date
	add := func(dates []calendar.Date) {
		for _, date := range dates {
			if !date.Before(from) && !date.After(to) {
				out = append(out, date)
			}
		}
	}
	add(d.All)
	add(d.ByRoom[room])
	return out, nil
}

// DenylistFunc adapts a function to Denylist.
type DenylistFunc func(ctx context.Context, room string, from, to calendar.Date) ([]calendar.Date, error)

func (f DenylistFunc) BlockedDates(ctx context.Context, room string, from, to calendar.Date) ([]calendar.Date, error) {
	return f(ctx, room, from, to)
}
