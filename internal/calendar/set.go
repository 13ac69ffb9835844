package calendar

import "sort"

// Set is an immutable set of bookable dates for one room category.
type Set struct {
	dates map[Date]struct{}
}

// NewSet builds a set from dates; zero dates are skipped.
func NewSet(dates ...Date) Set {
	m := make(map[Date]struct{}, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		m[d] = struct{}{}
	}
	return Set{dates: m}
}

// ParseSet builds a set from ISO strings.
func ParseSet(values []string) (Set, error) {
	dates := make([]Date, 0, len(values))
	for _, v := range values {
		d, err := ParseDate(v)
		if err != nil {
			return Set{}, err
		}
		dates = append(dates, d)
	}
	return NewSet(dates...), nil
}

// Contains reports whether d is bookable.
func (s Set) Contains(d Date) bool {
	_, ok := s.dates[d]
	return ok
}

// Len returns the number of dates.
func (s Set) Len() int {
	return len(s.dates)
}

// Dates returns the members in chronological order.
func (s Set) Dates() []Date {
	out := make([]Date, 0, len(s.dates))
	for d := range s.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Strings returns the members as sorted ISO strings.
func (s Set) Strings() []string {
	dates := s.Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}
