package calendar

import "time"

// GridSize is the number of cells in a month grid: six full weeks.
const GridSize = 42

// Day is one grid cell.
type Day struct {
	Date    Date
	InMonth bool
}

// BuildGrid returns the Sunday-first grid for ref's month. Leading cells come
// from the previous month, trailing cells from the next, so the result is
// always rectangular regardless of month length.
func BuildGrid(ref Date) [GridSize]Day {
	var grid [GridSize]Day
	first := ref.FirstOfMonth()
	leading := int(first.Weekday())

	i := 0
	for n := leading; n > 0; n-- {
		grid[i] = Day{Date: first.AddDays(-n)}
		i++
	}

	for day := 1; day <= daysIn(first.Month, first.Year); day++ {
		grid[i] = Day{Date: Date{Year: first.Year, Month: first.Month, Day: day}, InMonth: true}
		i++
	}

	next := NewDate(first.Year, first.Month+1, 1)
	for n := 0; i < GridSize; n++ {
		grid[i] = Day{Date: next.AddDays(n)}
		i++
	}
	return grid
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
