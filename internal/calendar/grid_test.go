package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGrid_AlwaysSixWeeks(t *testing.T) {
	for year := 2023; year <= 2025; year++ {
		for m := time.January; m <= time.December; m++ {
			ref := NewDate(year, m, 15)
			grid := BuildGrid(ref)
			require.Len(t, grid, GridSize)

			var inMonth []Date
			for _, cell := range grid {
				if cell.InMonth {
					inMonth = append(inMonth, cell.Date)
				}
			}
			require.NotEmpty(t, inMonth)
			assert.Equal(t, NewDate(year, m, 1), inMonth[0], "%d-%02d", year, m)
			assert.Equal(t, daysIn(m, year), len(inMonth), "%d-%02d", year, m)
			for i := 1; i < len(inMonth); i++ {
				assert.Equal(t, inMonth[i-1].AddDays(1), inMonth[i], "gap in %d-%02d", year, m)
			}

			for i := 1; i < len(grid); i++ {
				assert.Equal(t, grid[i-1].Date.AddDays(1), grid[i].Date)
			}
			assert.Equal(t, time.Sunday, grid[0].Date.Weekday())
		}
	}
}

func TestBuildGrid_January2024(t *testing.T) {
	// 2024-01-01 is a Monday: one leading day from December.
	grid := BuildGrid(MustParseDate("2024-01-10"))

	assert.Equal(t, Day{Date: MustParseDate("2023-12-31")}, grid[0])
	assert.Equal(t, Day{Date: MustParseDate("2024-01-01"), InMonth: true}, grid[1])
	assert.Equal(t, Day{Date: MustParseDate("2024-01-31"), InMonth: true}, grid[31])
	assert.Equal(t, Day{Date: MustParseDate("2024-02-01")}, grid[32])
	assert.Equal(t, Day{Date: MustParseDate("2024-02-10")}, grid[41])
}

func TestBuildGrid_MonthStartingSunday(t *testing.T) {
	// 2023-10-01 is a Sunday: no leading days.
	grid := BuildGrid(MustParseDate("2023-10-31"))
	assert.Equal(t, Day{Date: MustParseDate("2023-10-01"), InMonth: true}, grid[0])
	assert.False(t, grid[31].InMonth)
}

func TestBuildGrid_LeapFebruary(t *testing.T) {
	grid := BuildGrid(MustParseDate("2024-02-01"))
	count := 0
	for _, cell := range grid {
		if cell.InMonth {
			count++
		}
	}
	assert.Equal(t, 29, count)
}

func TestDate_ParseAndFormat(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.January, Day: 15}, d)
	assert.Equal(t, "2024-01-15", d.String())

	for _, bad := range []string{"", "15-01-2024", "2024-13-01", "2024-02-30", "2024-1-5"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDate_Ordering(t *testing.T) {
	a := MustParseDate("2023-12-31")
	b := MustParseDate("2024-01-01")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, 1, a.DaysUntil(b))
	assert.Equal(t, b, a.AddDays(1))
	assert.Equal(t, MustParseDate("2024-03-01"), NewDate(2024, time.February, 30))
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2024-01-20")))
	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-20", string(out))

	require.NoError(t, d.UnmarshalText(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.UnmarshalText([]byte("tomorrow")))
}

func TestToday_UsesLocation(t *testing.T) {
	lagos := time.FixedZone("WAT", 60*60)
	now := time.Date(2024, 1, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, MustParseDate("2024-01-10"), Today(now, lagos))
	assert.Equal(t, MustParseDate("2024-01-09"), Today(now, nil))
}
