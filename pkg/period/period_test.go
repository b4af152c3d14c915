package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowFor_WeeklyContainsMondayToSunday(t *testing.T) {
	// Wednesday
	w := WindowFor(date(2024, time.January, 10), Weekly)

	assert.Equal(t, date(2024, time.January, 8), w.Start)
	assert.Equal(t, date(2024, time.January, 14), w.End)
	assert.Equal(t, Weekly, w.Type)
}

func TestWindowFor_WeeklyOnSunday(t *testing.T) {
	// A Sunday belongs to the week that started the previous Monday.
	w := WindowFor(date(2024, time.January, 14), Weekly)

	assert.Equal(t, date(2024, time.January, 8), w.Start)
	assert.Equal(t, date(2024, time.January, 14), w.End)
}

func TestWindowFor_WeeklyOnMonday(t *testing.T) {
	w := WindowFor(date(2024, time.January, 8), Weekly)

	assert.Equal(t, date(2024, time.January, 8), w.Start)
	assert.Equal(t, date(2024, time.January, 14), w.End)
}

func TestWindowFor_MonthlyLeapYear(t *testing.T) {
	w := WindowFor(date(2024, time.February, 15), Monthly)

	assert.Equal(t, date(2024, time.February, 1), w.Start)
	assert.Equal(t, date(2024, time.February, 29), w.End)
	assert.Equal(t, Monthly, w.Type)
}

func TestWindowFor_MonthlyNonLeapYear(t *testing.T) {
	w := WindowFor(date(2023, time.February, 15), Monthly)

	assert.Equal(t, date(2023, time.February, 28), w.End)
}

func TestWindowFor_Idempotent(t *testing.T) {
	ref := date(2024, time.January, 10)

	assert.Equal(t, WindowFor(ref, Weekly), WindowFor(ref, Weekly))
	assert.Equal(t, WindowFor(ref, Monthly), WindowFor(ref, Monthly))
}

func TestWindowFor_TruncatesTimeOfDay(t *testing.T) {
	noon := time.Date(2024, time.January, 10, 12, 30, 45, 0, time.UTC)

	assert.Equal(t, WindowFor(date(2024, time.January, 10), Weekly), WindowFor(noon, Weekly))
}

func TestAdvance_WeeklyMovesSevenDays(t *testing.T) {
	ref := date(2024, time.January, 10)

	assert.Equal(t, date(2024, time.January, 17), Advance(ref, Weekly, 1))
	assert.Equal(t, date(2024, time.January, 3), Advance(ref, Weekly, -1))
}

func TestAdvance_MonthlyUsesCalendarMonths(t *testing.T) {
	ref := date(2024, time.January, 15)

	assert.Equal(t, date(2024, time.February, 15), Advance(ref, Monthly, 1))
	assert.Equal(t, date(2023, time.December, 15), Advance(ref, Monthly, -1))
}

func TestIsNavigableBackward_PastWindowIsBlocked(t *testing.T) {
	// Previous week of 2024-01-10 ends Sunday 2024-01-07.
	prev := WindowFor(Advance(date(2024, time.January, 10), Weekly, -1), Weekly)
	assert.Equal(t, date(2024, time.January, 7), prev.End)

	today := date(2024, time.January, 10)
	assert.False(t, IsNavigableBackward(prev, today))
}

func TestIsNavigableBackward_CurrentWindowIsAllowed(t *testing.T) {
	today := date(2024, time.January, 10)
	current := WindowFor(today, Weekly)

	assert.True(t, IsNavigableBackward(current, today))
}

func TestIsNavigableBackward_WindowEndingTodayIsAllowed(t *testing.T) {
	w := Window{Start: date(2024, time.January, 4), End: date(2024, time.January, 10), Type: Weekly}
	today := time.Date(2024, time.January, 10, 23, 15, 0, 0, time.UTC)

	assert.True(t, IsNavigableBackward(w, today))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		window Window
		want   string
	}{
		{
			name:   "weekly within one month",
			window: WindowFor(date(2024, time.January, 10), Weekly),
			want:   "Ene 8 - 14, 2024",
		},
		{
			name:   "weekly crossing months",
			window: WindowFor(date(2024, time.January, 30), Weekly),
			want:   "Ene 29 - Feb 4, 2024",
		},
		{
			name:   "monthly",
			window: WindowFor(date(2024, time.February, 15), Monthly),
			want:   "Feb 2024",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.window))
		})
	}
}
