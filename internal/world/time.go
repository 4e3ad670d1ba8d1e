package world

import "fmt"

// Calendar radices.
const (
	TicksPerMinute = 3
	MinutesPerHour = 60
	HoursPerDay    = 24
	DaysPerWeek    = 7
	DaysPerMonth   = 30
	MonthsPerYear  = 12

	TicksPerHour = TicksPerMinute * MinutesPerHour
	TicksPerDay  = TicksPerHour * HoursPerDay
)

var (
	weekdayNames = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	monthNames   = [MonthsPerYear]string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}
)

// Time is the simulated clock. Each counter rolls into the next on overflow.
// Day and Month are zero-based; String renders them one-based.
type Time struct {
	Ticks   uint64 `json:"ticks"` // Monotonic, never resets
	Tick    int    `json:"tick"`
	Minute  int    `json:"minute"`
	Hour    int    `json:"hour"`
	Day     int    `json:"day"`
	Weekday int    `json:"weekday"`
	Month   int    `json:"month"`
	Year    int    `json:"year"`
}

// Advance moves the clock forward one tick.
func (t *Time) Advance() {
	t.Ticks++
	t.Tick++
	if t.Tick < TicksPerMinute {
		return
	}
	t.Tick = 0
	t.Minute++
	if t.Minute < MinutesPerHour {
		return
	}
	t.Minute = 0
	t.Hour++
	if t.Hour < HoursPerDay {
		return
	}
	t.Hour = 0
	t.Weekday = (t.Weekday + 1) % DaysPerWeek
	t.Day++
	if t.Day < DaysPerMonth {
		return
	}
	t.Day = 0
	t.Month++
	if t.Month < MonthsPerYear {
		return
	}
	t.Month = 0
	t.Year++
}

// IsNewDay reports whether the clock sits on the first tick of a day.
func (t Time) IsNewDay() bool {
	return t.Tick == 0 && t.Minute == 0 && t.Hour == 0
}

// IsNewHour reports whether the clock sits on the first tick of an hour.
func (t Time) IsNewHour() bool {
	return t.Tick == 0 && t.Minute == 0
}

// DayNumber returns the count of whole days elapsed since the epoch.
func (t Time) DayNumber() int {
	return (t.Year*MonthsPerYear+t.Month)*DaysPerMonth + t.Day
}

// String renders the date for observers, e.g. "Mon 1 Jan Year 1, 06:05".
func (t Time) String() string {
	return fmt.Sprintf("%s %d %s Year %d, %02d:%02d",
		weekdayNames[t.Weekday], t.Day+1, monthNames[t.Month], t.Year+1, t.Hour, t.Minute)
}
