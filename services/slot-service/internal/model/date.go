package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

const DateLayout = "2006-01-02"

// Date is a calendar day with no time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DateOf takes the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Time is midnight UTC of the day, the form the pgx date codec expects.
func (d Date) Time() time.Time {
	return d.midnightUTC()
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Weekday() time.Weekday {
	return d.midnightUTC().Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.midnightUTC().AddDate(0, 0, n))
}

// DaysSince counts whole calendar days from other to d; negative when d is earlier.
func (d Date) DaysSince(other Date) int {
	return int(d.midnightUTC().Sub(other.midnightUTC()).Hours() / 24)
}

func (d Date) Before(other Date) bool {
	return d.midnightUTC().Before(other.midnightUTC())
}

// At combines the day with a clock time in loc.
func (d Date) At(t timeofday.TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc)
}

func (d Date) String() string {
	return d.midnightUTC().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date: expected \"YYYY-MM-DD\" string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
