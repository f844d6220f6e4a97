// Package timeofday implements minute-granularity clock arithmetic with no date component.
package timeofday

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

var ErrInvalid = errors.New("invalid time of day")

// TimeOfDay is a minute offset from midnight in [0, MinutesPerDay).
type TimeOfDay struct {
	m int
}

func New(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalid, hour, minute)
	}
	return TimeOfDay{m: hour*60 + minute}, nil
}

// MustNew is for literals in tests and defaults.
func MustNew(hour, minute int) TimeOfDay {
	t, err := New(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMinutes builds a value from a minute-of-day, as stored in the database.
func FromMinutes(m int) (TimeOfDay, error) {
	if m < 0 || m >= MinutesPerDay {
		return TimeOfDay{}, fmt.Errorf("%w: minute %d", ErrInvalid, m)
	}
	return TimeOfDay{m: m}, nil
}

// Parse reads the 24-hour HH:MM form. A single-digit hour is accepted.
func Parse(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return New(hour, minute)
}

func (t TimeOfDay) Hour() int    { return t.m / 60 }
func (t TimeOfDay) Minute() int  { return t.m % 60 }
func (t TimeOfDay) Minutes() int { return t.m }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Add moves t forward, wrapping past midnight. Negative offsets are not supported.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return TimeOfDay{m: (t.m + minutes%MinutesPerDay) % MinutesPerDay}
}

// Compare returns -1, 0 or +1.
func (t TimeOfDay) Compare(u TimeOfDay) int {
	switch {
	case t.m < u.m:
		return -1
	case t.m > u.m:
		return 1
	default:
		return 0
	}
}

func (t TimeOfDay) Before(u TimeOfDay) bool { return t.m < u.m }
func (t TimeOfDay) After(u TimeOfDay) bool  { return t.m > u.m }

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected \"HH:MM\" string", ErrInvalid)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
