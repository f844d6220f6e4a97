// Package availability enumerates the open slots of a service on a calendar date.
package availability

import (
	"iter"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

// Generate yields the candidate slots of one service-day window.
//
// Each candidate spans its own duration plus the trailing inter-slot break, and the next
// candidate starts where that span ends. Generation stops at the first candidate that is not
// fully inside day, so a trailing partial period yields nothing. The sequence holds no state
// between iterations and can be ranged over any number of times.
func Generate(day timeofday.Window, durationMinutes, breakMinutes int) iter.Seq[timeofday.Window] {
	return func(yield func(timeofday.Window) bool) {
		step := durationMinutes + breakMinutes
		if durationMinutes <= 0 || breakMinutes < 0 {
			return
		}
		// Stepping on raw minutes keeps a span that would cross midnight from wrapping
		// back into the window.
		for start := day.Start.Minutes(); start+step <= day.End.Minutes(); start += step {
			s, _ := timeofday.FromMinutes(start)
			e, _ := timeofday.FromMinutes(start + step)
			if !yield(timeofday.Window{Start: s, End: e}) {
				return
			}
		}
	}
}
