package availability

import (
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

// IsBlocked reports whether candidate may not be offered.
//
// A break blocks a candidate only when it fully contains it; a candidate straddling the edge of
// a break stays available. A booking blocks a candidate when it starts at the same minute.
// bookedOnDate must already be filtered to the candidate's date.
func IsBlocked(candidate timeofday.Window, breaks []model.Break, bookedOnDate []model.BookedSlot) bool {
	for _, b := range breaks {
		if b.Window().Contains(candidate) {
			return true
		}
	}
	for _, booked := range bookedOnDate {
		if booked.StartTime == candidate.Start {
			return true
		}
	}
	return false
}
