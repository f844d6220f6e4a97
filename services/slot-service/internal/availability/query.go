package availability

import (
	"slices"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

// WeeklyPattern maps a weekday to its service windows, ordered by start.
type WeeklyPattern map[time.Weekday][]timeofday.Window

func PatternOf(days []model.ServiceDay) WeeklyPattern {
	p := WeeklyPattern{}
	for _, d := range days {
		p[d.Weekday] = append(p[d.Weekday], d.Window())
	}
	for wd := range p {
		slices.SortStableFunc(p[wd], func(a, b timeofday.Window) int {
			return a.Start.Compare(b.Start)
		})
	}
	return p
}

// FindAvailable lists the open slots of svc on date, ordered by start time.
// A public holiday yields nothing. The service is not modified.
func FindAvailable(svc model.Service, date model.Date) []model.AvailableSlot {
	if svc.IsHoliday(date) {
		return nil
	}
	windows := PatternOf(svc.ServiceDays)[date.Weekday()]
	if len(windows) == 0 {
		return nil
	}

	booked := svc.BookedOn(date)
	var out []model.AvailableSlot
	for _, win := range windows {
		for candidate := range Generate(win, svc.SlotDurationMinutes, svc.BreakBetweenSlotsMinutes) {
			if IsBlocked(candidate, svc.Breaks, booked) {
				continue
			}
			out = append(out, model.AvailableSlot{
				ServiceID: svc.ID,
				Start:     candidate.Start,
				End:       candidate.End,
			})
		}
	}
	// Overlapping windows on one weekday can interleave.
	slices.SortStableFunc(out, func(a, b model.AvailableSlot) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// FindAvailableAll concatenates FindAvailable over a catalog, keeping catalog order.
func FindAvailableAll(services []model.Service, date model.Date) []model.AvailableSlot {
	var out []model.AvailableSlot
	for _, svc := range services {
		out = append(out, FindAvailable(svc, date)...)
	}
	return out
}

// Lookup returns the open slot of svc on date starting exactly at start.
func Lookup(svc model.Service, date model.Date, start timeofday.TimeOfDay) (model.AvailableSlot, bool) {
	for _, slot := range FindAvailable(svc, date) {
		if slot.Start == start {
			return slot, true
		}
	}
	return model.AvailableSlot{}, false
}
