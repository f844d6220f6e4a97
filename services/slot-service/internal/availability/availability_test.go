package availability

import (
	"slices"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = model.Date{Year: 2026, Month: time.October, Day: 19}

func tod(s string) timeofday.TimeOfDay {
	t, err := timeofday.Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func win(start, end string) timeofday.Window {
	return timeofday.Window{Start: tod(start), End: tod(end)}
}

func starts[T any](items []T, start func(T) timeofday.TimeOfDay) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, start(it).String())
	}
	return out
}

func morningService() model.Service {
	return model.Service{
		ID:                         "svc-1",
		SlotDurationMinutes:        30,
		MaxClientsPerSlot:          2,
		AllowedBookingIntervalDays: 30,
		ServiceDays: []model.ServiceDay{
			{Weekday: time.Monday, Start: tod("09:00"), End: tod("12:00")},
		},
	}
}

func TestGenerate_InclusiveUpperBound(t *testing.T) {
	got := slices.Collect(Generate(win("09:00", "12:00"), 30, 0))
	assert.Equal(t,
		[]string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"},
		starts(got, func(w timeofday.Window) timeofday.TimeOfDay { return w.Start }),
	)
	assert.Equal(t, "12:00", got[len(got)-1].End.String())
}

func TestGenerate_SpanIncludesTrailingBreak(t *testing.T) {
	got := slices.Collect(Generate(win("09:00", "11:00"), 30, 15))
	require.Len(t, got, 2)
	assert.Equal(t, win("09:00", "09:45"), got[0])
	assert.Equal(t, win("09:45", "10:30"), got[1])
	// 10:30-11:15 overflows the window and is dropped.
}

func TestGenerate_PartialPeriodDropped(t *testing.T) {
	got := slices.Collect(Generate(win("09:00", "10:10"), 20, 0))
	assert.Len(t, got, 3)
	assert.Empty(t, slices.Collect(Generate(win("09:00", "09:10"), 20, 0)))
}

func TestGenerate_DoesNotWrapPastMidnight(t *testing.T) {
	got := slices.Collect(Generate(win("22:00", "23:59"), 60, 0))
	require.Len(t, got, 1)
	assert.Equal(t, win("22:00", "23:00"), got[0])
}

func TestGenerate_RejectsNonPositiveStep(t *testing.T) {
	assert.Empty(t, slices.Collect(Generate(win("09:00", "12:00"), 0, 0)))
	assert.Empty(t, slices.Collect(Generate(win("09:00", "12:00"), 30, -5)))
}

func TestGenerate_EarlyBreakStopsIteration(t *testing.T) {
	n := 0
	for range Generate(win("00:00", "23:00"), 5, 0) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestGenerate_Properties(t *testing.T) {
	windows := []timeofday.Window{
		win("00:00", "23:59"), win("09:00", "12:00"), win("08:15", "17:40"), win("13:00", "13:25"),
	}
	for _, w := range windows {
		for _, dur := range []int{1, 5, 15, 25, 30, 45, 60, 90} {
			for _, gap := range []int{0, 5, 10} {
				first := slices.Collect(Generate(w, dur, gap))
				second := slices.Collect(Generate(w, dur, gap))
				assert.Equal(t, first, second, "restartable %s %d/%d", w, dur, gap)

				for i, s := range first {
					assert.True(t, w.Contains(s), "slot %s outside %s", s, w)
					assert.Equal(t, dur+gap, s.Minutes())
					if i > 0 {
						assert.Equal(t, dur+gap, s.Start.Minutes()-first[i-1].Start.Minutes())
					}
				}
				assert.Equal(t, w.Minutes()/(dur+gap), len(first), "count %s %d/%d", w, dur, gap)
			}
		}
	}
}

func TestIsBlocked(t *testing.T) {
	breaks := []model.Break{{Start: tod("12:00"), End: tod("13:00")}}
	booked := []model.BookedSlot{{Date: monday, StartTime: tod("09:30")}}

	assert.True(t, IsBlocked(win("12:00", "12:30"), breaks, nil))
	assert.True(t, IsBlocked(win("12:30", "13:00"), breaks, nil))
	assert.False(t, IsBlocked(win("11:45", "12:15"), breaks, nil), "edge overlap is not containment")
	assert.False(t, IsBlocked(win("12:45", "13:15"), breaks, nil))

	assert.True(t, IsBlocked(win("09:30", "10:00"), nil, booked))
	assert.False(t, IsBlocked(win("09:15", "09:45"), nil, booked), "only an exact start matches")
	assert.False(t, IsBlocked(win("10:00", "10:30"), breaks, booked))
}

func TestIsBlocked_DoesNotMutateInputs(t *testing.T) {
	breaks := []model.Break{{Start: tod("12:00"), End: tod("13:00")}}
	booked := []model.BookedSlot{{Date: monday, StartTime: tod("09:30"), Users: []string{"u1"}}}
	breaksCopy := slices.Clone(breaks)
	bookedCopy := slices.Clone(booked)

	IsBlocked(win("09:30", "10:00"), breaks, booked)
	assert.Equal(t, breaksCopy, breaks)
	assert.Equal(t, bookedCopy, booked)
}

func slotStarts(slots []model.AvailableSlot) []string {
	return starts(slots, func(s model.AvailableSlot) timeofday.TimeOfDay { return s.Start })
}

func TestFindAvailable_MondayMorning(t *testing.T) {
	got := FindAvailable(morningService(), monday)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, slotStarts(got))
	for _, s := range got {
		assert.Equal(t, "svc-1", s.ServiceID)
		assert.Equal(t, 30, s.End.Minutes()-s.Start.Minutes())
	}
}

func TestFindAvailable_WrongWeekday(t *testing.T) {
	assert.Empty(t, FindAvailable(morningService(), monday.AddDays(1)))
}

func TestFindAvailable_Holiday(t *testing.T) {
	svc := morningService()
	svc.PublicHolidays = []model.Date{monday.AddDays(7), monday}
	assert.Empty(t, FindAvailable(svc, monday))
	assert.NotEmpty(t, FindAvailable(svc, monday.AddDays(14)))
}

func TestFindAvailable_NoHolidaysStillOffersSlots(t *testing.T) {
	svc := morningService()
	svc.PublicHolidays = nil
	assert.Len(t, FindAvailable(svc, monday), 6)
}

func TestFindAvailable_BreaksAndBookings(t *testing.T) {
	svc := morningService()
	svc.Breaks = []model.Break{{Start: tod("10:00"), End: tod("11:00")}}
	svc.BookedSlots = []model.BookedSlot{
		{Date: monday, StartTime: tod("09:00")},
		{Date: monday.AddDays(7), StartTime: tod("11:30")},
	}

	got := FindAvailable(svc, monday)
	assert.Equal(t, []string{"09:30", "11:00", "11:30"}, slotStarts(got))
	for _, s := range got {
		slot := timeofday.Window{Start: s.Start, End: s.End}
		assert.False(t, svc.Breaks[0].Window().Contains(slot))
	}
}

func TestFindAvailable_MultipleWindowsSorted(t *testing.T) {
	svc := morningService()
	svc.SlotDurationMinutes = 60
	svc.ServiceDays = []model.ServiceDay{
		{Weekday: time.Monday, Start: tod("14:00"), End: tod("16:00")},
		{Weekday: time.Monday, Start: tod("09:00"), End: tod("11:00")},
		{Weekday: time.Tuesday, Start: tod("09:00"), End: tod("11:00")},
	}
	assert.Equal(t, []string{"09:00", "10:00", "14:00", "15:00"}, slotStarts(FindAvailable(svc, monday)))
}

func TestFindAvailableAll_CatalogOrder(t *testing.T) {
	a := morningService()
	a.ID = "a"
	a.SlotDurationMinutes = 90
	b := morningService()
	b.ID = "b"
	b.SlotDurationMinutes = 60
	closed := morningService()
	closed.ID = "closed"
	closed.PublicHolidays = []model.Date{monday}

	got := FindAvailableAll([]model.Service{b, closed, a}, monday)
	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ServiceID+"@"+s.Start.String())
	}
	assert.Equal(t, []string{"b@09:00", "b@10:00", "b@11:00", "a@09:00", "a@10:30"}, ids)
}

func TestLookup(t *testing.T) {
	svc := morningService()
	slot, ok := Lookup(svc, monday, tod("10:30"))
	require.True(t, ok)
	assert.Equal(t, "11:00", slot.End.String())

	_, ok = Lookup(svc, monday, tod("10:15"))
	assert.False(t, ok)
}

func TestPatternOf(t *testing.T) {
	p := PatternOf([]model.ServiceDay{
		{Weekday: time.Friday, Start: tod("13:00"), End: tod("17:00")},
		{Weekday: time.Friday, Start: tod("08:00"), End: tod("12:00")},
	})
	require.Len(t, p[time.Friday], 2)
	assert.Equal(t, "08:00", p[time.Friday][0].Start.String())
	assert.Empty(t, p[time.Monday])
}
