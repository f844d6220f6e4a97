package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

var ErrInvalidService = errors.New("invalid service")

// ServiceDay is one weekly recurrence window. Weekday follows time.Weekday (Sunday is 0).
type ServiceDay struct {
	Weekday time.Weekday        `json:"weekday"`
	Start   timeofday.TimeOfDay `json:"start"`
	End     timeofday.TimeOfDay `json:"end"`
}

func (d ServiceDay) Window() timeofday.Window {
	return timeofday.Window{Start: d.Start, End: d.End}
}

// Break is a daily exclusion window applied on every service day.
type Break struct {
	Start timeofday.TimeOfDay `json:"start"`
	End   timeofday.TimeOfDay `json:"end"`
}

func (b Break) Window() timeofday.Window {
	return timeofday.Window{Start: b.Start, End: b.End}
}

// BookedSlot is a confirmed reservation. ID is assigned by the booking validator.
type BookedSlot struct {
	ID        string              `json:"id,omitempty"`
	Date      Date                `json:"date"`
	StartTime timeofday.TimeOfDay `json:"start_time"`
	Users     []string            `json:"users"`
}

// AvailableSlot is derived on every query and never stored.
type AvailableSlot struct {
	ServiceID string              `json:"service_id"`
	Start     timeofday.TimeOfDay `json:"start"`
	End       timeofday.TimeOfDay `json:"end"`
}

type Service struct {
	ID                         string       `json:"id"`
	Name                       string       `json:"name"`
	SlotDurationMinutes        int          `json:"slot_duration_minutes"`
	BreakBetweenSlotsMinutes   int          `json:"break_between_slots_minutes"`
	MaxClientsPerSlot          int          `json:"max_clients_per_slot"`
	AllowedBookingIntervalDays int          `json:"allowed_booking_interval_days"`
	PublicHolidays             []Date       `json:"public_holidays"`
	ServiceDays                []ServiceDay `json:"service_days"`
	Breaks                     []Break      `json:"breaks"`
	BookedSlots                []BookedSlot `json:"booked_slots,omitempty"`
}

// Validate rejects configuration the slot math cannot work with.
// Several windows on the same weekday are allowed.
func (s Service) Validate() error {
	var errs []error
	if s.SlotDurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("slot duration must be positive, got %d", s.SlotDurationMinutes))
	}
	if s.BreakBetweenSlotsMinutes < 0 {
		errs = append(errs, fmt.Errorf("break between slots must not be negative, got %d", s.BreakBetweenSlotsMinutes))
	}
	if s.MaxClientsPerSlot <= 0 {
		errs = append(errs, fmt.Errorf("max clients per slot must be positive, got %d", s.MaxClientsPerSlot))
	}
	if s.AllowedBookingIntervalDays < 0 {
		errs = append(errs, fmt.Errorf("allowed booking interval must not be negative, got %d", s.AllowedBookingIntervalDays))
	}
	for i, d := range s.ServiceDays {
		if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
			errs = append(errs, fmt.Errorf("service day %d: weekday %d out of range", i, d.Weekday))
		}
		if err := d.Window().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("service day %d: %w", i, err))
		}
	}
	for i, b := range s.Breaks {
		if err := b.Window().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("break %d: %w", i, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidService, s.ID, errors.Join(errs...))
}

// IsHoliday reports whether d is one of the service's public holidays.
func (s Service) IsHoliday(d Date) bool {
	for _, h := range s.PublicHolidays {
		if h == d {
			return true
		}
	}
	return false
}

// BookedOn returns the bookings that fall on d, preserving order.
func (s Service) BookedOn(d Date) []BookedSlot {
	var out []BookedSlot
	for _, b := range s.BookedSlots {
		if b.Date == d {
			out = append(out, b)
		}
	}
	return out
}
