// Package booking decides whether a requested slot may be booked and records it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/store"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Request struct {
	Date      model.Date
	SlotStart timeofday.TimeOfDay
	Users     []string
}

// Store is the persistence the validator needs. RecordBooking must refuse a second booking of
// the same (service, date, start) with store.ErrSlotTaken.
type Store interface {
	GetService(ctx context.Context, id string) (model.Service, error)
	RecordBooking(ctx context.Context, serviceID string, slot model.BookedSlot) error
}

// Invalidator is told about every committed booking, e.g. to drop cached availability.
type Invalidator interface {
	Invalidate(ctx context.Context, serviceID string) error
}

// Check applies the booking rules to svc in order: lead time, party size, then slot
// availability. Dates are read as midnight in loc.
func Check(svc model.Service, req Request, now time.Time, loc *time.Location) (model.AvailableSlot, error) {
	if ahead := DaysAhead(req.Date, now, loc); ahead > svc.AllowedBookingIntervalDays {
		return model.AvailableSlot{}, reject(TooFarAhead,
			"cannot book more than %d days ahead", svc.AllowedBookingIntervalDays)
	}
	if len(req.Users) > svc.MaxClientsPerSlot {
		return model.AvailableSlot{}, reject(PartyTooLarge,
			"cannot book for more than %d clients", svc.MaxClientsPerSlot)
	}
	slot, ok := availability.Lookup(svc, req.Date, req.SlotStart)
	if !ok {
		return model.AvailableSlot{}, reject(SlotUnavailable,
			"no available slot at %s on %s", req.SlotStart, req.Date)
	}
	return slot, nil
}

// DaysAhead counts the whole 24h periods from now until the start of date, truncated toward zero.
func DaysAhead(date model.Date, now time.Time, loc *time.Location) int {
	return int(date.At(timeofday.TimeOfDay{}, loc).Sub(now) / (24 * time.Hour))
}

type Validator struct {
	store       Store
	invalidator Invalidator
	logger      *slog.Logger
	loc         *time.Location
	now         func() time.Time
	tracer      trace.Tracer
}

type Option func(*Validator)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

func WithInvalidator(inv Invalidator) Option {
	return func(v *Validator) { v.invalidator = inv }
}

// NewValidator evaluates lead time against dates in loc, the single reference zone.
func NewValidator(st Store, logger *slog.Logger, loc *time.Location, opts ...Option) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	v := &Validator{
		store:  st,
		logger: logger,
		loc:    loc,
		now:    time.Now,
		tracer: otel.Tracer("slot-service/booking"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Today is the current calendar date in the reference zone.
func (v *Validator) Today() model.Date {
	return model.DateOf(v.now().In(v.loc))
}

// Book checks req against the current state of the service and records it.
// Business refusals come back as *Rejection; store.ErrNotFound and storage failures are
// returned wrapped. A failed commit is not retried.
func (v *Validator) Book(ctx context.Context, serviceID string, req Request) (model.BookedSlot, error) {
	ctx, span := v.tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.String("service.id", serviceID),
		attribute.String("booking.date", req.Date.String()),
		attribute.String("booking.start", req.SlotStart.String()),
		attribute.Int("booking.party_size", len(req.Users)),
	))
	defer span.End()

	booked, err := v.book(ctx, serviceID, req)
	if err != nil {
		if r, ok := AsRejection(err); ok {
			span.SetAttributes(attribute.String("booking.rejection", string(r.Kind)))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return model.BookedSlot{}, err
	}
	span.SetAttributes(attribute.String("booking.id", booked.ID))
	return booked, nil
}

func (v *Validator) book(ctx context.Context, serviceID string, req Request) (model.BookedSlot, error) {
	svc, err := v.store.GetService(ctx, serviceID)
	if err != nil {
		return model.BookedSlot{}, fmt.Errorf("load service %s: %w", serviceID, err)
	}

	slot, err := Check(svc, req, v.now(), v.loc)
	if err != nil {
		v.logger.Info("booking rejected", "service_id", serviceID, "date", req.Date.String(),
			"start_time", req.SlotStart.String(), "reason", err.Error())
		return model.BookedSlot{}, err
	}

	booked := model.BookedSlot{
		ID:        uuid.NewString(),
		Date:      req.Date,
		StartTime: slot.Start,
		Users:     append([]string(nil), req.Users...),
	}
	if err := v.store.RecordBooking(ctx, serviceID, booked); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			// Lost a race with a concurrent booking that committed after our availability read.
			return model.BookedSlot{}, reject(SlotUnavailable,
				"slot at %s on %s was just taken", req.SlotStart, req.Date)
		}
		return model.BookedSlot{}, fmt.Errorf("record booking: %w", err)
	}

	v.logger.Info("slot booked", "service_id", serviceID, "booking_id", booked.ID,
		"date", booked.Date.String(), "start_time", booked.StartTime.String(), "users", len(booked.Users))

	if v.invalidator != nil {
		if err := v.invalidator.Invalidate(ctx, serviceID); err != nil {
			v.logger.Warn("availability cache invalidation failed", "service_id", serviceID, "err", err)
		}
	}
	return booked, nil
}
