// Package store persists services and their bookings.
package store

import (
	"context"
	"errors"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
)

var (
	ErrNotFound  = errors.New("service not found")
	ErrSlotTaken = errors.New("slot already booked")
)

// Catalog is the persistence collaborator of the slot engine.
type Catalog interface {
	// GetAllServices returns every service in a stable catalog order.
	GetAllServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	// RecordBooking appends slot to the service, failing with ErrSlotTaken when the
	// (date, start time) is already booked.
	RecordBooking(ctx context.Context, serviceID string, slot model.BookedSlot) error
	// CreateService stores a validated service and returns it with its assigned ID.
	CreateService(ctx context.Context, svc model.Service) (model.Service, error)
}
