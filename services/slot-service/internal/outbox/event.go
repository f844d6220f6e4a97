package outbox

import (
	"encoding/json"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateService    = "service"
	EventSlotBooked     = "booking.slot.booked.v1"
	EventServiceChanged = "catalog.service.changed.v1"
)

// SlotBooked is the payload of EventSlotBooked.
type SlotBooked struct {
	BookingID string              `json:"booking_id"`
	ServiceID string              `json:"service_id"`
	Date      model.Date          `json:"date"`
	StartTime timeofday.TimeOfDay `json:"start_time"`
	Users     []string            `json:"users"`
}

// ServiceChanged is the payload of EventServiceChanged.
type ServiceChanged struct {
	ServiceID string `json:"service_id"`
}

func NewSlotBooked(serviceID string, slot model.BookedSlot) (Event, error) {
	payload, err := json.Marshal(SlotBooked{
		BookingID: slot.ID,
		ServiceID: serviceID,
		Date:      slot.Date,
		StartTime: slot.StartTime,
		Users:     slot.Users,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateService,
		AggregateID:   serviceID,
		EventType:     EventSlotBooked,
		Payload:       payload,
	}, nil
}

func NewServiceChanged(serviceID string) (Event, error) {
	payload, err := json.Marshal(ServiceChanged{ServiceID: serviceID})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateService,
		AggregateID:   serviceID,
		EventType:     EventServiceChanged,
		Payload:       payload,
	}, nil
}
