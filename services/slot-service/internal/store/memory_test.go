package store

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func service(id string) model.Service {
	return model.Service{
		ID:                         id,
		SlotDurationMinutes:        30,
		MaxClientsPerSlot:          1,
		AllowedBookingIntervalDays: 7,
		ServiceDays: []model.ServiceDay{
			{Weekday: time.Monday, Start: timeofday.MustNew(9, 0), End: timeofday.MustNew(12, 0)},
		},
	}
}

func TestMemory_PreservesCatalogOrder(t *testing.T) {
	m := NewMemory(service("b"), service("a"))
	created, err := m.CreateService(context.Background(), service(""))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	all, err := m.GetAllServices(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", created.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestMemory_GetServiceNotFound(t *testing.T) {
	_, err := NewMemory().GetService(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_RecordBookingRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(service("a"))
	day := model.Date{Year: 2026, Month: time.October, Day: 19}
	slot := model.BookedSlot{ID: "1", Date: day, StartTime: timeofday.MustNew(9, 30), Users: []string{"x"}}

	require.NoError(t, m.RecordBooking(ctx, "a", slot))
	slot.ID = "2"
	assert.ErrorIs(t, m.RecordBooking(ctx, "a", slot), ErrSlotTaken)

	slot.Date = day.AddDays(7)
	require.NoError(t, m.RecordBooking(ctx, "a", slot))
	assert.ErrorIs(t, m.RecordBooking(ctx, "zzz", slot), ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(service("a"))
	users := []string{"x"}
	require.NoError(t, m.RecordBooking(ctx, "a", model.BookedSlot{
		ID: "1", Date: model.Date{Year: 2026, Month: time.October, Day: 19}, StartTime: timeofday.MustNew(9, 0), Users: users,
	}))
	users[0] = "mutated"

	got, err := m.GetService(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", got.BookedSlots[0].Users[0])

	got.ServiceDays[0].Weekday = time.Sunday
	again, err := m.GetService(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, again.ServiceDays[0].Weekday)
}

func TestMemory_CreateServiceValidates(t *testing.T) {
	bad := service("bad")
	bad.SlotDurationMinutes = 0
	_, err := NewMemory().CreateService(context.Background(), bad)
	assert.ErrorIs(t, err, model.ErrInvalidService)
}
