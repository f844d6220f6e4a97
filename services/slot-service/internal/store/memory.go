package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
)

// Memory is a process-local Catalog for development and tests.
// It hands out copies, so callers never share slices with the store.
type Memory struct {
	mu       sync.RWMutex
	order    []string
	services map[string]model.Service
}

func NewMemory(services ...model.Service) *Memory {
	m := &Memory{services: map[string]model.Service{}}
	for _, s := range services {
		m.order = append(m.order, s.ID)
		m.services[s.ID] = clone(s)
	}
	return m
}

func (m *Memory) GetAllServices(_ context.Context) ([]model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Service, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clone(m.services[id]))
	}
	return out, nil
}

func (m *Memory) GetService(_ context.Context, id string) (model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.services[id]
	if !ok {
		return model.Service{}, ErrNotFound
	}
	return clone(s), nil
}

func (m *Memory) RecordBooking(_ context.Context, serviceID string, slot model.BookedSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.services[serviceID]
	if !ok {
		return ErrNotFound
	}
	for _, b := range s.BookedSlots {
		if b.Date == slot.Date && b.StartTime == slot.StartTime {
			return ErrSlotTaken
		}
	}
	slot.Users = slices.Clone(slot.Users)
	s.BookedSlots = append(s.BookedSlots, slot)
	m.services[serviceID] = s
	return nil
}

func (m *Memory) CreateService(_ context.Context, svc model.Service) (model.Service, error) {
	if err := svc.Validate(); err != nil {
		return model.Service{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	svc.BookedSlots = nil
	if _, exists := m.services[svc.ID]; !exists {
		m.order = append(m.order, svc.ID)
	}
	m.services[svc.ID] = clone(svc)
	return clone(svc), nil
}

func clone(s model.Service) model.Service {
	s.PublicHolidays = slices.Clone(s.PublicHolidays)
	s.ServiceDays = slices.Clone(s.ServiceDays)
	s.Breaks = slices.Clone(s.Breaks)
	booked := make([]model.BookedSlot, len(s.BookedSlots))
	for i, b := range s.BookedSlots {
		b.Users = slices.Clone(b.Users)
		booked[i] = b
	}
	if len(booked) == 0 {
		booked = nil
	}
	s.BookedSlots = booked
	return s
}

var _ Catalog = (*Memory)(nil)
