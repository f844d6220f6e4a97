package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

const bookedSlotKey = "booked_slots_service_date_start_key"

// Postgres is the durable Catalog. Bookings and their outbox events commit together.
type Postgres struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewPostgres(pool *db.Pool, ob *outbox.Repository) *Postgres {
	return &Postgres{pool: pool, outbox: ob}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (p *Postgres) GetAllServices(ctx context.Context) ([]model.Service, error) {
	return p.loadServices(ctx, `
		SELECT id::text, name, slot_duration_minutes, break_between_slots_minutes,
		       max_clients_per_slot, allowed_booking_interval_days
		FROM services
		ORDER BY created_at, id
	`)
}

func (p *Postgres) GetService(ctx context.Context, id string) (model.Service, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Service{}, ErrNotFound
	}
	services, err := p.loadServices(ctx, `
		SELECT id::text, name, slot_duration_minutes, break_between_slots_minutes,
		       max_clients_per_slot, allowed_booking_interval_days
		FROM services
		WHERE id = $1
	`, id)
	if err != nil {
		return model.Service{}, err
	}
	if len(services) == 0 {
		return model.Service{}, ErrNotFound
	}
	return services[0], nil
}

func (p *Postgres) loadServices(ctx context.Context, query string, args ...any) ([]model.Service, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	services, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Service, error) {
		var s model.Service
		err := row.Scan(&s.ID, &s.Name, &s.SlotDurationMinutes, &s.BreakBetweenSlotsMinutes,
			&s.MaxClientsPerSlot, &s.AllowedBookingIntervalDays)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan services: %w", err)
	}
	if len(services) == 0 {
		return nil, nil
	}

	ids := make([]string, len(services))
	byID := make(map[string]*model.Service, len(services))
	for i := range services {
		ids[i] = services[i].ID
		byID[services[i].ID] = &services[i]
	}
	if err := loadChildren(ctx, p.pool, ids, byID); err != nil {
		return nil, err
	}
	for _, s := range services {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return services, nil
}

func loadChildren(ctx context.Context, q querier, ids []string, byID map[string]*model.Service) error {
	err := scanEach(ctx, q, `
		SELECT service_id::text, weekday, start_minute, end_minute
		FROM service_days
		WHERE service_id = ANY($1::uuid[])
		ORDER BY service_id, weekday, start_minute
	`, ids, func(row pgx.Rows) error {
		var (
			id         string
			weekday    int16
			start, end int
		)
		if err := row.Scan(&id, &weekday, &start, &end); err != nil {
			return err
		}
		day, err := serviceDayFromRow(weekday, start, end)
		if err != nil {
			return fmt.Errorf("service day %s: %w", id, err)
		}
		s := byID[id]
		s.ServiceDays = append(s.ServiceDays, day)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load service days: %w", err)
	}

	err = scanEach(ctx, q, `
		SELECT service_id::text, start_minute, end_minute
		FROM service_breaks
		WHERE service_id = ANY($1::uuid[])
		ORDER BY service_id, id
	`, ids, func(row pgx.Rows) error {
		var (
			id         string
			start, end int
		)
		if err := row.Scan(&id, &start, &end); err != nil {
			return err
		}
		b, err := breakFromRow(start, end)
		if err != nil {
			return fmt.Errorf("break %s: %w", id, err)
		}
		s := byID[id]
		s.Breaks = append(s.Breaks, b)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load breaks: %w", err)
	}

	err = scanEach(ctx, q, `
		SELECT service_id::text, holiday
		FROM service_holidays
		WHERE service_id = ANY($1::uuid[])
		ORDER BY service_id, holiday
	`, ids, func(row pgx.Rows) error {
		var (
			id  string
			day time.Time
		)
		if err := row.Scan(&id, &day); err != nil {
			return err
		}
		s := byID[id]
		s.PublicHolidays = append(s.PublicHolidays, model.DateOf(day))
		return nil
	})
	if err != nil {
		return fmt.Errorf("load holidays: %w", err)
	}

	err = scanEach(ctx, q, `
		SELECT service_id::text, id::text, booking_date, start_minute, users
		FROM booked_slots
		WHERE service_id = ANY($1::uuid[])
		ORDER BY service_id, created_at, id
	`, ids, func(row pgx.Rows) error {
		var (
			id, bookingID string
			day           time.Time
			mins          int
			users         []string
		)
		if err := row.Scan(&id, &bookingID, &day, &mins, &users); err != nil {
			return err
		}
		b, err := bookedSlotFromRow(bookingID, day, mins, users)
		if err != nil {
			return fmt.Errorf("booked slot %s: %w", id, err)
		}
		s := byID[id]
		s.BookedSlots = append(s.BookedSlots, b)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load booked slots: %w", err)
	}
	return nil
}

func serviceDayFromRow(weekday int16, start, end int) (model.ServiceDay, error) {
	w, err := windowFromRow(start, end)
	if err != nil {
		return model.ServiceDay{}, err
	}
	if weekday < int16(time.Sunday) || weekday > int16(time.Saturday) {
		return model.ServiceDay{}, fmt.Errorf("weekday %d out of range", weekday)
	}
	return model.ServiceDay{Weekday: time.Weekday(weekday), Start: w.Start, End: w.End}, nil
}

func breakFromRow(start, end int) (model.Break, error) {
	w, err := windowFromRow(start, end)
	if err != nil {
		return model.Break{}, err
	}
	return model.Break{Start: w.Start, End: w.End}, nil
}

func bookedSlotFromRow(id string, day time.Time, startMinute int, users []string) (model.BookedSlot, error) {
	start, err := timeofday.FromMinutes(startMinute)
	if err != nil {
		return model.BookedSlot{}, err
	}
	return model.BookedSlot{ID: id, Date: model.DateOf(day), StartTime: start, Users: users}, nil
}

func windowFromRow(startMinute, endMinute int) (timeofday.Window, error) {
	start, err := timeofday.FromMinutes(startMinute)
	if err != nil {
		return timeofday.Window{}, err
	}
	end, err := timeofday.FromMinutes(endMinute)
	if err != nil {
		return timeofday.Window{}, err
	}
	return timeofday.Window{Start: start, End: end}, nil
}

func scanEach(ctx context.Context, q querier, query string, ids []string, fn func(pgx.Rows) error) error {
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (p *Postgres) RecordBooking(ctx context.Context, serviceID string, slot model.BookedSlot) error {
	if _, err := uuid.Parse(serviceID); err != nil {
		return ErrNotFound
	}
	evt, err := outbox.NewSlotBooked(serviceID, slot)
	if err != nil {
		return err
	}
	users := slot.Users
	if users == nil {
		users = []string{}
	}

	err = p.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO booked_slots (id, service_id, booking_date, start_minute, users)
			VALUES ($1, $2, $3, $4, $5)
		`, slot.ID, serviceID, slot.Date.Time(), slot.StartTime.Minutes(), users); err != nil {
			return err
		}
		return p.outbox.Insert(ctx, tx, evt)
	})
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, bookedSlotKey):
		return ErrSlotTaken
	case isForeignKeyViolation(err):
		return ErrNotFound
	default:
		return err
	}
}

func (p *Postgres) CreateService(ctx context.Context, svc model.Service) (model.Service, error) {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if err := svc.Validate(); err != nil {
		return model.Service{}, err
	}
	svc.BookedSlots = nil
	evt, err := outbox.NewServiceChanged(svc.ID)
	if err != nil {
		return model.Service{}, err
	}

	err = p.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, slot_duration_minutes, break_between_slots_minutes,
			                      max_clients_per_slot, allowed_booking_interval_days)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, svc.ID, svc.Name, svc.SlotDurationMinutes, svc.BreakBetweenSlotsMinutes,
			svc.MaxClientsPerSlot, svc.AllowedBookingIntervalDays); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, d := range svc.ServiceDays {
			batch.Queue(`INSERT INTO service_days (service_id, weekday, start_minute, end_minute) VALUES ($1, $2, $3, $4)`,
				svc.ID, int16(d.Weekday), d.Start.Minutes(), d.End.Minutes())
		}
		for _, b := range svc.Breaks {
			batch.Queue(`INSERT INTO service_breaks (service_id, start_minute, end_minute) VALUES ($1, $2, $3)`,
				svc.ID, b.Start.Minutes(), b.End.Minutes())
		}
		for _, h := range svc.PublicHolidays {
			batch.Queue(`INSERT INTO service_holidays (service_id, holiday) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				svc.ID, h.Time())
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
		}
		return p.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return model.Service{}, fmt.Errorf("create service: %w", err)
	}
	return svc, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

