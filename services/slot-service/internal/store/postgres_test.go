package store

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Catalog = (*Postgres)(nil)

func TestServiceDayFromRow(t *testing.T) {
	tests := []struct {
		name       string
		weekday    int16
		start, end int
		want       model.ServiceDay
		wantErr    bool
	}{
		{
			name: "monday morning", weekday: 1, start: 540, end: 720,
			want: model.ServiceDay{Weekday: time.Monday, Start: timeofday.MustNew(9, 0), End: timeofday.MustNew(12, 0)},
		},
		{name: "end past midnight", weekday: 1, start: 540, end: 1440, wantErr: true},
		{name: "negative start", weekday: 1, start: -1, end: 60, wantErr: true},
		{name: "weekday out of range", weekday: 7, start: 0, end: 60, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serviceDayFromRow(tt.weekday, tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBreakFromRow(t *testing.T) {
	b, err := breakFromRow(600, 630)
	require.NoError(t, err)
	assert.Equal(t, model.Break{Start: timeofday.MustNew(10, 0), End: timeofday.MustNew(10, 30)}, b)

	_, err = breakFromRow(600, 2000)
	assert.ErrorIs(t, err, timeofday.ErrInvalid)
}

func TestBookedSlotFromRow(t *testing.T) {
	day := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	b, err := bookedSlotFromRow("b-1", day, 570, []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, model.BookedSlot{
		ID:        "b-1",
		Date:      model.Date{Year: 2026, Month: time.October, Day: 19},
		StartTime: timeofday.MustNew(9, 30),
		Users:     []string{"alice"},
	}, b)

	_, err = bookedSlotFromRow("b-2", day, 1440, nil)
	assert.ErrorIs(t, err, timeofday.ErrInvalid)
}
