package timeofday

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]string{
		"09:30": "09:30",
		"9:05":  "09:05",
		"00:00": "00:00",
		"23:59": "23:59",
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String())
	}

	for _, bad := range []string{"", "24:00", "12:60", "12", "12:5", "ab:cd", "123:00", "-1:00"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestAddWrapsWithinDay(t *testing.T) {
	assert.Equal(t, "10:15", MustNew(9, 45).Add(30).String())
	assert.Equal(t, "00:30", MustNew(23, 30).Add(60).String())
	assert.Equal(t, "09:00", MustNew(9, 0).Add(MinutesPerDay).String())
	assert.Equal(t, "09:00", MustNew(9, 0).Add(0).String())
}

func TestCompare(t *testing.T) {
	a, b := MustNew(9, 0), MustNew(9, 1)
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(MustNew(9, 0)))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
}

func TestWindowContains(t *testing.T) {
	day := Window{Start: MustNew(9, 0), End: MustNew(12, 0)}

	assert.True(t, day.Contains(Window{Start: MustNew(9, 0), End: MustNew(12, 0)}))
	assert.True(t, day.Contains(Window{Start: MustNew(11, 30), End: MustNew(12, 0)}))
	assert.False(t, day.Contains(Window{Start: MustNew(11, 45), End: MustNew(12, 15)}))
	assert.False(t, day.Contains(Window{Start: MustNew(8, 45), End: MustNew(9, 15)}))

	assert.True(t, day.ContainsPoint(MustNew(12, 0)))
	assert.False(t, day.ContainsPoint(MustNew(12, 1)))
	assert.Equal(t, 180, day.Minutes())
}

func TestNewWindowRejectsInverted(t *testing.T) {
	_, err := NewWindow(MustNew(12, 0), MustNew(9, 0))
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = NewWindow(MustNew(9, 0), MustNew(9, 0))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestJSON(t *testing.T) {
	w := Window{Start: MustNew(9, 0), End: MustNew(9, 30)}
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"09:00","end":"09:30"}`, string(data))

	var back Window
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, w, back)

	var bad TimeOfDay
	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`930`), &bad))
}
