package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, time.September, 5)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-05"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d.Time))
}

func TestDateUnmarshal_RFC3339Fallback(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-09-05T14:30:00Z"`), &d))
	assert.Equal(t, "2026-09-05", d.String(), "time part is discarded")
}

func TestDateUnmarshal_Invalid(t *testing.T) {
	var d Date
	err := json.Unmarshal([]byte(`"05/09/2026"`), &d)
	assert.Error(t, err)
}

func TestDateScan(t *testing.T) {
	t.Run("time.Time", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan(time.Date(2026, 9, 5, 23, 59, 0, 0, time.UTC)))
		assert.Equal(t, "2026-09-05", d.String())
	})

	t.Run("bytes", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan([]byte("2026-09-05")))
		assert.Equal(t, "2026-09-05", d.String())
	})

	t.Run("nil leaves zero", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan(nil))
		assert.True(t, d.IsZero())
	})
}

func TestDateValue(t *testing.T) {
	v, err := NewDate(2026, time.September, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-09-05", v)
}

func TestDateBefore(t *testing.T) {
	a := NewDate(2026, time.September, 5)
	b := NewDate(2026, time.September, 6)
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a), "same day is not before")
}
