package vtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_Constructors(t *testing.T) {
	assert.Equal(t, Duration(1), FromMicros(1))
	assert.Equal(t, Duration(1_000), FromMillis(1))
	assert.Equal(t, Duration(1_000_000), FromSeconds(1))
	assert.Equal(t, Duration(60_000_000), FromMinutes(1))
	assert.Equal(t, Duration(3_600_000_000), FromHours(1))
	assert.Equal(t, Duration(86_400_000_000), FromDays(1))
}

func TestDuration_RoundTrip(t *testing.T) {
	d := FromHours(2) + FromMinutes(30) + FromSeconds(15)
	assert.Equal(t, uint64(2), d.ToHours())
	assert.Equal(t, uint64(150), d.ToMinutes())
	assert.Equal(t, uint64(9015), d.ToSeconds())
	assert.InDelta(t, 9015.0, d.AsSecondsFloat(), 0.001)
}

func TestDuration_IsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, FromMicros(1).IsZero())
}

func TestTime_AddSub(t *testing.T) {
	start := Start
	later := start.Add(FromSeconds(5))
	assert.Equal(t, FromSeconds(5), later.Sub(start))
}

func TestTime_SubUnderflowPanics(t *testing.T) {
	early := Start
	later := early.Add(FromSeconds(1))
	assert.Panics(t, func() {
		_ = early.Sub(later)
	})
}

func TestTime_String(t *testing.T) {
	tm := TimeFromSeconds(3723) // 1h 02min 03s
	require.Contains(t, tm.String(), "01h")
	require.Contains(t, tm.String(), "02min")
	require.Contains(t, tm.String(), "03s")
}

func TestBandwidthDelayFormula(t *testing.T) {
	// 3 MiB at 24 Mbit/s should take exactly 1 second, per the original
	// simulator's reference scenario.
	size := uint64(3 * 1024 * 1024)
	bandwidth := uint64(24)
	micros := (size * 8 * 1_000_000) / (bandwidth * 1024 * 1024)
	assert.Equal(t, FromSeconds(1), FromMicros(micros))
}
