package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func slot(d int, start, end string) Slot {
	return Slot{StartDate: day(d), EndDate: day(d), StartTime: start, EndTime: end}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy("conservative")
	require.NoError(t, err)
	require.Equal(t, PolicyConservative, p)

	_, err = ParsePolicy("lenient")
	require.Error(t, err)
}

func TestValidClock(t *testing.T) {
	for _, ok := range []string{"00:00", "09:30", "23:59"} {
		require.True(t, ValidClock(ok), ok)
	}
	for _, bad := range []string{"24:00", "9:30", "12:60", "12:5", "noon", ""} {
		require.False(t, ValidClock(bad), bad)
	}
}

func TestSlotValidate(t *testing.T) {
	require.NoError(t, slot(10, "10:00", "11:00").Validate())
	require.Error(t, slot(10, "11:00", "10:00").Validate())
	require.Error(t, slot(10, "10:00", "10:00").Validate())
	require.Error(t, slot(10, "10am", "11:00").Validate())

	// Multi-day slots can run start clock > end clock.
	multi := Slot{StartDate: day(10), EndDate: day(12), StartTime: "18:00", EndTime: "09:00"}
	require.NoError(t, multi.Validate())
}

func TestConflicts_Strict(t *testing.T) {
	base := slot(10, "10:00", "11:00")

	require.True(t, Conflicts(base, slot(10, "10:30", "11:30"), PolicyStrict))
	require.True(t, Conflicts(base, slot(10, "09:00", "12:00"), PolicyStrict)) // containment
	require.True(t, Conflicts(base, slot(10, "10:00", "11:00"), PolicyStrict)) // identical

	// Back-to-back slots do not conflict.
	require.False(t, Conflicts(base, slot(10, "11:00", "12:00"), PolicyStrict))
	require.False(t, Conflicts(base, slot(10, "09:00", "10:00"), PolicyStrict))

	// Different days do not conflict.
	require.False(t, Conflicts(base, slot(11, "10:00", "11:00"), PolicyStrict))
}

func TestConflicts_Conservative(t *testing.T) {
	base := slot(10, "10:00", "11:00")

	// Real overlaps still conflict.
	require.True(t, Conflicts(base, slot(10, "10:30", "11:30"), PolicyConservative))

	// The legacy predicate also rejects back-to-back and even disjoint
	// same-day slots.
	require.True(t, Conflicts(base, slot(10, "11:00", "12:00"), PolicyConservative))
	require.True(t, Conflicts(base, slot(10, "14:00", "15:00"), PolicyConservative))
}

func TestConflicts_PolicyDivergence(t *testing.T) {
	// The canonical case the two policies disagree on: adjacent slots.
	a := slot(10, "10:00", "11:00")
	b := slot(10, "11:00", "12:00")

	require.False(t, Conflicts(a, b, PolicyStrict))
	require.True(t, Conflicts(a, b, PolicyConservative))
}

func TestSlotInstants(t *testing.T) {
	s := Slot{StartDate: day(10), EndDate: day(11), StartTime: "09:15", EndTime: "17:45"}
	require.Equal(t, time.Date(2026, time.March, 10, 9, 15, 0, 0, time.UTC), s.Start())
	require.Equal(t, time.Date(2026, time.March, 11, 17, 45, 0, 0, time.UTC), s.End())
}
