package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bokari/pkg/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func slotKeys(slots []model.Slot) []string {
	keys := make([]string, len(slots))
	for i, s := range slots {
		keys[i] = s.Key()
	}
	return keys
}

func TestGenerateSpanExactFit(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	slots := gen.GenerateSpan(start, end, 60)
	assert.Equal(t, []string{
		"2025-03-10/09:00-10:00",
		"2025-03-10/10:00-11:00",
	}, slotKeys(slots))
}

func TestGenerateSpanDropsPartialTrailingSlot(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

	slots := gen.GenerateSpan(start, end, 60)
	assert.Equal(t, []string{"2025-03-10/09:00-10:00"}, slotKeys(slots))
}

func TestGenerateSpanSkipsPastSlots(t *testing.T) {
	// 09:30 on the day itself: the 09:00 slot has started and must not
	// be offered.
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	slots := gen.GenerateSpan(start, end, 60)
	assert.Equal(t, []string{"2025-03-10/10:00-11:00"}, slotKeys(slots))
}

func TestGenerateSpanSlotStartingExactlyNowIsExcluded(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	slots := gen.GenerateSpan(start, end, 60)
	assert.Equal(t, []string{"2025-03-10/10:00-11:00"}, slotKeys(slots))
}

func TestGenerateSpanDegenerateInputs(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Empty(t, gen.GenerateSpan(start, start, 60), "empty span")
	assert.Empty(t, gen.GenerateSpan(start, start.Add(-time.Hour), 60), "inverted span")
	assert.Empty(t, gen.GenerateSpan(start, start.Add(time.Hour), 0), "zero duration")
	assert.Empty(t, gen.GenerateSpan(start, start.Add(30*time.Minute), 60), "span shorter than one slot")
}

func TestGenerateOneOffDate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	window := model.AvailabilityWindow{
		Date:            "2025-03-10",
		StartTime:       "09:00",
		EndTime:         "11:00",
		SlotDurationMin: 60,
	}
	from := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	slots, err := gen.Generate(window, from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-10/09:00-10:00",
		"2025-03-10/10:00-11:00",
	}, slotKeys(slots))
}

func TestGenerateOneOffDateOutsideRange(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	window := model.AvailabilityWindow{
		Date:            "2025-03-10",
		StartTime:       "09:00",
		EndTime:         "11:00",
		SlotDurationMin: 60,
	}
	from := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC)

	slots, err := gen.Generate(window, from, to)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateClampsToRequestedRange(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	window := model.AvailabilityWindow{
		Date:            "2025-03-10",
		StartTime:       "09:00",
		EndTime:         "12:00",
		SlotDurationMin: 60,
	}
	// The range starts mid-window and ends before it does; only the slot
	// fully inside [from, to) survives, still on the window's grid.
	from := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	to := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	slots, err := gen.Generate(window, from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-10/10:00-11:00",
	}, slotKeys(slots))
}

func TestGenerateWeeklyRecurrence(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	window := model.AvailabilityWindow{
		RRule:           "FREQ=WEEKLY;BYDAY=MO",
		StartTime:       "09:00",
		EndTime:         "10:00",
		SlotDurationMin: 60,
	}
	// 2025-03-03 and 2025-03-10 are the Mondays in range.
	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	slots, err := gen.Generate(window, from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-03/09:00-10:00",
		"2025-03-10/09:00-10:00",
	}, slotKeys(slots))
}

func TestGenerateInvalidInputs(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(time.UTC, fixedClock(now))

	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := gen.Generate(model.AvailabilityWindow{StartTime: "09:00", EndTime: "10:00", SlotDurationMin: 60}, from, to)
	assert.Error(t, err, "window without date or recurrence rule")

	_, err = gen.Generate(model.AvailabilityWindow{RRule: "FREQ=NOPE", StartTime: "09:00", EndTime: "10:00", SlotDurationMin: 60}, from, to)
	assert.Error(t, err, "malformed recurrence rule")

	_, err = gen.Generate(model.AvailabilityWindow{Date: "2025-03-10", StartTime: "9am", EndTime: "10:00", SlotDurationMin: 60}, from, to)
	assert.Error(t, err, "malformed start time")
}
