package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekstay/internal/domain/booking"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeWindow(t *testing.T) {
	policy := booking.DefaultWeekPolicy()

	t.Run("valid tuesday to monday week", func(t *testing.T) {
		w, err := booking.NormalizeWindow(day(2024, time.June, 4), day(2024, time.June, 10), policy)
		require.NoError(t, err)
		assert.Equal(t, day(2024, time.June, 4), w.CheckIn)
		assert.Equal(t, day(2024, time.June, 11), w.CheckOut)
		assert.Equal(t, 1, w.Weeks(policy))
	})

	t.Run("time of day is discarded", func(t *testing.T) {
		start := time.Date(2024, time.June, 4, 15, 30, 0, 0, time.UTC)
		end := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
		w, err := booking.NormalizeWindow(start, end, policy)
		require.NoError(t, err)
		assert.Equal(t, day(2024, time.June, 4), w.CheckIn)
		assert.Equal(t, day(2024, time.June, 11), w.CheckOut)
	})

	t.Run("non-UTC inputs are anchored to UTC days", func(t *testing.T) {
		loc := time.FixedZone("UTC+5", 5*3600)
		start := time.Date(2024, time.June, 4, 3, 0, 0, 0, loc) // still June 3 in UTC
		_, err := booking.NormalizeWindow(start, day(2024, time.June, 10), policy)
		require.ErrorIs(t, err, booking.ErrBadCheckInDay)
	})

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  error
	}{
		{
			name:  "end before start",
			start: day(2024, time.June, 11),
			end:   day(2024, time.June, 4),
			want:  booking.ErrWindowInverted,
		},
		{
			name:  "check-in not on tuesday",
			start: day(2024, time.June, 5), // Wednesday
			end:   day(2024, time.June, 10),
			want:  booking.ErrBadCheckInDay,
		},
		{
			name:  "check-out not on monday",
			start: day(2024, time.June, 4),
			end:   day(2024, time.June, 9), // Sunday
			want:  booking.ErrBadCheckOutDay,
		},
		{
			name:  "two week span",
			start: day(2024, time.June, 4),
			end:   day(2024, time.June, 17), // Monday, but 13 days out
			want:  booking.ErrNotExactlyWeeks,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := booking.NormalizeWindow(tc.start, tc.end, policy)
			require.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, booking.ErrInvalidWindow)
		})
	}

	t.Run("policy weekdays are configurable", func(t *testing.T) {
		saturdayPolicy := booking.WeekPolicy{
			CheckInWeekday:  time.Saturday,
			CheckOutWeekday: time.Friday,
			WeekLength:      7 * 24 * time.Hour,
		}
		w, err := booking.NormalizeWindow(day(2024, time.June, 1), day(2024, time.June, 7), saturdayPolicy)
		require.NoError(t, err)
		assert.Equal(t, day(2024, time.June, 1), w.CheckIn)

		_, err = booking.NormalizeWindow(day(2024, time.June, 4), day(2024, time.June, 10), saturdayPolicy)
		require.ErrorIs(t, err, booking.ErrBadCheckInDay)
	})
}

func TestWindowOverlaps(t *testing.T) {
	base := booking.Window{CheckIn: day(2024, time.June, 4), CheckOut: day(2024, time.June, 11)}

	cases := []struct {
		name  string
		other booking.Window
		want  bool
	}{
		{
			name:  "identical window",
			other: base,
			want:  true,
		},
		{
			name:  "partial overlap from the middle",
			other: booking.Window{CheckIn: day(2024, time.June, 8), CheckOut: day(2024, time.June, 18)},
			want:  true,
		},
		{
			name:  "containing window",
			other: booking.Window{CheckIn: day(2024, time.June, 1), CheckOut: day(2024, time.June, 20)},
			want:  true,
		},
		{
			name:  "back to back is not a conflict",
			other: booking.Window{CheckIn: day(2024, time.June, 11), CheckOut: day(2024, time.June, 18)},
			want:  false,
		},
		{
			name:  "earlier disjoint week",
			other: booking.Window{CheckIn: day(2024, time.May, 28), CheckOut: day(2024, time.June, 4)},
			want:  false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestWindowWeeks(t *testing.T) {
	policy := booking.DefaultWeekPolicy()

	oneWeek := booking.Window{CheckIn: day(2024, time.June, 4), CheckOut: day(2024, time.June, 11)}
	assert.Equal(t, 1, oneWeek.Weeks(policy))

	// A longer stored window still rounds up, matching the refund quirk of
	// recomputing from the stored dates.
	nineDays := booking.Window{CheckIn: day(2024, time.June, 4), CheckOut: day(2024, time.June, 13)}
	assert.Equal(t, 2, nineDays.Weeks(policy))

	empty := booking.Window{CheckIn: day(2024, time.June, 4), CheckOut: day(2024, time.June, 4)}
	assert.Equal(t, 0, empty.Weeks(policy))
}
