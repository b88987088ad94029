package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekstay/internal/domain/booking"
)

func validWindow(t *testing.T) booking.Window {
	t.Helper()
	w, err := booking.NormalizeWindow(day(2024, time.June, 4), day(2024, time.June, 10), booking.DefaultWeekPolicy())
	require.NoError(t, err)
	return w
}

func TestNewBooking(t *testing.T) {
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	b, err := booking.NewBooking(booking.CreateParams{
		ID:        "bk-1",
		HouseID:   "house-1",
		RenterID:  "user-1",
		Window:    validWindow(t),
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.True(t, b.Active())

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.confirmed", events[0].EventName())
	assert.Equal(t, "bk-1", events[0].AggregateID())
}

func TestNewBookingRejectsMissingFields(t *testing.T) {
	w := validWindow(t)
	_, err := booking.NewBooking(booking.CreateParams{HouseID: "h", RenterID: "u", Window: w})
	require.Error(t, err)
	_, err = booking.NewBooking(booking.CreateParams{ID: "b", RenterID: "u", Window: w})
	require.Error(t, err)
	_, err = booking.NewBooking(booking.CreateParams{ID: "b", HouseID: "h", Window: w})
	require.Error(t, err)
	_, err = booking.NewBooking(booking.CreateParams{ID: "b", HouseID: "h", RenterID: "u"})
	require.ErrorIs(t, err, booking.ErrWindowInverted)
}

func TestCancelIsTerminal(t *testing.T) {
	b, err := booking.NewBooking(booking.CreateParams{
		ID:        "bk-1",
		HouseID:   "house-1",
		RenterID:  "user-1",
		Window:    validWindow(t),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	b.ClearEvents()

	require.NoError(t, b.Cancel(time.Now()))
	assert.Equal(t, booking.StatusCancelled, b.Status)
	assert.False(t, b.Active())
	require.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, "booking.cancelled", b.PendingEvents()[0].EventName())

	b.ClearEvents()
	err = b.Cancel(time.Now())
	require.ErrorIs(t, err, booking.ErrAlreadyCancelled)
	assert.Empty(t, b.PendingEvents())
}
