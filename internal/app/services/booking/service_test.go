package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingsvc "weekstay/internal/app/services/booking"
	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
	"weekstay/internal/infra/storage/memory"
)

type fixture struct {
	svc      *bookingsvc.Service
	bookings *memory.BookingRepository
	houses   *memory.HouseRepository
	users    *memory.UserRepository
	outbox   *memory.Outbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings: memory.NewBookingRepository(),
		houses:   memory.NewHouseRepository(),
		users:    memory.NewUserRepository(),
		outbox:   memory.NewOutbox(),
	}
	f.svc = &bookingsvc.Service{
		Bookings: f.bookings,
		Houses:   f.houses,
		Users:    f.users,
		Outbox:   f.outbox,
	}
	return f
}

func (f *fixture) addHouse(t *testing.T, name string) domainhouse.HouseID {
	t.Helper()
	h, err := domainhouse.NewHouse(domainhouse.CreateParams{
		ID:   domainhouse.HouseID("house-" + name),
		Name: name,
	})
	require.NoError(t, err)
	require.NoError(t, f.houses.Save(context.Background(), h))
	return h.ID
}

func (f *fixture) addUser(t *testing.T, username string, role domainuser.Role, credits int) domainuser.ID {
	t.Helper()
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID("user-" + username),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Credits:      credits,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
	return u.ID
}

func (f *fixture) credits(t *testing.T, id domainuser.ID) int {
	t.Helper()
	u, err := f.users.ByID(context.Background(), id)
	require.NoError(t, err)
	return u.Credits
}

// 2024-06-04 is a Tuesday, 2024-06-10 the following Monday.
var (
	tueJun4  = time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC)
	monJun10 = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	tueJun11 = time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC)
	monJun17 = time.Date(2024, time.June, 17, 0, 0, 0, 0, time.UTC)
)

func TestCreateDebitsOneCreditAndConfirms(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 2)

	b, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)

	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
	assert.Equal(t, tueJun4, b.Window.CheckIn)
	assert.Equal(t, tueJun11, b.Window.CheckOut)
	assert.Equal(t, 1, f.credits(t, renterID))

	records := f.outbox.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "booking.confirmed", records[0].Name)
	assert.Equal(t, string(b.ID), records[0].Aggregate)
}

func TestCreateNormalizesIntraDayTimestamps(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 1)

	b, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun4.Add(15*time.Hour + 30*time.Minute),
		RawEnd:   monJun10.Add(9 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, tueJun4, b.Window.CheckIn)
	assert.Equal(t, tueJun11, b.Window.CheckOut)
}

func TestCreateRejectsInvalidWindows(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 5)

	cases := map[string]struct {
		start, end time.Time
	}{
		"wrong check-in weekday":  {start: tueJun4.Add(24 * time.Hour), end: tueJun11},
		"wrong check-out weekday": {start: tueJun4, end: monJun10.Add(-24 * time.Hour)},
		"two weeks":               {start: tueJun4, end: monJun17},
		"inverted":                {start: tueJun11, end: monJun10.Add(-7 * 24 * time.Hour)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
				HouseID:  houseID,
				RenterID: renterID,
				RawStart: tc.start,
				RawEnd:   tc.end,
			})
			assert.ErrorIs(t, err, domainbooking.ErrInvalidWindow)
			assert.Equal(t, 5, f.credits(t, renterID), "invalid window must not charge")
		})
	}
}

func TestCreateRejectsConflictAndRefundsDebit(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	aliceID := f.addUser(t, "alice", domainuser.RoleRegular, 2)
	bobID := f.addUser(t, "bob", domainuser.RoleRegular, 2)

	_, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: aliceID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: bobID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	assert.ErrorIs(t, err, domainbooking.ErrDateConflict)
	assert.Equal(t, 2, f.credits(t, bobID), "failed booking must leave the balance unchanged")
}

func TestCreateAllowsBackToBackWeeks(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 2)

	_, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun11,
		RawEnd:   monJun17,
	})
	require.NoError(t, err, "the following week starts the day the previous one ends")
	assert.Equal(t, 0, f.credits(t, renterID))
}

func TestCreateChecksCreditsBeforeAvailability(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	aliceID := f.addUser(t, "alice", domainuser.RoleRegular, 1)
	brokeID := f.addUser(t, "broke", domainuser.RoleRegular, 0)

	_, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: aliceID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)

	// The same dates also conflict, but the credit failure wins.
	_, err = f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: brokeID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	assert.ErrorIs(t, err, domainuser.ErrInsufficientCredits)
}

func TestCreateAdminBypassesCredits(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	adminID := f.addUser(t, "root", domainuser.RoleAdmin, 0)

	b, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: adminID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
	assert.Equal(t, 0, f.credits(t, adminID))
}

func TestCancelRefundsAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 2)

	b, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.credits(t, renterID))

	cancelled, err := f.svc.Cancel(context.Background(), b.ID, renterID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, cancelled.Status)
	assert.Equal(t, 2, f.credits(t, renterID))

	_, err = f.svc.Cancel(context.Background(), b.ID, renterID)
	assert.ErrorIs(t, err, domainbooking.ErrAlreadyCancelled)
	assert.Equal(t, 2, f.credits(t, renterID), "a second cancel must not refund again")

	records := f.outbox.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "booking.cancelled", records[1].Name)
}

func TestCancelIsScopedToTheOwner(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	aliceID := f.addUser(t, "alice", domainuser.RoleRegular, 1)
	bobID := f.addUser(t, "bob", domainuser.RoleRegular, 1)

	b, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: aliceID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), b.ID, bobID)
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Equal(t, 1, f.credits(t, bobID))
}

func TestCancelledWeekBecomesAvailableAgain(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	aliceID := f.addUser(t, "alice", domainuser.RoleRegular, 1)
	bobID := f.addUser(t, "bob", domainuser.RoleRegular, 1)

	b, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: aliceID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), b.ID, aliceID)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: bobID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)
}

func TestListForRenterCarriesHouseNamesSorted(t *testing.T) {
	f := newFixture(t)
	seasideID := f.addHouse(t, "seaside")
	cabinID := f.addHouse(t, "cabin")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 2)

	_, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  cabinID,
		RenterID: renterID,
		RawStart: tueJun11,
		RawEnd:   monJun17,
	})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  seasideID,
		RenterID: renterID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)

	items, err := f.svc.ListForRenter(context.Background(), renterID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "seaside", items[0].HouseName)
	assert.Equal(t, "cabin", items[1].HouseName)
	assert.True(t, items[0].Booking.Window.CheckIn.Before(items[1].Booking.Window.CheckIn))
}

func TestListForHouseOmitsCancelled(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 2)

	kept, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)
	gone, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun11,
		RawEnd:   monJun17,
	})
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), gone.ID, renterID)
	require.NoError(t, err)

	bookings, err := f.svc.ListForHouse(context.Background(), houseID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, kept.ID, bookings[0].ID)
}

func TestAdminDeleteRemovesWithoutRefund(t *testing.T) {
	f := newFixture(t)
	houseID := f.addHouse(t, "seaside")
	renterID := f.addUser(t, "alice", domainuser.RoleRegular, 1)

	b, err := f.svc.Create(context.Background(), bookingsvc.CreateParams{
		HouseID:  houseID,
		RenterID: renterID,
		RawStart: tueJun4,
		RawEnd:   monJun10,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), b.ID))
	assert.Equal(t, 0, f.credits(t, renterID), "hard delete is an override, not a cancellation")

	err = f.svc.Delete(context.Background(), b.ID)
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}
