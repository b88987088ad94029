package house_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	housesvc "weekstay/internal/app/services/house"
	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
	"weekstay/internal/infra/storage/memory"
)

type stubPhotoStore struct {
	keys []string
	fail bool
}

func (s *stubPhotoStore) Upload(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
	if s.fail {
		return "", errors.New("upload failed")
	}
	s.keys = append(s.keys, key)
	return "https://photos.example.com/" + key, nil
}

func newService(t *testing.T) (*housesvc.Service, *memory.HouseRepository, *memory.BookingRepository, *memory.UserRepository) {
	t.Helper()
	houses := memory.NewHouseRepository()
	bookings := memory.NewBookingRepository()
	users := memory.NewUserRepository()
	svc := &housesvc.Service{Houses: houses, Bookings: bookings, Users: users}
	return svc, houses, bookings, users
}

func addUser(t *testing.T, users *memory.UserRepository, username string, role domainuser.Role, assigned ...domainhouse.HouseID) domainuser.ID {
	t.Helper()
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID("user-" + username),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	})
	require.NoError(t, err)
	u.AssignedHouses = assigned
	require.NoError(t, users.Save(context.Background(), u))
	return u.ID
}

func TestCreateTrimsAndValidates(t *testing.T) {
	svc, _, _, _ := newService(t)

	h, err := svc.Create(context.Background(), housesvc.CreateParams{Name: "  seaside  ", Description: " by the shore "})
	require.NoError(t, err)
	assert.Equal(t, "seaside", h.Name)
	assert.Equal(t, "by the shore", h.Description)

	_, err = svc.Create(context.Background(), housesvc.CreateParams{Name: "   "})
	assert.ErrorIs(t, err, domainhouse.ErrNameRequired)
}

func TestListForScopesByRole(t *testing.T) {
	svc, _, _, users := newService(t)

	seaside, err := svc.Create(context.Background(), housesvc.CreateParams{Name: "seaside"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), housesvc.CreateParams{Name: "cabin"})
	require.NoError(t, err)

	adminID := addUser(t, users, "root", domainuser.RoleAdmin)
	aliceID := addUser(t, users, "alice", domainuser.RoleRegular, seaside.ID)
	bobID := addUser(t, users, "bob", domainuser.RoleRegular)

	all, err := svc.ListFor(context.Background(), adminID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assigned, err := svc.ListFor(context.Background(), aliceID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, seaside.ID, assigned[0].ID)

	none, err := svc.ListFor(context.Background(), bobID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteRefusedWhileBookingsRun(t *testing.T) {
	svc, houses, bookings, _ := newService(t)

	h, err := svc.Create(context.Background(), housesvc.CreateParams{Name: "seaside"})
	require.NoError(t, err)

	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:       "b1",
		HouseID:  h.ID,
		RenterID: "u1",
		Window:   domainbooking.Window{CheckIn: future, CheckOut: future.Add(7 * 24 * time.Hour)},
	})
	require.NoError(t, err)
	require.NoError(t, bookings.Insert(context.Background(), b))

	err = svc.Delete(context.Background(), h.ID)
	assert.ErrorIs(t, err, domainhouse.ErrActiveBookings)

	_, err = houses.ByID(context.Background(), h.ID)
	assert.NoError(t, err)
}

func TestDeleteRemovesHouseAndPastBookings(t *testing.T) {
	svc, houses, bookings, _ := newService(t)

	h, err := svc.Create(context.Background(), housesvc.CreateParams{Name: "seaside"})
	require.NoError(t, err)

	past := time.Now().UTC().Add(-30 * 24 * time.Hour)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:       "b1",
		HouseID:  h.ID,
		RenterID: "u1",
		Window:   domainbooking.Window{CheckIn: past, CheckOut: past.Add(7 * 24 * time.Hour)},
	})
	require.NoError(t, err)
	require.NoError(t, bookings.Insert(context.Background(), b))

	require.NoError(t, svc.Delete(context.Background(), h.ID))

	_, err = houses.ByID(context.Background(), h.ID)
	assert.ErrorIs(t, err, domainhouse.ErrNotFound)
	_, err = bookings.ByID(context.Background(), "b1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestAddPhotoAppendsURL(t *testing.T) {
	svc, _, _, _ := newService(t)
	store := &stubPhotoStore{}
	svc.Photos = store

	h, err := svc.Create(context.Background(), housesvc.CreateParams{Name: "seaside"})
	require.NoError(t, err)

	updated, err := svc.AddPhoto(context.Background(), h.ID, "front.jpg", strings.NewReader("img"), "image/jpeg")
	require.NoError(t, err)
	require.Len(t, updated.PhotoURLs, 1)
	assert.True(t, strings.HasPrefix(updated.PhotoURLs[0], "https://photos.example.com/houses/"))
	require.Len(t, store.keys, 1)
	assert.True(t, strings.HasSuffix(store.keys[0], ".jpg"))
}

func TestAddPhotoUploadFailureLeavesHouseUntouched(t *testing.T) {
	svc, houses, _, _ := newService(t)
	svc.Photos = &stubPhotoStore{fail: true}

	h, err := svc.Create(context.Background(), housesvc.CreateParams{Name: "seaside"})
	require.NoError(t, err)

	_, err = svc.AddPhoto(context.Background(), h.ID, "front.jpg", strings.NewReader("img"), "image/jpeg")
	require.Error(t, err)

	stored, err := houses.ByID(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PhotoURLs)
}
