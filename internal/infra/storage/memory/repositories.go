package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	"weekstay/internal/domain/shared/events"
	domainuser "weekstay/internal/domain/user"
)

// BookingRepository is an in-memory implementation for tests and demos. It
// mirrors the Mongo repository's behavior, including the duplicate-window
// rejection the unique index provides there.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items: make(map[domainbooking.BookingID]*domainbooking.Booking),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) ByIDForRenter(ctx context.Context, id domainbooking.BookingID, renterID domainuser.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok || b.RenterID != renterID {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) AnyActiveOverlap(ctx context.Context, houseID domainhouse.HouseID, w domainbooking.Window) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.anyActiveOverlapLocked(houseID, w), nil
}

func (r *BookingRepository) anyActiveOverlapLocked(houseID domainhouse.HouseID, w domainbooking.Window) bool {
	for _, b := range r.items {
		if b.HouseID == houseID && b.Active() && b.Window.Overlaps(w) {
			return true
		}
	}
	return false
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.Active() && r.anyActiveOverlapLocked(b.HouseID, b.Window) {
		return domainbooking.ErrDateConflict
	}
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return domainbooking.ErrBookingNotFound
	}
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ListByHouseActive(ctx context.Context, houseID domainhouse.HouseID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.HouseID == houseID && b.Active() {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID domainuser.ID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.RenterID == renterID {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0, len(r.items))
	for _, b := range r.items {
		out = append(out, cloneBooking(b))
	}
	sortBookings(out)
	return out, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainbooking.ErrBookingNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *BookingRepository) DeleteByHouse(ctx context.Context, houseID domainhouse.HouseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.items {
		if b.HouseID == houseID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *BookingRepository) AnyEndingAfter(ctx context.Context, houseID domainhouse.HouseID, t time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.HouseID == houseID && b.Active() && b.Window.CheckOut.After(t) {
			return true, nil
		}
	}
	return false, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

func sortBookings(bs []*domainbooking.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		return bs[i].Window.CheckIn.Before(bs[j].Window.CheckIn)
	})
}

// HouseRepository is the in-memory counterpart of the Mongo house store.
type HouseRepository struct {
	mu    sync.RWMutex
	items map[domainhouse.HouseID]*domainhouse.House
}

func NewHouseRepository() *HouseRepository {
	return &HouseRepository{
		items: make(map[domainhouse.HouseID]*domainhouse.House),
	}
}

func (r *HouseRepository) ByID(ctx context.Context, id domainhouse.HouseID) (*domainhouse.House, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.items[id]
	if !ok {
		return nil, domainhouse.ErrNotFound
	}
	return cloneHouse(h), nil
}

func (r *HouseRepository) ByIDs(ctx context.Context, ids []domainhouse.HouseID) ([]*domainhouse.House, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainhouse.House, 0, len(ids))
	for _, id := range ids {
		if h, ok := r.items[id]; ok {
			out = append(out, cloneHouse(h))
		}
	}
	sortHouses(out)
	return out, nil
}

func (r *HouseRepository) Save(ctx context.Context, h *domainhouse.House) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[h.ID] = cloneHouse(h)
	return nil
}

func (r *HouseRepository) List(ctx context.Context) ([]*domainhouse.House, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainhouse.House, 0, len(r.items))
	for _, h := range r.items {
		out = append(out, cloneHouse(h))
	}
	sortHouses(out)
	return out, nil
}

func (r *HouseRepository) Delete(ctx context.Context, id domainhouse.HouseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainhouse.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func cloneHouse(h *domainhouse.House) *domainhouse.House {
	cp := *h
	cp.PhotoURLs = append([]string(nil), h.PhotoURLs...)
	return &cp
}

func sortHouses(hs []*domainhouse.House) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Name < hs[j].Name })
}
