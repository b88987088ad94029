package booking

import (
	"context"
	"errors"
	"time"

	"weekstay/internal/domain/house"
	"weekstay/internal/domain/shared/events"
	"weekstay/internal/domain/user"
)

var (
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrAlreadyCancelled = errors.New("booking: already cancelled")
	ErrDateConflict     = errors.New("booking: dates are not available")
)

type BookingID string

type Status string

const (
	// StatusPending is declared in the schema but never assigned by any code
	// path today; bookings are confirmed on creation. Kept for a future
	// approval flow.
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking couples a renter to a house for one policy-valid stay window.
// Dates are immutable once created; the only mutation is the flip to
// cancelled.
type Booking struct {
	ID        BookingID
	HouseID   house.HouseID
	RenterID  user.ID
	Window    Window
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// ByIDForRenter scopes the lookup to the renter for self-service
	// cancellation; a booking owned by someone else reads as not found.
	ByIDForRenter(ctx context.Context, id BookingID, renterID user.ID) (*Booking, error)
	// AnyActiveOverlap reports whether a non-cancelled booking for the house
	// overlaps the window.
	AnyActiveOverlap(ctx context.Context, houseID house.HouseID, w Window) (bool, error)
	Insert(ctx context.Context, b *Booking) error
	Save(ctx context.Context, b *Booking) error
	ListByHouseActive(ctx context.Context, houseID house.HouseID) ([]*Booking, error)
	ListByRenter(ctx context.Context, renterID user.ID) ([]*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
	Delete(ctx context.Context, id BookingID) error
	// DeleteByHouse removes every booking for the house. Used when an
	// administrator deletes the house itself.
	DeleteByHouse(ctx context.Context, houseID house.HouseID) error
	// AnyEndingAfter reports whether the house has a booking whose window has
	// not ended by the given instant.
	AnyEndingAfter(ctx context.Context, houseID house.HouseID, t time.Time) (bool, error)
}

type CreateParams struct {
	ID        BookingID
	HouseID   house.HouseID
	RenterID  user.ID
	Window    Window
	CreatedAt time.Time
}

// NewBooking builds a confirmed booking. The window must already be
// normalized; NewBooking re-checks only the structural invariant.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.ID == "" {
		return nil, errors.New("booking: id required")
	}
	if params.HouseID == "" {
		return nil, errors.New("booking: house id required")
	}
	if params.RenterID == "" {
		return nil, errors.New("booking: renter id required")
	}
	if !params.Window.CheckOut.After(params.Window.CheckIn) {
		return nil, ErrWindowInverted
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		HouseID:   params.HouseID,
		RenterID:  params.RenterID,
		Window:    params.Window,
		Status:    StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(Confirmed{BookingID: b.ID, HouseID: b.HouseID, RenterID: b.RenterID, Window: b.Window, At: now})
	return b, nil
}

// Cancel flips the booking to cancelled. Cancelled is terminal; a second
// cancel fails so credit refunds cannot be applied twice.
func (b *Booking) Cancel(now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(Cancelled{BookingID: b.ID, HouseID: b.HouseID, RenterID: b.RenterID, Window: b.Window, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Active() bool {
	return b.Status != StatusCancelled
}
