package booking

import (
	"time"

	"weekstay/internal/domain/house"
	"weekstay/internal/domain/user"
)

type Confirmed struct {
	BookingID BookingID     `json:"booking_id"`
	HouseID   house.HouseID `json:"house_id"`
	RenterID  user.ID       `json:"renter_id"`
	Window    Window        `json:"window"`
	At        time.Time     `json:"at"`
}

func (e Confirmed) EventName() string     { return "booking.confirmed" }
func (e Confirmed) AggregateID() string   { return string(e.BookingID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	BookingID BookingID     `json:"booking_id"`
	HouseID   house.HouseID `json:"house_id"`
	RenterID  user.ID       `json:"renter_id"`
	Window    Window        `json:"window"`
	At        time.Time     `json:"at"`
}

func (e Cancelled) EventName() string     { return "booking.cancelled" }
func (e Cancelled) AggregateID() string   { return string(e.BookingID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }
