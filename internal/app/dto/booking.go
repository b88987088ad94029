package dto

import (
	"time"

	bookingsvc "weekstay/internal/app/services/booking"
	domainbooking "weekstay/internal/domain/booking"
)

type BookingSummary struct {
	ID        string    `json:"id"`
	HouseID   string    `json:"house_id"`
	RenterID  string    `json:"renter_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type RenterBookingSummary struct {
	BookingSummary
	HouseName string `json:"house_name"`
}

type AdminBookingSummary struct {
	BookingSummary
	HouseName  string `json:"house_name"`
	RenterName string `json:"renter_name"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

type RenterBookingCollection struct {
	Items []RenterBookingSummary `json:"items"`
}

type AdminBookingCollection struct {
	Items []AdminBookingSummary `json:"items"`
}

func MapBookingSummary(b *domainbooking.Booking) BookingSummary {
	return BookingSummary{
		ID:        string(b.ID),
		HouseID:   string(b.HouseID),
		RenterID:  string(b.RenterID),
		CheckIn:   b.Window.CheckIn,
		CheckOut:  b.Window.CheckOut,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}

func MapRenterBookings(items []bookingsvc.RenterBooking) RenterBookingCollection {
	out := RenterBookingCollection{Items: make([]RenterBookingSummary, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, RenterBookingSummary{
			BookingSummary: MapBookingSummary(item.Booking),
			HouseName:      item.HouseName,
		})
	}
	return out
}

func MapAdminBookings(items []bookingsvc.AdminBooking) AdminBookingCollection {
	out := AdminBookingCollection{Items: make([]AdminBookingSummary, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, AdminBookingSummary{
			BookingSummary: MapBookingSummary(item.Booking),
			HouseName:      item.HouseName,
			RenterName:     item.RenterName,
		})
	}
	return out
}

func MapBookings(bookings []*domainbooking.Booking) BookingCollection {
	out := BookingCollection{Items: make([]BookingSummary, 0, len(bookings))}
	for _, b := range bookings {
		out.Items = append(out.Items, MapBookingSummary(b))
	}
	return out
}
