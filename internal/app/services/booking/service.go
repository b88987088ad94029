package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	appoutbox "weekstay/internal/app/outbox"
	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

var ErrServiceNotConfigured = errors.New("booking service: missing dependencies")

// Service orchestrates the booking lifecycle: window normalization, credit
// debit, availability arbitration, persistence, and the outbox hand-off for
// notifications.
type Service struct {
	Bookings domainbooking.Repository
	Houses   domainhouse.Repository
	Users    domainuser.Repository
	Outbox   appoutbox.Outbox
	Encoder  appoutbox.EventEncoder
	Policy   domainbooking.WeekPolicy
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

type CreateParams struct {
	HouseID  domainhouse.HouseID
	RenterID domainuser.ID
	RawStart time.Time
	RawEnd   time.Time
}

// Create books a house for the renter. Credits are charged before the
// availability check, matching the historical ordering: a broke user sees
// the credit error even when the dates also conflict. The debit is an atomic
// conditional decrement and is compensated if any later step fails.
func (s *Service) Create(ctx context.Context, params CreateParams) (*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	window, err := domainbooking.NormalizeWindow(params.RawStart, params.RawEnd, s.policy())
	if err != nil {
		return nil, err
	}
	renter, err := s.Users.ByID(ctx, params.RenterID)
	if err != nil {
		return nil, err
	}
	weeks := window.Weeks(s.policy())
	charged := false
	if !renter.IsAdmin() {
		if err := s.Users.DebitCredits(ctx, renter.ID, weeks); err != nil {
			return nil, err
		}
		charged = true
	}
	refundOnFailure := func() {
		if !charged {
			return
		}
		if err := s.Users.AddCredits(ctx, renter.ID, weeks); err != nil && s.Logger != nil {
			s.Logger.Error("debit compensation failed", "renter_id", renter.ID, "weeks", weeks, "error", err)
		}
	}

	conflict, err := s.Bookings.AnyActiveOverlap(ctx, params.HouseID, window)
	if err != nil {
		refundOnFailure()
		return nil, fmt.Errorf("availability check: %w", err)
	}
	if conflict {
		refundOnFailure()
		return nil, domainbooking.ErrDateConflict
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(s.newID()),
		HouseID:   params.HouseID,
		RenterID:  renter.ID,
		Window:    window,
		CreatedAt: s.now(),
	})
	if err != nil {
		refundOnFailure()
		return nil, err
	}
	// The storage layer enforces uniqueness of active (house, check-in)
	// pairs, closing the check-then-insert race the read above leaves open.
	if err := s.Bookings.Insert(ctx, b); err != nil {
		refundOnFailure()
		if errors.Is(err, domainbooking.ErrDateConflict) {
			return nil, domainbooking.ErrDateConflict
		}
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	s.drainEvents(ctx, b)
	if s.Logger != nil {
		s.Logger.Info("booking created", "booking_id", b.ID, "house_id", b.HouseID, "renter_id", b.RenterID, "check_in", b.Window.CheckIn, "weeks", weeks)
	}
	return b, nil
}

// Cancel flips the renter's own booking to cancelled and refunds the credit
// cost recomputed from the stored window.
func (s *Service) Cancel(ctx context.Context, id domainbooking.BookingID, requesterID domainuser.ID) (*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	b, err := s.Bookings.ByIDForRenter(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}

	renter, err := s.Users.ByID(ctx, b.RenterID)
	if err != nil {
		return nil, err
	}
	if !renter.IsAdmin() {
		weeks := b.Window.Weeks(s.policy())
		if err := s.Users.AddCredits(ctx, renter.ID, weeks); err != nil {
			return nil, fmt.Errorf("refund credits: %w", err)
		}
		if s.Logger != nil {
			s.Logger.Info("credits refunded", "renter_id", renter.ID, "weeks", weeks)
		}
	}

	s.drainEvents(ctx, b)
	return b, nil
}

// ListForHouse returns the non-cancelled bookings of a house, the data the
// availability calendar renders.
func (s *Service) ListForHouse(ctx context.Context, houseID domainhouse.HouseID) ([]*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	return s.Bookings.ListByHouseActive(ctx, houseID)
}

// RenterBooking pairs a booking with its house name for display.
type RenterBooking struct {
	Booking   *domainbooking.Booking
	HouseName string
}

// ListForRenter returns every booking of the renter, any status, check-in
// ascending, each carrying the house name.
func (s *Service) ListForRenter(ctx context.Context, renterID domainuser.ID) ([]RenterBooking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	bookings, err := s.Bookings.ListByRenter(ctx, renterID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].Window.CheckIn.Before(bookings[j].Window.CheckIn)
	})
	names, err := s.houseNames(ctx, bookings)
	if err != nil {
		return nil, err
	}
	out := make([]RenterBooking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, RenterBooking{Booking: b, HouseName: names[b.HouseID]})
	}
	return out, nil
}

// AdminBooking carries the populated view administrators see.
type AdminBooking struct {
	Booking    *domainbooking.Booking
	HouseName  string
	RenterName string
}

func (s *Service) ListAll(ctx context.Context) ([]AdminBooking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	bookings, err := s.Bookings.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.houseNames(ctx, bookings)
	if err != nil {
		return nil, err
	}
	renters := make(map[domainuser.ID]string)
	out := make([]AdminBooking, 0, len(bookings))
	for _, b := range bookings {
		name, ok := renters[b.RenterID]
		if !ok {
			if u, err := s.Users.ByID(ctx, b.RenterID); err == nil {
				name = u.Username
			}
			renters[b.RenterID] = name
		}
		out = append(out, AdminBooking{Booking: b, HouseName: names[b.HouseID], RenterName: name})
	}
	return out, nil
}

// Delete is the administrative hard delete. No refund: this is an override,
// not a user-facing cancellation.
func (s *Service) Delete(ctx context.Context, id domainbooking.BookingID) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	if _, err := s.Bookings.ByID(ctx, id); err != nil {
		return err
	}
	return s.Bookings.Delete(ctx, id)
}

func (s *Service) houseNames(ctx context.Context, bookings []*domainbooking.Booking) (map[domainhouse.HouseID]string, error) {
	ids := make([]domainhouse.HouseID, 0, len(bookings))
	seen := make(map[domainhouse.HouseID]struct{}, len(bookings))
	for _, b := range bookings {
		if _, ok := seen[b.HouseID]; ok {
			continue
		}
		seen[b.HouseID] = struct{}{}
		ids = append(ids, b.HouseID)
	}
	if len(ids) == 0 {
		return map[domainhouse.HouseID]string{}, nil
	}
	houses, err := s.Houses.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[domainhouse.HouseID]string, len(houses))
	for _, h := range houses {
		names[h.ID] = h.Name
	}
	return names, nil
}

func (s *Service) drainEvents(ctx context.Context, b *domainbooking.Booking) {
	if err := appoutbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, b.PendingEvents()); err != nil {
		// Notification loss never fails a committed booking.
		if s.Logger != nil {
			s.Logger.Error("outbox append failed", "booking_id", b.ID, "error", err)
		}
	}
	b.ClearEvents()
}

func (s *Service) policy() domainbooking.WeekPolicy {
	if s.Policy.WeekLength == 0 {
		return domainbooking.DefaultWeekPolicy()
	}
	return s.Policy
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) ensureDependencies() error {
	if s.Bookings == nil || s.Houses == nil || s.Users == nil {
		return ErrServiceNotConfigured
	}
	return nil
}
