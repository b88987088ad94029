package house

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

var ErrServiceNotConfigured = errors.New("house service: missing dependencies")

// PhotoStore stores binary content and returns a public URL.
type PhotoStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

type Service struct {
	Houses   domainhouse.Repository
	Bookings domainbooking.Repository
	Users    domainuser.Repository
	Photos   PhotoStore
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

// ListFor returns every house for administrators and only assigned houses for
// regular users.
func (s *Service) ListFor(ctx context.Context, requesterID domainuser.ID) ([]*domainhouse.House, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	requester, err := s.Users.ByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.IsAdmin() {
		return s.Houses.List(ctx)
	}
	if len(requester.AssignedHouses) == 0 {
		return []*domainhouse.House{}, nil
	}
	return s.Houses.ByIDs(ctx, requester.AssignedHouses)
}

func (s *Service) Get(ctx context.Context, id domainhouse.HouseID) (*domainhouse.House, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	return s.Houses.ByID(ctx, id)
}

type CreateParams struct {
	Name        string
	Description string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*domainhouse.House, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	h, err := domainhouse.NewHouse(domainhouse.CreateParams{
		ID:          domainhouse.HouseID(s.newID()),
		Name:        params.Name,
		Description: params.Description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Houses.Save(ctx, h); err != nil {
		return nil, fmt.Errorf("persist house: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("house created", "house_id", h.ID, "name", h.Name)
	}
	return h, nil
}

func (s *Service) Update(ctx context.Context, id domainhouse.HouseID, params CreateParams) (*domainhouse.House, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	h, err := s.Houses.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := h.Rename(params.Name, params.Description, s.now()); err != nil {
		return nil, err
	}
	if err := s.Houses.Save(ctx, h); err != nil {
		return nil, fmt.Errorf("persist house: %w", err)
	}
	return h, nil
}

// Delete removes a house. Refused while a booking's window has not ended;
// past bookings of the house are removed with it.
func (s *Service) Delete(ctx context.Context, id domainhouse.HouseID) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	if _, err := s.Houses.ByID(ctx, id); err != nil {
		return err
	}
	active, err := s.Bookings.AnyEndingAfter(ctx, id, s.now())
	if err != nil {
		return fmt.Errorf("active booking check: %w", err)
	}
	if active {
		return domainhouse.ErrActiveBookings
	}
	if err := s.Bookings.DeleteByHouse(ctx, id); err != nil {
		return fmt.Errorf("delete house bookings: %w", err)
	}
	if err := s.Houses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete house: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("house deleted with its past bookings", "house_id", id)
	}
	return nil
}

// AddPhoto uploads an image and appends its public URL to the house.
func (s *Service) AddPhoto(ctx context.Context, id domainhouse.HouseID, filename string, reader io.Reader, contentType string) (*domainhouse.House, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if s.Photos == nil {
		return nil, errors.New("house service: photo storage unavailable")
	}
	h, err := s.Houses.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("houses/%s/%s%s", id, s.newID(), path.Ext(filename))
	url, err := s.Photos.Upload(ctx, key, reader, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	h.AddPhoto(url, s.now())
	if err := s.Houses.Save(ctx, h); err != nil {
		return nil, fmt.Errorf("persist house: %w", err)
	}
	return h, nil
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
	if s.Houses == nil || s.Bookings == nil || s.Users == nil {
		return ErrServiceNotConfigured
	}
	return nil
}
