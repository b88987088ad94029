package house

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("house: not found")
	ErrNameRequired   = errors.New("house: name is required")
	ErrActiveBookings = errors.New("house: cannot delete a house with active bookings")
)

type HouseID string

// House is a vacation property administrators make available for weekly
// stays. Assignment of houses to users lives on the user record.
type House struct {
	ID          HouseID
	Name        string
	Description string
	PhotoURLs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	ByID(ctx context.Context, id HouseID) (*House, error)
	ByIDs(ctx context.Context, ids []HouseID) ([]*House, error)
	Save(ctx context.Context, h *House) error
	List(ctx context.Context) ([]*House, error)
	Delete(ctx context.Context, id HouseID) error
}

type CreateParams struct {
	ID          HouseID
	Name        string
	Description string
	CreatedAt   time.Time
}

func NewHouse(params CreateParams) (*House, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("house: id required")
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &House{
		ID:          params.ID,
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (h *House) Rename(name, description string, now time.Time) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameRequired
	}
	h.Name = trimmed
	h.Description = strings.TrimSpace(description)
	h.touch(now)
	return nil
}

func (h *House) AddPhoto(url string, now time.Time) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	h.PhotoURLs = append(h.PhotoURLs, url)
	h.touch(now)
}

func (h *House) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	h.UpdatedAt = now.UTC()
}
