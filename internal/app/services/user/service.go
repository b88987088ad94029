package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

var (
	ErrServiceNotConfigured = errors.New("user service: missing dependencies")
	ErrInvalidCreditAmount  = errors.New("user service: credit amount must be positive")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Service covers the administrative account surface: user CRUD, house
// assignment, and credit grants.
type Service struct {
	Users     domainuser.Repository
	Houses    domainhouse.Repository
	Passwords PasswordHasher
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// UserView pairs a user with the names of the assigned houses.
type UserView struct {
	User       *domainuser.User
	HouseNames []string
}

func (s *Service) List(ctx context.Context) ([]UserView, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		view := UserView{User: u}
		if len(u.AssignedHouses) > 0 {
			houses, err := s.Houses.ByIDs(ctx, u.AssignedHouses)
			if err != nil {
				return nil, err
			}
			for _, h := range houses {
				view.HouseNames = append(view.HouseNames, h.Name)
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	return s.Users.ByID(ctx, id)
}

type CreateParams struct {
	Username string
	Email    string
	Password string
	Role     domainuser.Role
}

// Create provisions an account with a zero starting balance; credits are
// granted separately.
func (s *Service) Create(ctx context.Context, params CreateParams) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if s.Passwords == nil {
		return nil, ErrServiceNotConfigured
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(s.newID()),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         params.Role,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user created", "user_id", u.ID, "username", u.Username, "role", u.Role)
	}
	return u, nil
}

type UpdateParams struct {
	Username string
	Email    string
	Role     domainuser.Role
}

func (s *Service) Update(ctx context.Context, id domainuser.ID, params UpdateParams) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.UpdateProfile(params.Username, params.Email, params.Role, s.now()); err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes an account, refusing to remove the last administrator so
// the system cannot lock itself out.
func (s *Service) Delete(ctx context.Context, id domainuser.ID) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsAdmin() {
		admins, err := s.Users.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return domainuser.ErrLastAdmin
		}
	}
	return s.Users.Delete(ctx, id)
}

// AssignHouses replaces the user's assignment set.
func (s *Service) AssignHouses(ctx context.Context, id domainuser.ID, houseIDs []domainhouse.HouseID) (*domainuser.User, error) {
	return s.mutateAssignments(ctx, id, func(u *domainuser.User) {
		u.ReplaceHouses(houseIDs, s.now())
	})
}

func (s *Service) AssignHouse(ctx context.Context, id domainuser.ID, houseID domainhouse.HouseID) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if _, err := s.Houses.ByID(ctx, houseID); err != nil {
		return nil, err
	}
	return s.mutateAssignments(ctx, id, func(u *domainuser.User) {
		u.AssignHouse(houseID, s.now())
	})
}

func (s *Service) RemoveHouse(ctx context.Context, id domainuser.ID, houseID domainhouse.HouseID) (*domainuser.User, error) {
	return s.mutateAssignments(ctx, id, func(u *domainuser.User) {
		u.RemoveHouse(houseID, s.now())
	})
}

// GrantCredits adds to a user's balance. Amounts are admin-supplied and must
// be positive; debits happen only through bookings.
func (s *Service) GrantCredits(ctx context.Context, id domainuser.ID, amount int) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidCreditAmount
	}
	if _, err := s.Users.ByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.Users.AddCredits(ctx, id, amount); err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("credits granted", "user_id", id, "amount", amount)
	}
	return s.Users.ByID(ctx, id)
}

func (s *Service) Credits(ctx context.Context, id domainuser.ID) (int, error) {
	if err := s.ensureDependencies(); err != nil {
		return 0, err
	}
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}

func (s *Service) mutateAssignments(ctx context.Context, id domainuser.ID, mutate func(*domainuser.User)) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	mutate(u)
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
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
	if s.Users == nil || s.Houses == nil {
		return ErrServiceNotConfigured
	}
	return nil
}
