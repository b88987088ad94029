package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"weekstay/internal/domain/house"
)

var (
	ErrNotFound            = errors.New("user: not found")
	ErrUsernameRequired    = errors.New("user: username is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrAlreadyExists       = errors.New("user: username or email already used")
	ErrInsufficientCredits = errors.New("user: not enough credits")
	ErrLastAdmin           = errors.New("user: cannot delete the last administrator")
)

type ID string

type Role string

const (
	RoleRegular Role = "user"
	RoleAdmin   Role = "admin"
)

// User is an account with a credit balance. One credit buys one week in a
// house; administrators book for free and are exempt from all ledger
// accounting.
type User struct {
	ID             ID
	Username       string
	Email          string
	PasswordHash   string
	Role           Role
	Credits        int
	AssignedHouses []house.HouseID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	// ByLogin resolves a username or an email address, both accepted at login.
	ByLogin(ctx context.Context, usernameOrEmail string) (*User, error)
	Save(ctx context.Context, u *User) error
	List(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id ID) error
	CountAdmins(ctx context.Context) (int, error)
	// DebitCredits decrements atomically and only when the balance covers the
	// amount, so two concurrent bookings cannot both pass the balance check.
	DebitCredits(ctx context.Context, id ID, amount int) error
	// AddCredits increments atomically. Used for refunds and admin grants.
	AddCredits(ctx context.Context, id ID, amount int) error
}

type CreateParams struct {
	ID           ID
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Credits      int
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("user: id required")
	}
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	role, err := normalizeRole(params.Role)
	if err != nil {
		return nil, err
	}
	if params.Credits < 0 {
		return nil, errors.New("user: credits must not be negative")
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:           params.ID,
		Username:     username,
		Email:        email,
		PasswordHash: params.PasswordHash,
		Role:         role,
		Credits:      params.Credits,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Debit charges the booking cost. Administrators are exempt; for everyone
// else the balance must cover the amount.
func (u *User) Debit(weeks int) error {
	if u.IsAdmin() || weeks <= 0 {
		return nil
	}
	if u.Credits < weeks {
		return ErrInsufficientCredits
	}
	u.Credits -= weeks
	return nil
}

// Refund returns the booking cost on cancellation. No-op for administrators.
func (u *User) Refund(weeks int) {
	if u.IsAdmin() || weeks <= 0 {
		return
	}
	u.Credits += weeks
}

func (u *User) UpdateProfile(username, email string, role Role, now time.Time) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return ErrUsernameRequired
	}
	normalized := normalizeEmail(email)
	if normalized == "" {
		return ErrEmailRequired
	}
	r, err := normalizeRole(role)
	if err != nil {
		return err
	}
	u.Username = trimmed
	u.Email = normalized
	u.Role = r
	u.touch(now)
	return nil
}

func (u *User) AssignHouse(id house.HouseID, now time.Time) {
	for _, existing := range u.AssignedHouses {
		if existing == id {
			return
		}
	}
	u.AssignedHouses = append(u.AssignedHouses, id)
	u.touch(now)
}

func (u *User) RemoveHouse(id house.HouseID, now time.Time) {
	kept := u.AssignedHouses[:0]
	for _, existing := range u.AssignedHouses {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	u.AssignedHouses = kept
	u.touch(now)
}

func (u *User) ReplaceHouses(ids []house.HouseID, now time.Time) {
	seen := make(map[house.HouseID]struct{}, len(ids))
	replacement := make([]house.HouseID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		replacement = append(replacement, id)
	}
	u.AssignedHouses = replacement
	u.touch(now)
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func normalizeRole(role Role) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(string(role)))) {
	case RoleRegular, "":
		return RoleRegular, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
