package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

// UserRepository keeps accounts in memory. Credit mutations take the write
// lock so the conditional-decrement contract holds under concurrency, same
// as the Mongo implementation.
type UserRepository struct {
	mu    sync.RWMutex
	items map[domainuser.ID]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		items: make(map[domainuser.ID]*domainuser.User),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) ByLogin(ctx context.Context, usernameOrEmail string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	for _, u := range r.items {
		if u.Username == usernameOrEmail || u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.items {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username || existing.Email == u.Email {
			return domainuser.ErrAlreadyExists
		}
	}
	stored := cloneUser(u)
	if existing, ok := r.items[u.ID]; ok {
		// profile saves never touch the balance, credits move only through
		// DebitCredits and AddCredits
		stored.Credits = existing.Credits
	}
	r.items[u.ID] = stored
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainuser.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id domainuser.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainuser.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, u := range r.items {
		if u.Role == domainuser.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (r *UserRepository) DebitCredits(ctx context.Context, id domainuser.ID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return domainuser.ErrNotFound
	}
	if u.Credits < amount {
		return domainuser.ErrInsufficientCredits
	}
	u.Credits -= amount
	return nil
}

func (r *UserRepository) AddCredits(ctx context.Context, id domainuser.ID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return domainuser.ErrNotFound
	}
	u.Credits += amount
	return nil
}

func cloneUser(u *domainuser.User) *domainuser.User {
	cp := *u
	cp.AssignedHouses = append([]domainhouse.HouseID(nil), u.AssignedHouses...)
	return &cp
}
