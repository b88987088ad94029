package dto

import (
	"time"

	usersvc "weekstay/internal/app/services/user"
	domainuser "weekstay/internal/domain/user"
)

// UserProfile never carries the password hash.
type UserProfile struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Credits        int       `json:"credits"`
	AssignedHouses []string  `json:"assigned_houses"`
	HouseNames     []string  `json:"house_names,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserList struct {
	Items []UserProfile `json:"items"`
}

func MapUserProfile(u *domainuser.User) UserProfile {
	houses := make([]string, 0, len(u.AssignedHouses))
	for _, id := range u.AssignedHouses {
		houses = append(houses, string(id))
	}
	return UserProfile{
		ID:             string(u.ID),
		Username:       u.Username,
		Email:          u.Email,
		Role:           string(u.Role),
		Credits:        u.Credits,
		AssignedHouses: houses,
		CreatedAt:      u.CreatedAt,
	}
}

func MapUserList(items []usersvc.UserView) UserList {
	out := UserList{Items: make([]UserProfile, 0, len(items))}
	for _, item := range items {
		profile := MapUserProfile(item.User)
		profile.HouseNames = append([]string(nil), item.HouseNames...)
		out.Items = append(out.Items, profile)
	}
	return out
}
