package dto

import (
	"time"

	domainhouse "weekstay/internal/domain/house"
)

type HouseProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURLs   []string  `json:"photo_urls"`
	CreatedAt   time.Time `json:"created_at"`
}

type HouseList struct {
	Items []HouseProfile `json:"items"`
}

func MapHouseProfile(h *domainhouse.House) HouseProfile {
	return HouseProfile{
		ID:          string(h.ID),
		Name:        h.Name,
		Description: h.Description,
		PhotoURLs:   append([]string(nil), h.PhotoURLs...),
		CreatedAt:   h.CreatedAt,
	}
}

func MapHouseList(houses []*domainhouse.House) HouseList {
	out := HouseList{Items: make([]HouseProfile, 0, len(houses))}
	for _, h := range houses {
		out.Items = append(out.Items, MapHouseProfile(h))
	}
	return out
}
