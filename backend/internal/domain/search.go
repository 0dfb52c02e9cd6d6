package domain

import "strings"

// SearchCriteria filters the public catalogue. Zero values disable a filter.
type SearchCriteria struct {
	Type     PropertyType `json:"type,omitempty"`
	Location string       `json:"location,omitempty"`
	MaxPrice int          `json:"max_price,omitempty"`
	MinRooms int          `json:"min_rooms,omitempty"`
	MinArea  int          `json:"min_area,omitempty"`
}

func (c SearchCriteria) Matches(p PropertyDocument) bool {
	if c.Type != "" && p.Type != c.Type {
		return false
	}
	if c.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(strings.TrimSpace(c.Location))) {
		return false
	}
	if c.MaxPrice > 0 && p.Price > c.MaxPrice {
		return false
	}
	if c.MinRooms > 0 && p.Rooms < c.MinRooms {
		return false
	}
	if c.MinArea > 0 && p.Area < c.MinArea {
		return false
	}
	return true
}
