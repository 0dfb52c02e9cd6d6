package domain

import "strings"

type Amenity int

const (
	AmenityPool Amenity = iota + 1
	AmenityGarden
	AmenityGarage
	AmenityTerrace
	AmenityAirConditioning
	AmenityFireplace
	AmenityView
	AmenityElevator
)

var amenityNames = map[Amenity]string{
	AmenityPool:            "pool",
	AmenityGarden:          "garden",
	AmenityGarage:          "garage",
	AmenityTerrace:         "terrace",
	AmenityAirConditioning: "air_conditioning",
	AmenityFireplace:       "fireplace",
	AmenityView:            "view",
	AmenityElevator:        "elevator",
}

func (a Amenity) String() string {
	return amenityNames[a]
}

// Icon returns the icon name rendered next to the amenity.
func (a Amenity) Icon() string {
	switch a {
	case AmenityPool:
		return "waves"
	case AmenityGarden:
		return "trees"
	case AmenityGarage:
		return "car"
	case AmenityTerrace:
		return "sun"
	case AmenityAirConditioning:
		return "snowflake"
	case AmenityFireplace:
		return "flame"
	case AmenityView:
		return "mountain"
	case AmenityElevator:
		return "arrow-up-down"
	default:
		return "check"
	}
}

// Label is the French display label.
func (a Amenity) Label() string {
	switch a {
	case AmenityPool:
		return "Piscine"
	case AmenityGarden:
		return "Jardin"
	case AmenityGarage:
		return "Garage"
	case AmenityTerrace:
		return "Terrasse"
	case AmenityAirConditioning:
		return "Climatisation"
	case AmenityFireplace:
		return "Cheminée"
	case AmenityView:
		return "Vue dégagée"
	case AmenityElevator:
		return "Ascenseur"
	default:
		return ""
	}
}

// ParseAmenity accepts the canonical name or the French label, case-insensitively.
func ParseAmenity(s string) (Amenity, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "pool", "piscine":
		return AmenityPool, true
	case "garden", "jardin":
		return AmenityGarden, true
	case "garage":
		return AmenityGarage, true
	case "terrace", "terrasse":
		return AmenityTerrace, true
	case "air_conditioning", "climatisation", "clim":
		return AmenityAirConditioning, true
	case "fireplace", "cheminée", "cheminee":
		return AmenityFireplace, true
	case "view", "vue", "vue dégagée":
		return AmenityView, true
	case "elevator", "ascenseur":
		return AmenityElevator, true
	}
	return 0, false
}

func (a Amenity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amenity) UnmarshalText(b []byte) error {
	v, _ := ParseAmenity(string(b))
	*a = v
	return nil
}
