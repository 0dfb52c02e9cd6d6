// backend/internal/domain/property.go
package domain

import (
	"strings"
	"time"
)

type PropertyType string

const (
	TypeHouse     PropertyType = "Maison"
	TypeApartment PropertyType = "Appartement"
	TypeLand      PropertyType = "Terrain"
	TypeOther     PropertyType = "Autre"
)

// ParsePropertyType accepts French and English spellings; anything unknown is a house.
func ParsePropertyType(s string) PropertyType {
	if t, ok := LookupPropertyType(s); ok {
		return t
	}
	return TypeHouse
}

// LookupPropertyType is ParsePropertyType without the fallback: ok is false for
// spellings it does not know.
func LookupPropertyType(s string) (PropertyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "maison", "house", "villa":
		return TypeHouse, true
	case "appartement", "apartment", "flat":
		return TypeApartment, true
	case "terrain", "land", "plot":
		return TypeLand, true
	case "autre", "other", "local", "commerce":
		return TypeOther, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusOffer     Status = "offer"
	StatusSold      Status = "sold"
)

// ParseStatus reads an import column leniently: blank or unknown values mean available.
func ParseStatus(s string) Status {
	if st, ok := ParseStatusStrict(s); ok {
		return st
	}
	return StatusAvailable
}

// ParseStatusStrict is for operator input, where a typo must not silently
// become available.
func ParseStatusStrict(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available", "disponible", "à vendre", "a vendre":
		return StatusAvailable, true
	case "offer", "sous offre", "sous-offre", "under offer", "compromis":
		return StatusOffer, true
	case "sold", "vendu", "vendue":
		return StatusSold, true
	default:
		return "", false
	}
}

// Record is the normalized shape every import source is converted into.
type Record struct {
	Reference   string       `json:"reference"`
	Title       string       `json:"title"`
	Type        PropertyType `json:"type"`
	Price       int          `json:"price"`
	Location    string       `json:"location"`
	Area        int          `json:"area"`
	Rooms       int          `json:"rooms"`
	Bedrooms    int          `json:"bedrooms"`
	Description string       `json:"description"`
	ImageURLs   []string     `json:"image_urls"`
	Amenities   []Amenity    `json:"amenities,omitempty"`
	Status      Status       `json:"status"`
	Hidden      bool         `json:"hidden"`
}

// MainImage returns the first image URL, the main image candidate.
func (r Record) MainImage() string {
	if len(r.ImageURLs) == 0 {
		return ""
	}
	return r.ImageURLs[0]
}

// ExtraImages returns at most limit image URLs following the main one.
func (r Record) ExtraImages(limit int) []string {
	if len(r.ImageURLs) <= 1 || limit <= 0 {
		return nil
	}
	extra := r.ImageURLs[1:]
	if len(extra) > limit {
		extra = extra[:limit]
	}
	return extra
}

// UploadedAsset is a reference to a binary stored in the asset store.
type UploadedAsset struct {
	ID          string `bson:"asset_id" json:"asset_id"`
	SourceURL   string `bson:"source_url,omitempty" json:"source_url,omitempty"`
	ContentType string `bson:"content_type,omitempty" json:"content_type,omitempty"`
}

// PropertyDocument is a property as persisted in the content store.
type PropertyDocument struct {
	ID          string          `bson:"_id" json:"id"`
	Reference   string          `bson:"reference" json:"reference"`
	Title       string          `bson:"title" json:"title"`
	Type        PropertyType    `bson:"type" json:"type"`
	Price       int             `bson:"price" json:"price"`
	Location    string          `bson:"location" json:"location"`
	Area        int             `bson:"area" json:"area"`
	Rooms       int             `bson:"rooms" json:"rooms"`
	Bedrooms    int             `bson:"bedrooms" json:"bedrooms"`
	Description string          `bson:"description" json:"description"`
	MainImage   *UploadedAsset  `bson:"main_image,omitempty" json:"main_image,omitempty"`
	Gallery     []UploadedAsset `bson:"gallery,omitempty" json:"gallery,omitempty"`
	Amenities   []Amenity       `bson:"amenities,omitempty" json:"amenities,omitempty"`
	Status      Status          `bson:"status" json:"status"`
	Hidden      bool            `bson:"hidden" json:"hidden"`
	CreatedAt   time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at" json:"updated_at"`
}

// Public reports whether the property may appear on the public site.
func (p PropertyDocument) Public() bool {
	return !p.Hidden && p.Status != StatusSold
}

// ContentEntry is an article or an editorial page.
type ContentEntry struct {
	ID        string    `bson:"_id" json:"id"`
	Slug      string    `bson:"slug" json:"slug"`
	Title     string    `bson:"title" json:"title"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
