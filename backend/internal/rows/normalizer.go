package rows

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/scraping/extractor"
)

// Column aliases in priority order. Lookup is exact first, then case-insensitive.
var (
	referenceColumns   = []string{"reference", "Reference", "ref", "Ref", "référence", "Référence"}
	titleColumns       = []string{"title", "titre", "Titre", "nom"}
	typeColumns        = []string{"type", "Type", "type_bien", "typologie"}
	priceColumns       = []string{"price", "prix", "Prix", "tarif"}
	locationColumns    = []string{"location", "ville", "Ville", "city", "localisation", "commune"}
	areaColumns        = []string{"area", "surface", "Surface", "superficie", "surface_habitable"}
	roomsColumns       = []string{"rooms", "pieces", "pièces", "Pièces", "nb_pieces"}
	bedroomsColumns    = []string{"bedrooms", "chambres", "Chambres", "nb_chambres"}
	descriptionColumns = []string{"description", "Description", "desc", "texte"}
	imagesColumns      = []string{"images", "Images", "photos", "image_urls", "imageUrls"}
	amenitiesColumns   = []string{"amenities", "equipements", "équipements", "Équipements"}
)

// ReferenceGenerator issues references for rows that carry none.
type ReferenceGenerator interface {
	NewReference() string
}

// Normalizer maps heterogeneous CSV rows onto domain.Record. It never fails.
type Normalizer struct {
	refs     ReferenceGenerator
	fallback string
}

func NewNormalizer(refs ReferenceGenerator, fallbackLocation string) *Normalizer {
	return &Normalizer{refs: refs, fallback: fallbackLocation}
}

func (n *Normalizer) Normalize(row map[string]string) domain.Record {
	lower := make(map[string]string, len(row))
	for k, v := range row {
		lower[strings.ToLower(strings.TrimSpace(k))] = v
	}
	get := func(aliases []string) string {
		for _, a := range aliases {
			if v := strings.TrimSpace(row[a]); v != "" {
				return v
			}
		}
		for _, a := range aliases {
			if v := strings.TrimSpace(lower[strings.ToLower(a)]); v != "" {
				return v
			}
		}
		return ""
	}

	rec := domain.Record{
		Reference:   get(referenceColumns),
		Title:       collapse(get(titleColumns)),
		Type:        domain.ParsePropertyType(get(typeColumns)),
		Price:       extractor.ParseWholeNumber(get(priceColumns)),
		Location:    get(locationColumns),
		Area:        extractor.ParseWholeNumber(get(areaColumns)),
		Rooms:       extractor.ParseWholeNumber(get(roomsColumns)),
		Bedrooms:    extractor.ParseWholeNumber(get(bedroomsColumns)),
		Description: collapse(get(descriptionColumns)),
		ImageURLs:   SplitList(get(imagesColumns)),
		Amenities:   parseAmenities(get(amenitiesColumns)),
		Status:      domain.StatusAvailable,
		Hidden:      true,
	}
	if rec.Reference == "" {
		rec.Reference = n.refs.NewReference()
	}
	if rec.Location == "" {
		rec.Location = n.fallback
	}
	if rec.Title == "" {
		rec.Title = fmt.Sprintf("%s à %s", rec.Type, rec.Location)
	}
	return rec
}

// SplitList splits a "|" or "," delimited cell, trimming segments and dropping empty
// and repeated ones.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func parseAmenities(s string) []domain.Amenity {
	var out []domain.Amenity
	for _, name := range SplitList(s) {
		if a, ok := domain.ParseAmenity(name); ok {
			out = append(out, a)
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomReferences draws references of a fixed length from crypto/rand.
// Uniqueness is probabilistic only; nothing checks the content store.
type RandomReferences struct {
	Length int
}

func (g RandomReferences) NewReference() string {
	n := g.Length
	if n <= 0 {
		n = 8
	}
	limit := big.NewInt(int64(len(referenceAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		b[i] = referenceAlphabet[idx.Int64()]
	}
	return string(b)
}
