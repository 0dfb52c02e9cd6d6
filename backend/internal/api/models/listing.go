package models

import (
	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/services/bulk"
	"github.com/ps-vitor/immo-sys/backend/internal/services/importer"
	property "github.com/ps-vitor/immo-sys/backend/internal/services/property"
)

type AmenityView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// PropertyView is a property as the site renders it: amenities carry their label and icon.
type PropertyView struct {
	domain.PropertyDocument
	Amenities []AmenityView `json:"amenities"`
}

func NewPropertyView(p domain.PropertyDocument) PropertyView {
	amenities := make([]AmenityView, 0, len(p.Amenities))
	for _, a := range p.Amenities {
		if a.String() == "" {
			continue
		}
		amenities = append(amenities, AmenityView{Name: a.String(), Label: a.Label(), Icon: a.Icon()})
	}
	return PropertyView{PropertyDocument: p, Amenities: amenities}
}

type PropertyPage struct {
	Items      []PropertyView `json:"items"`
	Page       int            `json:"page"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
}

func NewPropertyPage(p property.Page) PropertyPage {
	items := make([]PropertyView, len(p.Items))
	for i, doc := range p.Items {
		items[i] = NewPropertyView(doc)
	}
	return PropertyPage{Items: items, Page: p.Page, TotalItems: p.TotalItems, TotalPages: p.TotalPages}
}

// ScrapeResult is what the admin form pre-fills from a scraped page.
type ScrapeResult struct {
	Title       string              `json:"title"`
	Price       int                 `json:"price"`
	Description string              `json:"description"`
	Reference   string              `json:"reference"`
	Images      []string            `json:"images"`
	Surface     int                 `json:"surface"`
	Rooms       int                 `json:"rooms"`
	Bedrooms    int                 `json:"bedrooms"`
	Location    string              `json:"location"`
	Type        domain.PropertyType `json:"type"`
}

func NewScrapeResult(r domain.Record) ScrapeResult {
	images := r.ImageURLs
	if images == nil {
		images = []string{}
	}
	return ScrapeResult{
		Title:       r.Title,
		Price:       r.Price,
		Description: r.Description,
		Reference:   r.Reference,
		Images:      images,
		Surface:     r.Area,
		Rooms:       r.Rooms,
		Bedrooms:    r.Bedrooms,
		Location:    r.Location,
		Type:        r.Type,
	}
}

type StoredScrape struct {
	ScrapeResult
	DocumentID string `json:"document_id"`
}

type ImportAccepted struct {
	BatchID string `json:"batch_id"`
}

// BatchStatus adds the operator-facing log lines to a batch snapshot.
type BatchStatus struct {
	importer.BatchResult
	Successes int      `json:"successes"`
	Failures  int      `json:"failures"`
	Lines     []string `json:"lines"`
}

func NewBatchStatus(b importer.BatchResult) BatchStatus {
	lines := make([]string, len(b.Log))
	for i, e := range b.Log {
		lines[i] = e.String()
	}
	return BatchStatus{BatchResult: b, Successes: b.Successes(), Failures: b.Failures(), Lines: lines}
}

type BulkRequest struct {
	Action     string        `json:"action"`
	References []string      `json:"references"`
	Status     domain.Status `json:"status,omitempty"`
}

type BulkResponse struct {
	Affected int               `json:"affected"`
	Matches  []bulk.AlertMatch `json:"alert_matches,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
