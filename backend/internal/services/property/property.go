package services

import (
	"context"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
)

const PageSize = 12

type PropertyService struct {
	repo repositories.PropertyRepository
}

func NewPropertyService(repo repositories.PropertyRepository) *PropertyService {
	return &PropertyService{repo: repo}
}

// Page is one page of the public catalogue.
type Page struct {
	Items      []domain.PropertyDocument `json:"items"`
	Page       int                       `json:"page"`
	TotalItems int                       `json:"total_items"`
	TotalPages int                       `json:"total_pages"`
}

// Listings returns the non-hidden properties matching criteria, newest first.
// Sold properties stay listed; page numbers start at 1.
func (s *PropertyService) Listings(ctx context.Context, criteria domain.SearchCriteria, page int) (Page, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return Page{}, err
	}

	var matched []domain.PropertyDocument
	for _, p := range all {
		if p.Hidden || !criteria.Matches(p) {
			continue
		}
		matched = append(matched, p)
	}

	if page < 1 {
		page = 1
	}
	totalPages := (len(matched) + PageSize - 1) / PageSize
	start := (page - 1) * PageSize
	items := []domain.PropertyDocument{}
	if start < len(matched) {
		end := min(start+PageSize, len(matched))
		items = matched[start:end]
	}

	return Page{Items: items, Page: page, TotalItems: len(matched), TotalPages: totalPages}, nil
}

// Published returns the properties that belong in the sitemap: not hidden and not sold.
func (s *PropertyService) Published(ctx context.Context) ([]domain.PropertyDocument, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.PropertyDocument
	for _, p := range all {
		if p.Public() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PropertyService) FindByReference(ctx context.Context, refOrID string) (domain.PropertyDocument, error) {
	return s.repo.FindByReference(ctx, refOrID)
}
