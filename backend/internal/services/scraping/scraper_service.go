package services

import (
	"context"
	"fmt"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
)

type Extractor interface {
	Extract(ctx context.Context, pageURL string) (domain.Record, error)
}

type DocumentCreator interface {
	Create(ctx context.Context, rec domain.Record) (string, error)
}

type ReferenceGenerator interface {
	NewReference() string
}

// ScraperService is the single-URL import path: analyze a page, let the operator review
// the record, then create it.
type ScraperService struct {
	extractor Extractor
	creator   DocumentCreator
	refs      ReferenceGenerator
}

func NewScraperService(extractor Extractor, creator DocumentCreator, refs ReferenceGenerator) *ScraperService {
	return &ScraperService{extractor: extractor, creator: creator, refs: refs}
}

func (s *ScraperService) Analyze(ctx context.Context, pageURL string) (domain.Record, error) {
	return s.extractor.Extract(ctx, pageURL)
}

// ScrapeAndStore analyzes pageURL and creates a hidden document from it. Pages without a
// reference get a generated one.
func (s *ScraperService) ScrapeAndStore(ctx context.Context, pageURL string) (domain.Record, string, error) {
	rec, err := s.extractor.Extract(ctx, pageURL)
	if err != nil {
		return domain.Record{}, "", err
	}
	if rec.Reference == "" {
		rec.Reference = s.refs.NewReference()
	}
	id, err := s.creator.Create(ctx, rec)
	if err != nil {
		return rec, "", fmt.Errorf("store scraped property: %w", err)
	}
	return rec, id, nil
}
