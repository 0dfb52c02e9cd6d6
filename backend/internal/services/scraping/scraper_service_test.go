package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	services "github.com/ps-vitor/immo-sys/backend/internal/services/scraping"
)

type stubExtractor struct {
	rec domain.Record
	err error
}

func (s stubExtractor) Extract(context.Context, string) (domain.Record, error) {
	return s.rec, s.err
}

type recordingCreator struct {
	got []domain.Record
	err error
}

func (c *recordingCreator) Create(_ context.Context, rec domain.Record) (string, error) {
	c.got = append(c.got, rec)
	return "doc-1", c.err
}

type fixedRefs string

func (f fixedRefs) NewReference() string { return string(f) }

func TestScrapeAndStoreGeneratesMissingReference(t *testing.T) {
	creator := &recordingCreator{}
	svc := services.NewScraperService(stubExtractor{rec: domain.Record{Title: "Maison"}}, creator, fixedRefs("GEN00001"))

	rec, id, err := svc.ScrapeAndStore(context.Background(), "https://x")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.Equal(t, "GEN00001", rec.Reference)
	require.Len(t, creator.got, 1)
	assert.Equal(t, "GEN00001", creator.got[0].Reference)
}

func TestScrapeAndStoreKeepsPageReference(t *testing.T) {
	creator := &recordingCreator{}
	svc := services.NewScraperService(stubExtractor{rec: domain.Record{Reference: "AB-123"}}, creator, fixedRefs("GEN00001"))

	rec, _, err := svc.ScrapeAndStore(context.Background(), "https://x")
	require.NoError(t, err)
	assert.Equal(t, "AB-123", rec.Reference)
}

func TestScrapeAndStoreErrors(t *testing.T) {
	extractErr := errors.New("could not analyze page")
	creator := &recordingCreator{}
	svc := services.NewScraperService(stubExtractor{err: extractErr}, creator, fixedRefs("X"))

	_, _, err := svc.ScrapeAndStore(context.Background(), "https://x")
	assert.ErrorIs(t, err, extractErr)
	assert.Empty(t, creator.got)

	failing := &recordingCreator{err: errors.New("rejected")}
	svc = services.NewScraperService(stubExtractor{rec: domain.Record{Reference: "R"}}, failing, fixedRefs("X"))
	_, _, err = svc.ScrapeAndStore(context.Background(), "https://x")
	assert.Error(t, err)
}
