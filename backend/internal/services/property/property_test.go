package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
	services "github.com/ps-vitor/immo-sys/backend/internal/services/property"
)

func catalogue(t *testing.T) *services.PropertyService {
	t.Helper()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var docs []domain.PropertyDocument
	for i := 0; i < 15; i++ {
		docs = append(docs, domain.PropertyDocument{
			ID:        fmt.Sprintf("id-%02d", i),
			Reference: fmt.Sprintf("R%02d", i),
			Type:      domain.TypeHouse,
			Location:  "Orange",
			Price:     100000 + i*10000,
			Status:    domain.StatusAvailable,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	docs = append(docs,
		domain.PropertyDocument{ID: "hidden", Type: domain.TypeHouse, Location: "Orange", Hidden: true, CreatedAt: base},
		domain.PropertyDocument{ID: "sold", Type: domain.TypeLand, Location: "Piolenc", Status: domain.StatusSold, CreatedAt: base},
	)
	return services.NewPropertyService(repositories.NewMemoryPropertyRepository(docs...))
}

func TestListingsPaginatesVisibleProperties(t *testing.T) {
	svc := catalogue(t)
	ctx := context.Background()

	first, err := svc.Listings(ctx, domain.SearchCriteria{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 16, first.TotalItems)
	assert.Equal(t, 2, first.TotalPages)
	assert.Len(t, first.Items, services.PageSize)
	assert.Equal(t, "id-14", first.Items[0].ID)

	second, err := svc.Listings(ctx, domain.SearchCriteria{}, 2)
	require.NoError(t, err)
	assert.Len(t, second.Items, 4)

	beyond, err := svc.Listings(ctx, domain.SearchCriteria{}, 9)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
}

func TestListingsFilters(t *testing.T) {
	svc := catalogue(t)

	page, err := svc.Listings(context.Background(), domain.SearchCriteria{Type: domain.TypeHouse, MaxPrice: 120000}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)
	for _, p := range page.Items {
		assert.LessOrEqual(t, p.Price, 120000)
		assert.False(t, p.Hidden)
	}
}

func TestPublishedExcludesHiddenAndSold(t *testing.T) {
	docs, err := catalogue(t).Published(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 15)
	for _, d := range docs {
		assert.NotEqual(t, "hidden", d.ID)
		assert.NotEqual(t, "sold", d.ID)
	}
}
