package app

import (
	"context"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ps-vitor/immo-sys/backend/internal/alerts"
	"github.com/ps-vitor/immo-sys/backend/internal/assets"
	"github.com/ps-vitor/immo-sys/backend/internal/config"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
	"github.com/ps-vitor/immo-sys/backend/internal/rows"
	"github.com/ps-vitor/immo-sys/backend/internal/scraping/collectors"
	"github.com/ps-vitor/immo-sys/backend/internal/scraping/extractor"
	"github.com/ps-vitor/immo-sys/backend/internal/services/bulk"
	"github.com/ps-vitor/immo-sys/backend/internal/services/importer"
	property "github.com/ps-vitor/immo-sys/backend/internal/services/property"
	scraping "github.com/ps-vitor/immo-sys/backend/internal/services/scraping"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

// App holds the wired pipeline. Stores are either Mongo-backed or in memory.
type App struct {
	Config       *config.Config
	Log          *logger.Logger
	Properties   repositories.PropertyRepository
	Content      repositories.ContentRepository
	Assets       repositories.AssetStore
	Extractor    *extractor.Extractor
	Normalizer   *rows.Normalizer
	Creator      *importer.Creator
	Orchestrator *importer.Orchestrator
	Scraper      *scraping.ScraperService
	Listing      *property.PropertyService
	Alerts       *alerts.Store
	Bulk         *bulk.Service

	client *mongo.Client
}

// New connects to MongoDB and wires every component on top of it.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	client, err := repositories.Connect(ctx, cfg.Database.URI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database.Name)

	props := repositories.NewMongoPropertyRepository(client, db)
	if err := props.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	assetStore, err := repositories.NewGridFSAssetStore(db, cfg.Database.AssetBucket)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("open asset bucket: %w", err)
	}

	alertStore, err := alerts.Open(ctx, alerts.FilePersistence{Path: cfg.Alerts.Path})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	a := wire(cfg, log, props, repositories.NewMongoContentRepository(db), assetStore, alertStore)
	a.client = client
	log.Info("connected to mongodb", "database", cfg.Database.Name)
	return a, nil
}

// NewInMemory wires the pipeline over process-local stores. Nothing it writes survives
// the process.
func NewInMemory(cfg *config.Config, log *logger.Logger) *App {
	return wire(cfg, log,
		repositories.NewMemoryPropertyRepository(),
		&repositories.MemoryContentRepository{},
		repositories.NewMemoryAssetStore(),
		alerts.NewMemoryStore(),
	)
}

func wire(
	cfg *config.Config,
	log *logger.Logger,
	props repositories.PropertyRepository,
	content repositories.ContentRepository,
	assetStore repositories.AssetStore,
	alertStore *alerts.Store,
) *App {
	refs := rows.RandomReferences{Length: cfg.Importer.ReferenceLength}
	collector := collectors.NewPageCollector(cfg.Scraping.UserAgent, cfg.Scraping.Timeout)
	ext := extractor.New(collector, cfg.Scraping.KnownCities, cfg.Scraping.FallbackLocation, log)

	httpClient := &http.Client{Timeout: cfg.Scraping.Timeout}
	uploader := assets.NewUploader(httpClient, assetStore, cfg.Scraping.UserAgent, log)
	creator := importer.NewCreator(uploader, props, cfg.Importer.MaxExtraImages, log)
	normalizer := rows.NewNormalizer(refs, cfg.Scraping.FallbackLocation)

	return &App{
		Config:       cfg,
		Log:          log,
		Properties:   props,
		Content:      content,
		Assets:       assetStore,
		Extractor:    ext,
		Normalizer:   normalizer,
		Creator:      creator,
		Orchestrator: importer.NewOrchestrator(normalizer, creator, log),
		Scraper:      scraping.NewScraperService(ext, creator, refs),
		Listing:      property.NewPropertyService(props),
		Alerts:       alertStore,
		Bulk:         bulk.NewService(props, alertStore, log),
	}
}

func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}
