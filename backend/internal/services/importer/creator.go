package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

// ErrCreateDocument marks a create call rejected by the content store.
var ErrCreateDocument = errors.New("create property document")

// DefaultMaxExtraImages bounds the supplementary images uploaded per record.
const DefaultMaxExtraImages = 5

type AssetUploader interface {
	Upload(ctx context.Context, imageURL string) *domain.UploadedAsset
	UploadAll(ctx context.Context, urls []string) []domain.UploadedAsset
}

type DocumentStore interface {
	Create(ctx context.Context, doc domain.PropertyDocument) (string, error)
}

// Creator uploads a record's images and persists it as a hidden property document.
type Creator struct {
	uploader AssetUploader
	store    DocumentStore
	maxExtra int
	now      func() time.Time
	newID    func() string
	log      *logger.Logger
}

func NewCreator(uploader AssetUploader, store DocumentStore, maxExtraImages int, log *logger.Logger) *Creator {
	if maxExtraImages < 0 {
		maxExtraImages = DefaultMaxExtraImages
	}
	return &Creator{
		uploader: uploader,
		store:    store,
		maxExtra: maxExtraImages,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		log:      log.Component("document-creator"),
	}
}

// UploadImages uploads the main image, then at most maxExtra supplementary images, one at
// a time. Failed images are simply absent from the result.
func (c *Creator) UploadImages(ctx context.Context, rec domain.Record) (*domain.UploadedAsset, []domain.UploadedAsset) {
	var main *domain.UploadedAsset
	if u := rec.MainImage(); u != "" {
		main = c.uploader.Upload(ctx, u)
	}

	return main, c.uploader.UploadAll(ctx, rec.ExtraImages(c.maxExtra))
}

// CreatePropertyDocument persists rec. The document is always created hidden; it becomes
// public only when an operator publishes it.
func (c *Creator) CreatePropertyDocument(ctx context.Context, rec domain.Record, main *domain.UploadedAsset, extras []domain.UploadedAsset) (string, error) {
	status := rec.Status
	if status == "" {
		status = domain.StatusAvailable
	}
	now := c.now()

	doc := domain.PropertyDocument{
		ID:          c.newID(),
		Reference:   rec.Reference,
		Title:       rec.Title,
		Type:        rec.Type,
		Price:       rec.Price,
		Location:    rec.Location,
		Area:        rec.Area,
		Rooms:       rec.Rooms,
		Bedrooms:    rec.Bedrooms,
		Description: rec.Description,
		MainImage:   main,
		Gallery:     extras,
		Amenities:   rec.Amenities,
		Status:      status,
		Hidden:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := c.store.Create(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrCreateDocument, rec.Reference, err)
	}

	c.log.Info("property document created", "reference", rec.Reference, "id", id, "images", len(extras)+boolToInt(main != nil))
	return id, nil
}

// Create runs the upload and create stages for a single record.
func (c *Creator) Create(ctx context.Context, rec domain.Record) (string, error) {
	main, extras := c.UploadImages(ctx, rec)
	return c.CreatePropertyDocument(ctx, rec, main, extras)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
