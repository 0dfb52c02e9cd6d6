package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/scraping/extractor"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Store persists binaries and returns the store-assigned id.
type Store interface {
	UploadAsset(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// Uploader copies remote images into the asset store. A failed image is logged and
// reported as nil; it is never an error for the caller.
type Uploader struct {
	client    HTTPDoer
	store     Store
	userAgent string
	log       *logger.Logger
}

func NewUploader(client HTTPDoer, store Store, userAgent string, log *logger.Logger) *Uploader {
	return &Uploader{
		client:    client,
		store:     store,
		userAgent: userAgent,
		log:       log.Component("asset-uploader"),
	}
}

// Upload returns nil without any network call when imageURL is empty or not absolute.
func (u *Uploader) Upload(ctx context.Context, imageURL string) *domain.UploadedAsset {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || !extractor.IsAbsoluteURL(imageURL) {
		return nil
	}

	asset, err := u.upload(ctx, imageURL)
	if err != nil {
		u.log.Warn("image upload skipped", "url", imageURL, logger.Err(err))
		return nil
	}
	u.log.Debug("image uploaded", "url", imageURL, "asset_id", asset.ID)
	return asset
}

// UploadAll uploads urls one after another and keeps only the successes, in order.
func (u *Uploader) UploadAll(ctx context.Context, urls []string) []domain.UploadedAsset {
	var out []domain.UploadedAsset
	for _, raw := range urls {
		if a := u.Upload(ctx, raw); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func (u *Uploader) upload(ctx context.Context, imageURL string) (*domain.UploadedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if u.userAgent != "" {
		req.Header.Set("User-Agent", u.userAgent)
	}

	res, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image: status code error: %d", res.StatusCode)
	}

	blob, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(blob)
	}

	id, err := u.store.UploadAsset(ctx, filenameFor(imageURL), contentType, bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	return &domain.UploadedAsset{ID: id, SourceURL: imageURL, ContentType: contentType}, nil
}

func filenameFor(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "image"
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
