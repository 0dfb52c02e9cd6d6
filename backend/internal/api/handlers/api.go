package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/immo-sys/backend/internal/api/models"
	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
	property "github.com/ps-vitor/immo-sys/backend/internal/services/property"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

// Site holds the public addresses used in generated links.
type Site struct {
	// URL is the front-end origin, without a trailing slash.
	URL string
	// APIURL is this API's public origin, used for absolute asset links.
	APIURL string
	// Location is the zone sitemap dates are expressed in; nil means UTC.
	Location *time.Location
}

type APIHandler struct {
	propertyService *property.PropertyService
	content         repositories.ContentRepository
	assets          repositories.AssetStore
	site            Site
	log             *logger.Logger
}

func NewAPIHandler(
	propertyService *property.PropertyService,
	content repositories.ContentRepository,
	assets repositories.AssetStore,
	site Site,
	log *logger.Logger,
) *APIHandler {
	if site.Location == nil {
		site.Location = time.UTC
	}
	return &APIHandler{
		propertyService: propertyService,
		content:         content,
		assets:          assets,
		site:            site,
		log:             log.Component("api-handler"),
	}
}

func (h *APIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/properties", h.handleProperties).Methods(http.MethodGet)
	r.HandleFunc("/api/properties/{ref}", h.handleProperty).Methods(http.MethodGet)
	r.HandleFunc("/api/assets/{id}", h.handleAsset).Methods(http.MethodGet)
	r.HandleFunc("/api/share", h.handleShare).Methods(http.MethodGet)
	r.HandleFunc("/api/sitemap", h.handleSitemap).Methods(http.MethodGet)
}

func (h *APIHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProperties serves one page of the public catalogue. Unparseable numeric filters
// and unknown types are ignored.
func (h *APIHandler) handleProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := domain.SearchCriteria{
		Location: q.Get("location"),
		MaxPrice: queryInt(q.Get("max_price")),
		MinRooms: queryInt(q.Get("min_rooms")),
		MinArea:  queryInt(q.Get("min_area")),
	}
	if t, ok := domain.LookupPropertyType(q.Get("type")); ok {
		criteria.Type = t
	}

	page, err := h.propertyService.Listings(r.Context(), criteria, queryInt(q.Get("page")))
	if err != nil {
		h.log.Error("list properties", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "could not load properties")
		return
	}
	writeJSON(w, http.StatusOK, models.NewPropertyPage(page))
}

func (h *APIHandler) handleProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.propertyService.FindByReference(r.Context(), mux.Vars(r)["ref"])
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		writeError(w, http.StatusNotFound, "property not found")
		return
	case err != nil:
		h.log.Error("find property", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "could not load property")
		return
	}
	if p.Hidden {
		writeError(w, http.StatusNotFound, "property not found")
		return
	}
	writeJSON(w, http.StatusOK, models.NewPropertyView(p))
}

func (h *APIHandler) handleAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assets.OpenAsset(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.log.Error("open asset", logger.Err(err))
		http.Error(w, "could not load asset", http.StatusInternalServerError)
		return
	}
	defer asset.Close()

	if asset.ContentType != "" {
		w.Header().Set("Content-Type", asset.ContentType)
	}
	if asset.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, asset); err != nil {
		h.log.Warn("stream asset", logger.Err(err))
	}
}

func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
