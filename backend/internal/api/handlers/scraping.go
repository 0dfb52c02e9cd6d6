package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/immo-sys/backend/internal/api/models"
	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

type Scraper interface {
	Analyze(ctx context.Context, pageURL string) (domain.Record, error)
	ScrapeAndStore(ctx context.Context, pageURL string) (domain.Record, string, error)
}

type ScrapingHandler struct {
	scraper Scraper
	log     *logger.Logger
}

func NewScrapingHandler(scraper Scraper, log *logger.Logger) *ScrapingHandler {
	return &ScrapingHandler{scraper: scraper, log: log.Component("scrape-handler")}
}

func (h *ScrapingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/scrape", h.HandleScrape).Methods(http.MethodGet)
	r.HandleFunc("/api/scrape", h.HandleScrapeAndStore).Methods(http.MethodPost)
}

// HandleScrape returns the fields extracted from ?url= without storing anything.
// Failures only ever expose a generic message.
func (h *ScrapingHandler) HandleScrape(w http.ResponseWriter, r *http.Request) {
	pageURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	rec, err := h.scraper.Analyze(r.Context(), pageURL)
	if err != nil {
		h.log.Warn("scrape failed", "url", pageURL, logger.Err(err))
		writeError(w, http.StatusInternalServerError, "could not analyze page")
		return
	}
	writeJSON(w, http.StatusOK, models.NewScrapeResult(rec))
}

// HandleScrapeAndStore scrapes ?url= and creates a hidden property from it.
func (h *ScrapingHandler) HandleScrapeAndStore(w http.ResponseWriter, r *http.Request) {
	pageURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	rec, id, err := h.scraper.ScrapeAndStore(r.Context(), pageURL)
	if err != nil {
		h.log.Warn("scrape and store failed", "url", pageURL, logger.Err(err))
		writeError(w, http.StatusInternalServerError, "could not import page")
		return
	}
	writeJSON(w, http.StatusCreated, models.StoredScrape{ScrapeResult: models.NewScrapeResult(rec), DocumentID: id})
}
