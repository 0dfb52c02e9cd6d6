package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps-vitor/immo-sys/backend/internal/alerts"
	"github.com/ps-vitor/immo-sys/backend/internal/api/handlers"
	"github.com/ps-vitor/immo-sys/backend/internal/api/models"
	"github.com/ps-vitor/immo-sys/backend/internal/api/services"
	"github.com/ps-vitor/immo-sys/backend/internal/assets"
	"github.com/ps-vitor/immo-sys/backend/internal/auth"
	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
	"github.com/ps-vitor/immo-sys/backend/internal/rows"
	"github.com/ps-vitor/immo-sys/backend/internal/services/bulk"
	"github.com/ps-vitor/immo-sys/backend/internal/services/importer"
	property "github.com/ps-vitor/immo-sys/backend/internal/services/property"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

const (
	site       = "https://immo.example.fr"
	apiSite    = "https://api.immo.example.fr"
	adminSecret = "operator-secret"
)

var updated = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type stubScraper struct {
	rec domain.Record
	err error
}

func (s stubScraper) Analyze(context.Context, string) (domain.Record, error) {
	return s.rec, s.err
}

func (s stubScraper) ScrapeAndStore(context.Context, string) (domain.Record, string, error) {
	return s.rec, "doc-1", s.err
}

type stubLeads struct {
	got []services.Lead
	err error
}

func (s *stubLeads) Submit(_ context.Context, l services.Lead) error {
	s.got = append(s.got, l)
	return s.err
}

type env struct {
	router *mux.Router
	repo   *repositories.MemoryPropertyRepository
	assets *repositories.MemoryAssetStore
	alerts *alerts.Store
	leads  *stubLeads
	token  string
}

func newEnv(t *testing.T, scraper handlers.Scraper) *env {
	t.Helper()
	log := logger.Discard()
	repo := repositories.NewMemoryPropertyRepository(
		domain.PropertyDocument{ID: "p-public", Reference: "AB-123", Title: "Maison à Orange", Type: domain.TypeHouse,
			Location: "Orange", Price: 250000, Area: 115, Status: domain.StatusAvailable,
			Amenities: []domain.Amenity{domain.AmenityPool},
			MainImage: &domain.UploadedAsset{ID: "asset-1"}, UpdatedAt: updated, CreatedAt: updated},
		domain.PropertyDocument{ID: "p-hidden", Reference: "HID-1", Title: "Brouillon", Hidden: true,
			Status: domain.StatusAvailable, CreatedAt: updated},
		domain.PropertyDocument{ID: "p-sold", Reference: "SOLD-1", Title: "Vendue", Status: domain.StatusSold,
			CreatedAt: updated},
	)
	content := &repositories.MemoryContentRepository{
		ArticleEntries: []domain.ContentEntry{{ID: "a1", Slug: "marche-2025", UpdatedAt: updated}},
		PageEntries:    []domain.ContentEntry{{ID: "pg1", Slug: "mentions-legales", UpdatedAt: updated}},
	}
	store := repositories.NewMemoryAssetStore()
	_, err := store.UploadAsset(context.Background(), "main.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	uploader := assets.NewUploader(http.DefaultClient, store, "", log)
	creator := importer.NewCreator(uploader, repo, importer.DefaultMaxExtraImages, log)
	orchestrator := importer.NewOrchestrator(rows.NewNormalizer(rows.RandomReferences{Length: 8}, "Vaucluse"), creator, log)
	tracker := importer.NewTracker(context.Background(), orchestrator, log)

	alertStore := alerts.NewMemoryStore()
	leads := &stubLeads{}

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	siteInfo := handlers.Site{URL: site, APIURL: apiSite, Location: paris}

	token, err := auth.Issue(adminSecret, "test-operator", time.Hour, time.Now())
	require.NoError(t, err)

	router := handlers.NewRouter(log, adminSecret, handlers.Routes{
		Public: []handlers.RouteRegistrar{
			handlers.NewAPIHandler(property.NewPropertyService(repo), content, store, siteInfo, log),
			handlers.NewPublicHandler(alertStore, leads, log),
		},
		Admin: []handlers.RouteRegistrar{
			handlers.NewScrapingHandler(scraper, log),
			handlers.NewImportHandler(tracker, bulk.NewService(repo, alertStore, log), log),
		},
	})
	return &env{router: router, repo: repo, assets: store, alerts: alertStore, leads: leads, token: token}
}

// do sends the request as the operator; anon sends it without credentials.
func (e *env) do(method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.token)
	return e.serve(req)
}

func (e *env) anon(method, target string, body string) *httptest.ResponseRecorder {
	return e.serve(httptest.NewRequest(method, target, strings.NewReader(body)))
}

func (e *env) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestScrape(t *testing.T) {
	e := newEnv(t, stubScraper{rec: domain.Record{
		Title: "Maison à Orange", Type: domain.TypeHouse, Location: "Orange",
		Rooms: 3, Bedrooms: 2, Area: 115, Reference: "AB-123",
	}})

	rec := e.do(http.MethodGet, "/api/scrape?url=https%3A%2F%2Fsource.example%2Fbien", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Maison", got["type"])
	assert.Equal(t, "Orange", got["location"])
	assert.EqualValues(t, 115, got["surface"])
	assert.EqualValues(t, 3, got["rooms"])
	assert.EqualValues(t, 2, got["bedrooms"])
	assert.Equal(t, "AB-123", got["reference"])
	assert.Equal(t, []any{}, got["images"])
	for _, key := range []string{"title", "price", "description"} {
		assert.Contains(t, got, key)
	}
}

func TestScrapeErrors(t *testing.T) {
	e := newEnv(t, stubScraper{err: errors.New("dial tcp: connection refused")})

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/scrape", "").Code)

	rec := e.do(http.MethodGet, "/api/scrape?url=https://down.example", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestScrapeAndStore(t *testing.T) {
	e := newEnv(t, stubScraper{rec: domain.Record{Title: "Terrain", Type: domain.TypeLand}})
	rec := e.do(http.MethodPost, "/api/scrape?url=https://source.example/t", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.StoredScrape
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, domain.TypeLand, got.Type)
}

func TestShareRendersMetaTags(t *testing.T) {
	e := newEnv(t, stubScraper{})
	rec := e.do(http.MethodGet, "/api/share?ref=AB-123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, `property="og:title" content="Maison à Orange"`)
	assert.Contains(t, body, `property="og:url" content="`+site+`/biens/p-public"`)
	assert.Contains(t, body, `name="twitter:card" content="summary_large_image"`)
	assert.Contains(t, body, `property="og:image" content="`+apiSite+`/api/assets/asset-1"`)
	assert.Contains(t, body, "window.location.replace")
}

func TestShareIgnoresRequestHost(t *testing.T) {
	e := newEnv(t, stubScraper{})
	req := httptest.NewRequest(http.MethodGet, "/api/share?ref=AB-123", nil)
	req.Host = "attacker.example"
	req.Header.Set("X-Forwarded-Proto", "javascript")

	rec := e.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "attacker.example")
	assert.Contains(t, rec.Body.String(), apiSite+"/api/assets/asset-1")
}

func TestShareRedirectsUnknownOrHidden(t *testing.T) {
	e := newEnv(t, stubScraper{})
	for _, target := range []string{"/api/share?ref=NOPE", "/api/share?ref=HID-1", "/api/share"} {
		rec := e.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code, target)
		assert.Equal(t, site+"/biens", rec.Header().Get("Location"), target)
	}
}

func TestSitemap(t *testing.T) {
	e := newEnv(t, stubScraper{})
	rec := e.do(http.MethodGet, "/api/sitemap", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")

	var set struct {
		URLs []struct {
			Loc     string `xml:"loc"`
			LastMod string `xml:"lastmod"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &set))

	locs := map[string]string{}
	for _, u := range set.URLs {
		locs[u.Loc] = u.LastMod
	}
	assert.Len(t, set.URLs, len(handlers.StaticRoutes)+3)
	assert.Contains(t, locs, site+"/")
	assert.Equal(t, "2025-03-14", locs[site+"/biens/p-public"])
	assert.Equal(t, "2025-03-14", locs[site+"/blog/marche-2025"])
	assert.Contains(t, locs, site+"/mentions-legales")
	assert.NotContains(t, locs, site+"/biens/p-hidden")
	assert.NotContains(t, locs, site+"/biens/p-sold")
}

func TestPropertiesListsNonHidden(t *testing.T) {
	e := newEnv(t, stubScraper{})
	rec := e.do(http.MethodGet, "/api/properties", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.PropertyPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.TotalItems)

	assert.Equal(t, http.StatusNotFound, e.anon(http.MethodGet, "/api/properties/HID-1", "").Code)
	assert.Equal(t, http.StatusOK, e.anon(http.MethodGet, "/api/properties/AB-123", "").Code)
}

func TestPropertyAmenitiesCarryLabelAndIcon(t *testing.T) {
	e := newEnv(t, stubScraper{})
	rec := e.anon(http.MethodGet, "/api/properties/AB-123", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Amenities []models.AmenityView `json:"amenities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []models.AmenityView{{Name: "pool", Label: "Piscine", Icon: "waves"}}, got.Amenities)
}

func TestPropertiesTypeFilter(t *testing.T) {
	e := newEnv(t, stubScraper{})
	count := func(target string) int {
		rec := e.anon(http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var page models.PropertyPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		return page.TotalItems
	}

	assert.Equal(t, 1, count("/api/properties?type=Maison"))
	assert.Equal(t, 0, count("/api/properties?type=terrain"))
	assert.Equal(t, 2, count("/api/properties?type=castle"))
}

func TestAssetStreaming(t *testing.T) {
	e := newEnv(t, stubScraper{})
	rec := e.do(http.MethodGet, "/api/assets/asset-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/assets/missing", "").Code)
}

func TestImportLifecycle(t *testing.T) {
	e := newEnv(t, stubScraper{})
	csv := "reference;prix;ville;titre\nR-1;100000;Orange;Maison\nR-2;200000;Piolenc;Villa\n"

	rec := e.do(http.MethodPost, "/api/import", csv)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted models.ImportAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.BatchID)

	var status models.BatchStatus
	require.Eventually(t, func() bool {
		rec := e.do(http.MethodGet, "/api/import/"+accepted.BatchID, "")
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.State == importer.StateCompleted
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, status.ProcessedCount)
	assert.Equal(t, 2, status.Successes)
	assert.Equal(t, []string{"✅ R-1 imported", "✅ R-2 imported"}, status.Lines)

	doc, err := e.repo.FindByReference(context.Background(), "R-2")
	require.NoError(t, err)
	assert.True(t, doc.Hidden)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, "/api/import/"+accepted.BatchID, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/import/"+accepted.BatchID, "").Code)
}

func TestImportMultipartAndBadInput(t *testing.T) {
	e := newEnv(t, stubScraper{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "biens.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("reference,prix\nM-1,90000\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	assert.Equal(t, http.StatusAccepted, e.serve(req).Code)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/import", "reference,prix\n").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/import/unknown", "").Code)
}

func TestImportRejectsOversizedUpload(t *testing.T) {
	e := newEnv(t, stubScraper{})
	body := "reference,description\nBIG-1," + strings.Repeat("x", 11<<20) + "\n"

	rec := e.do(http.MethodPost, "/api/import", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBulk(t *testing.T) {
	e := newEnv(t, stubScraper{})

	rec := e.do(http.MethodPost, "/api/bulk", `{"action":"publish","references":["HID-1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"affected":1}`, rec.Body.String())
	doc, err := e.repo.FindByReference(context.Background(), "HID-1")
	require.NoError(t, err)
	assert.False(t, doc.Hidden)

	rec = e.do(http.MethodPost, "/api/bulk", `{"action":"status","references":["AB-123"],"status":"vendu"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err = e.repo.FindByReference(context.Background(), "AB-123")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, doc.Status)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/bulk", `{"action":"delete","references":["AB-123","NOPE"]}`).Code)
	_, err = e.repo.FindByReference(context.Background(), "AB-123")
	assert.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/bulk", `{"action":"explode","references":["AB-123"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/bulk", `{"action":"hide","references":[]}`).Code)
}

func TestBulkRejectsUnknownStatus(t *testing.T) {
	e := newEnv(t, stubScraper{})

	rec := e.do(http.MethodPost, "/api/bulk", `{"action":"status","references":["SOLD-1"],"status":"solde"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown status")

	doc, err := e.repo.FindByReference(context.Background(), "SOLD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, doc.Status)
}

func TestBulkPublishReportsAlertMatches(t *testing.T) {
	e := newEnv(t, stubScraper{})
	alert, err := e.alerts.Add(context.Background(), alerts.Alert{Email: "a@b.fr"})
	require.NoError(t, err)

	rec := e.do(http.MethodPost, "/api/bulk", `{"action":"publish","references":["HID-1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.BulkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Affected)
	assert.Equal(t, []bulk.AlertMatch{{Reference: "HID-1", AlertID: alert.ID, Email: "a@b.fr"}}, got.Matches)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newEnv(t, stubScraper{rec: domain.Record{Title: "x"}})

	rec := e.anon(http.MethodPost, "/api/bulk", `{"action":"delete","references":["AB-123","HID-1","SOLD-1"]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	docs, err := e.repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	for _, r := range []struct{ method, target string }{
		{http.MethodPost, "/api/import"},
		{http.MethodGet, "/api/import/any"},
		{http.MethodPost, "/api/import/any/cancel"},
		{http.MethodDelete, "/api/import/any"},
		{http.MethodGet, "/api/scrape?url=http://10.0.0.1/"},
		{http.MethodPost, "/api/scrape?url=http://10.0.0.1/"},
	} {
		assert.Equal(t, http.StatusUnauthorized, e.anon(r.method, r.target, "").Code, r.target)
	}

	forged, err := auth.Issue("not-the-secret", "intruder", time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := auth.Issue(adminSecret, "test-operator", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	for _, header := range []string{"Bearer wrong", "Bearer " + forged, "Bearer " + expired, e.token} {
		req := httptest.NewRequest(http.MethodPost, "/api/bulk", strings.NewReader(`{"action":"hide","references":["AB-123"]}`))
		req.Header.Set("Authorization", header)
		assert.Equal(t, http.StatusUnauthorized, e.serve(req).Code, header)
	}

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/scrape?url=https://source.example/x", "").Code)
	assert.Equal(t, http.StatusOK, e.anon(http.MethodGet, "/api/properties", "").Code)
	assert.Equal(t, http.StatusOK, e.anon(http.MethodGet, "/health", "").Code)
}

func TestEmptyAdminSecretLocksAdminRoutes(t *testing.T) {
	router := handlers.NewRouter(logger.Discard(), "", handlers.Routes{
		Admin: []handlers.RouteRegistrar{handlers.NewScrapingHandler(stubScraper{}, logger.Discard())},
	})
	token, err := auth.Issue("whatever-was-used-before", "ops", time.Hour, time.Now())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/scrape?url=https://source.example/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAlertsRoutes(t *testing.T) {
	e := newEnv(t, stubScraper{})

	rec := e.do(http.MethodPost, "/api/alerts", `{"email":"a@b.fr","criteria":{"location":"Orange","max_price":300000}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var saved alerts.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "Orange", saved.Criteria.Location)

	rec = e.do(http.MethodGet, "/api/alerts", "")
	var list []alerts.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, "/api/alerts/"+saved.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/api/alerts/"+saved.ID, "").Code)
}

func TestMortgage(t *testing.T) {
	e := newEnv(t, stubScraper{})

	rec := e.do(http.MethodGet, "/api/mortgage?amount=120000&rate=0&years=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"monthly_payment":1000`)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/mortgage?principal=abc&rate=3&years=20", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/mortgage?principal=1000&rate=3&years=0", "").Code)
}

func TestLeads(t *testing.T) {
	e := newEnv(t, stubScraper{})

	rec := e.do(http.MethodPost, "/api/leads", `{"name":"Jeanne","email":"j@example.fr","reference":"AB-123"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, e.leads.got, 1)
	assert.Equal(t, "AB-123", e.leads.got[0].Reference)

	e.leads.err = services.ErrInvalidLead
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/leads", `{}`).Code)

	e.leads.err = errors.New("relay down")
	assert.Equal(t, http.StatusBadGateway, e.do(http.MethodPost, "/api/leads", `{"name":"x","phone":"1"}`).Code)
}

func TestHealth(t *testing.T) {
	e := newEnv(t, stubScraper{})
	rec := e.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
