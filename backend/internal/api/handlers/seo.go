package handlers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// StaticRoutes are the site pages listed in the sitemap ahead of any document.
var StaticRoutes = []string{"/", "/biens", "/vendre", "/estimation", "/blog", "/contact"}

var shareTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<link rel="canonical" href="{{.URL}}">
<meta property="og:type" content="website">
<meta property="og:locale" content="fr_FR">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.URL}}">
{{- if .Image}}
<meta property="og:image" content="{{.Image}}">
{{- end}}
<meta name="twitter:card" content="{{if .Image}}summary_large_image{{else}}summary{{end}}">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
{{- if .Image}}
<meta name="twitter:image" content="{{.Image}}">
{{- end}}
</head>
<body>
<script>window.location.replace({{.URL}});</script>
<p><a href="{{.URL}}">{{.Title}}</a></p>
</body>
</html>
`))

type sharePage struct {
	Title       string
	Description string
	URL         string
	Image       string
}

// handleShare renders a crawler-friendly page for ?ref= that sends browsers on to the
// property page. Unknown or hidden properties redirect to the listing.
func (h *APIHandler) handleShare(w http.ResponseWriter, r *http.Request) {
	listing := h.site.URL + "/biens"
	ref := strings.TrimSpace(r.URL.Query().Get("ref"))
	if ref == "" {
		http.Redirect(w, r, listing, http.StatusTemporaryRedirect)
		return
	}

	p, err := h.propertyService.FindByReference(r.Context(), ref)
	if err != nil || p.Hidden {
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			h.log.Error("share lookup", "ref", ref, logger.Err(err))
		}
		http.Redirect(w, r, listing, http.StatusTemporaryRedirect)
		return
	}

	page := sharePage{
		Title:       p.Title,
		Description: shareDescription(p),
		URL:         fmt.Sprintf("%s/biens/%s", h.site.URL, p.ID),
	}
	if p.MainImage != nil {
		page.Image = fmt.Sprintf("%s/api/assets/%s", h.site.APIURL, p.MainImage.ID)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shareTemplate.Execute(w, page); err != nil {
		h.log.Warn("render share page", logger.Err(err))
	}
}

func shareDescription(p domain.PropertyDocument) string {
	parts := []string{string(p.Type), p.Location}
	if p.Area > 0 {
		parts = append(parts, fmt.Sprintf("%d m²", p.Area))
	}
	if p.Price > 0 {
		parts = append(parts, fmt.Sprintf("%d €", p.Price))
	}
	summary := strings.Join(parts, " · ")
	if p.Description == "" {
		return summary
	}
	return summary + " - " + truncate(p.Description, 160)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

func lastMod(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}

// handleSitemap lists the static routes, every public property, every article and every
// content page.
func (h *APIHandler) handleSitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	properties, err := h.propertyService.Published(ctx)
	if err != nil {
		h.sitemapError(w, err)
		return
	}
	articles, err := h.content.Articles(ctx)
	if err != nil {
		h.sitemapError(w, err)
		return
	}
	pages, err := h.content.Pages(ctx)
	if err != nil {
		h.sitemapError(w, err)
		return
	}

	set := urlSet{Xmlns: sitemapNS}
	for _, route := range StaticRoutes {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.site.URL + route, ChangeFreq: "weekly", Priority: "0.8"})
	}
	for _, p := range properties {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/biens/%s", h.site.URL, p.ID),
			LastMod:    lastMod(p.UpdatedAt, h.site.Location),
			ChangeFreq: "daily",
			Priority:   "0.9",
		})
	}
	for _, a := range articles {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:      fmt.Sprintf("%s/blog/%s", h.site.URL, a.Slug),
			LastMod:  lastMod(a.UpdatedAt, h.site.Location),
			Priority: "0.6",
		})
	}
	for _, p := range pages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:      fmt.Sprintf("%s/%s", h.site.URL, strings.TrimPrefix(p.Slug, "/")),
			LastMod:  lastMod(p.UpdatedAt, h.site.Location),
			Priority: "0.5",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.sitemapError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

func (h *APIHandler) sitemapError(w http.ResponseWriter, err error) {
	h.log.Error("build sitemap", logger.Err(err))
	http.Error(w, "could not build sitemap", http.StatusInternalServerError)
}
