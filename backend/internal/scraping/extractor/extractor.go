// backend/internal/scraping/extractor/extractor.go
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

// ErrExtraction wraps every failure to fetch or parse a listing page.
var ErrExtraction = errors.New("could not analyze page")

// Fetcher downloads a page body.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

const (
	priceContainers       = `.price, .prix, [class*="price"], [class*="prix"], [itemprop="price"]`
	descriptionContainers = `.description, #description, [class*="description"], [itemprop="description"]`
	galleryImages         = `[class*="gallery"] img, [class*="slider"] img, [class*="carousel"] img, [class*="swiper"] img`
)

// wholeNumber is a bare integer or one grouped in thousands by a single space, narrow
// space, non-breaking space or dot.
const wholeNumber = `\d{1,3}(?:[ \x{00a0}\x{202f}.]\d{3})+|\d+`

var (
	containerAmountRe = regexp.MustCompile(`(?:` + wholeNumber + `)(?:,\d{1,2})?`)
	pageAmountRe      = regexp.MustCompile(`(?i)((?:` + wholeNumber + `)(?:,\d{1,2})?)\s*(?:€|eur\b|euros?\b)`)
	referenceRe       = regexp.MustCompile(`(?i)(?:^|[^\p{L}])r[ée]f(?:[ée]rence)?\s*[:.]\s*([a-z0-9][a-z0-9-]*)`)
	areaRe            = regexp.MustCompile(`(?i)(` + wholeNumber + `)\s*m(?:²|2)`)
	roomsRe           = regexp.MustCompile(`(?i)(` + wholeNumber + `)\s*pi[èe]ces?`)
	bedroomsRe        = regexp.MustCompile(`(?i)(` + wholeNumber + `)\s*chambres?`)
	spacesRe          = regexp.MustCompile(`\s+`)
	nonDigitRe        = regexp.MustCompile(`\D`)
)

// Extractor turns a listing page into a normalized record on a best-effort basis.
// Every field is optional; absence yields the zero value or a default.
type Extractor struct {
	fetcher  Fetcher
	cities   []string
	fallback string
	log      *logger.Logger
}

func New(fetcher Fetcher, cities []string, fallbackLocation string, log *logger.Logger) *Extractor {
	return &Extractor{
		fetcher:  fetcher,
		cities:   cities,
		fallback: fallbackLocation,
		log:      log.Component("extractor"),
	}
}

// Extract fetches pageURL and parses it. It has no side effects beyond the HTTP request.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (domain.Record, error) {
	body, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		e.log.Warn("page fetch failed", "url", pageURL, logger.Err(err))
		return domain.Record{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	rec, err := e.Parse(body)
	if err != nil {
		return domain.Record{}, err
	}

	e.log.Debug("page analyzed", "url", pageURL, "reference", rec.Reference, "images", len(rec.ImageURLs))
	return rec, nil
}

// Parse extracts a record from an HTML document.
func (e *Extractor) Parse(body []byte) (domain.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: parse html: %w", ErrExtraction, err)
	}
	doc.Find("script, style, noscript").Remove()

	pageText := nodeText(doc.Find("body"))
	if pageText == "" {
		pageText = nodeText(doc.Selection)
	}

	title := collapse(doc.Find("h1").First().Text())

	rec := domain.Record{
		Title:       title,
		Type:        typeFromTitle(title),
		Price:       extractPrice(doc, pageText),
		Location:    e.locationFromTitle(title),
		Area:        firstInt(areaRe, pageText),
		Rooms:       firstInt(roomsRe, pageText),
		Bedrooms:    firstInt(bedroomsRe, pageText),
		Description: extractDescription(doc),
		ImageURLs:   extractImages(doc),
		Status:      domain.StatusAvailable,
		Hidden:      true,
	}
	if m := referenceRe.FindStringSubmatch(pageText); m != nil {
		rec.Reference = m[1]
	}

	return rec, nil
}

func typeFromTitle(title string) domain.PropertyType {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "appartement"):
		return domain.TypeApartment
	case strings.Contains(t, "terrain"):
		return domain.TypeLand
	default:
		return domain.TypeHouse
	}
}

func (e *Extractor) locationFromTitle(title string) string {
	t := strings.ToLower(title)
	for _, city := range e.cities {
		if city != "" && strings.Contains(t, strings.ToLower(city)) {
			return city
		}
	}
	return e.fallback
}

func extractPrice(doc *goquery.Document, pageText string) int {
	price := 0
	doc.Find(priceContainers).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := containerAmountRe.FindString(s.Text()); m != "" {
			price = ParseWholeNumber(m)
			return false
		}
		return true
	})
	if price > 0 {
		return price
	}
	if m := pageAmountRe.FindStringSubmatch(pageText); m != nil {
		return ParseWholeNumber(m[1])
	}
	return 0
}

func extractDescription(doc *goquery.Document) string {
	var parts []string
	doc.Find(descriptionContainers).
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			// nested matches are already covered by their outermost container
			return s.ParentsFiltered(descriptionContainers).Length() == 0
		}).
		Each(func(_ int, s *goquery.Selection) {
			if txt := nodeText(s); txt != "" {
				parts = append(parts, txt)
			}
		})
	return collapse(strings.Join(parts, " "))
}

func extractImages(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if !IsAbsoluteURL(u) {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		add(content)
	})
	if len(urls) > 0 {
		return urls
	}

	doc.Find(galleryImages).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if !IsAbsoluteURL(src) {
			src, _ = s.Attr("data-src")
		}
		add(src)
	})
	return urls
}

// IsAbsoluteURL reports whether u starts with an http or https scheme.
func IsAbsoluteURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ParseWholeNumber reads an amount written with any thousands separator, dropping a
// trailing decimal part of one or two digits. Unparseable input yields 0.
func ParseWholeNumber(s string) int {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, ".,"); i >= 0 {
		if tail := s[i+1:]; len(tail) > 0 && len(tail) <= 2 && nonDigitRe.FindStringIndex(tail) == nil {
			s = s[:i]
		}
	}
	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" || len(digits) > 12 {
		return 0
	}
	n := 0
	for _, d := range digits {
		n = n*10 + int(d-'0')
	}
	return n
}

func firstInt(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return ParseWholeNumber(m[1])
}

func collapse(s string) string {
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

// nodeText joins the text nodes of a selection with spaces so that adjacent elements
// ("<li>3 pièces</li><li>2 chambres</li>") do not run together. Where one node ends in a
// digit and the next starts with one, a " | " goes in between so that numbers from
// different elements never read as one grouped amount.
func nodeText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t == "" {
				return
			}
			if b.Len() > 0 {
				if endsWithDigit(b.String()) && startsWithDigit(t) {
					b.WriteString(" | ")
				} else {
					b.WriteByte(' ')
				}
			}
			b.WriteString(t)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return collapse(b.String())
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func endsWithDigit(s string) bool {
	return s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9'
}
