// backend/internal/scraping/collectors/page_collector.go
package collectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// PageCollector downloads single listing pages while presenting itself as a desktop browser,
// since several listing portals refuse non-browser clients.
type PageCollector struct {
	collector *colly.Collector
}

func NewPageCollector(userAgent string, timeout time.Duration) *PageCollector {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &PageCollector{collector: c}
}

// Fetch returns the raw body of pageURL. Transport failures and non-2xx responses are errors.
func (p *PageCollector) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	c := p.collector.Clone()
	c.Context = ctx

	var body []byte
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	c.OnError(func(r *colly.Response, e error) {
		fetchErr = fmt.Errorf("request URL %v failed with status %d: %w", r.Request.URL, r.StatusCode, e)
	})

	visitErr := c.Visit(pageURL)
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if visitErr != nil {
		return nil, fmt.Errorf("visit %s: %w", pageURL, visitErr)
	}
	if body == nil {
		return nil, errors.New("empty response body")
	}

	return body, nil
}
