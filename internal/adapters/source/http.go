// Package source provides roster data sources: an HTML scraper for the tour's
// public rankings and player index pages, and a static list.
package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/okian/tourcheck/pkg/logger"
)

// Defaults for the HTTP source.
const (
	DefaultRankingsURL = "https://www.wtatennis.com/rankings"
	DefaultIndexURL    = "https://www.wtatennis.com/players"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTimeout     = 10 * time.Second

	rankingsRowSelector  = "table tbody tr"
	rankingsCellSelector = "td:nth-child(2)"
	indexCellSelector    = "tbody tr .views-field-field-lastname"

	// minNameLength drops stray fragments such as initials.
	minNameLength = 3
)

// HTTPSource scrapes roster names. The rankings page is required; the player
// index page is best effort.
type HTTPSource struct {
	client      *http.Client
	rankingsURL string
	indexURL    string
	userAgent   string
	limiter     *rate.Limiter
	log         logger.Logger
}

// NewHTTPSource builds a scraper with defaults for every unset option.
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		client:      &http.Client{Timeout: DefaultTimeout},
		rankingsURL: DefaultRankingsURL,
		indexURL:    DefaultIndexURL,
		userAgent:   DefaultUserAgent,
		limiter:     rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetOr(logger.Discard()).Named("roster_source")
	}
	return s
}

// Fetch returns the de-duplicated names from both pages.
func (s *HTTPSource) Fetch(ctx context.Context) ([]string, error) {
	doc, err := s.get(ctx, s.rankingsURL)
	if err != nil {
		return nil, err
	}
	out := ParseRankings(doc)

	if s.indexURL != "" {
		idx, err := s.get(ctx, s.indexURL)
		if err != nil {
			s.log.Warn(ctx, "player index unavailable", logger.String("url", s.indexURL), logger.Error(err))
		} else {
			out = append(out, ParseIndex(idx)...)
		}
	}
	s.log.Debug(ctx, "roster pages parsed", logger.Int("names", len(out)))
	return dedupe(out), nil
}

func (s *HTTPSource) get(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrBadStatus, url, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// ParseRankings reads the player column of the rankings table. Cells carry
// extra text after a double space, which is dropped.
func ParseRankings(doc *goquery.Document) []string {
	var out []string
	doc.Find(rankingsRowSelector).Each(func(_ int, tr *goquery.Selection) {
		cell := strings.TrimSpace(tr.Find(rankingsCellSelector).Text())
		if cell == "" {
			return
		}
		name, _, _ := strings.Cut(cell, "  ")
		name = strings.TrimSpace(name)
		if len([]rune(name)) >= minNameLength {
			out = append(out, strings.ToLower(name))
		}
	})
	return out
}

// ParseIndex reads "Last, First" cells from the player index and returns
// "first last".
func ParseIndex(doc *goquery.Document) []string {
	var out []string
	doc.Find(indexCellSelector).Each(func(_ int, td *goquery.Selection) {
		lastFirst := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, td.Text())
		parts := strings.Split(lastFirst, ",")
		if len(parts) < 2 {
			return
		}
		name := strings.TrimSpace(parts[1] + " " + parts[0])
		if len([]rune(name)) >= minNameLength {
			out = append(out, strings.ToLower(name))
		}
	})
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, n := range in {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
