package source

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/tourcheck/pkg/logger"
)

// HTTPOption applies a configuration option to the HTTPSource.
type HTTPOption func(*HTTPSource)

// WithRankingsURL sets the rankings page.
func WithRankingsURL(url string) HTTPOption {
	return func(s *HTTPSource) {
		if url != "" {
			s.rankingsURL = url
		}
	}
}

// WithIndexURL sets the player index page. Empty disables it.
func WithIndexURL(url string) HTTPOption {
	return func(s *HTTPSource) {
		s.indexURL = url
	}
}

// WithTimeout sets the per-request client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the client. Its timeout is kept as given.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithRequestsPerSecond paces outbound requests.
func WithRequestsPerSecond(rps float64) HTTPOption {
	return func(s *HTTPSource) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(s *HTTPSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if l != nil {
			s.log = l
		}
	}
}
