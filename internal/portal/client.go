// Package portal provides session-aware page retrieval from the
// e-procurement portal.
//
// The portal ties page access to a server-issued session cookie and embeds a
// literal marker in the HTML when the session has expired. The client owns
// the cookie jar, detects the marker, and recovers by calling the portal's
// restart endpoint once before retrying the original request.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonesrussell/tenderscan/internal/logger"
)

// Default client settings.
const (
	// DefaultUserAgent is the synthetic browser identification sent with
	// every request; the portal serves a degraded page to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Safari/605.1.15"
	// DefaultRequestTimeout bounds each round-trip; the portal is slow but
	// a stalled request must not stall the whole run.
	DefaultRequestTimeout = 30 * time.Second
	// SessionExpiredMarker is the literal string the portal embeds in HTML
	// to signal an invalidated session.
	SessionExpiredMarker = "Your session has timed out"
	// DefaultRestartPath is the endpoint that re-establishes a session.
	DefaultRestartPath = "/nicgep/app?service=restart"
)

// ErrFetchFailed is returned when a page could not be retrieved, including
// after the single session-restart recovery attempt.
var ErrFetchFailed = errors.New("fetch failed")

// Config holds portal client configuration.
type Config struct {
	// BaseURL is the portal origin, e.g. https://eproc.rajasthan.gov.in.
	BaseURL string
	// RestartPath is the session restart endpoint path.
	RestartPath string
	// UserAgent is the User-Agent header value.
	UserAgent string
	// RequestTimeout bounds each HTTP round-trip.
	RequestTimeout time.Duration
}

// Client fetches portal pages over a cookie-bearing session.
//
// A Client serves one run at a time; the session it owns must not be shared
// across concurrent runs.
type Client struct {
	http        *resty.Client
	baseURL     *url.URL
	restartPath string
	log         logger.Interface
}

// NewClient creates a portal client with a fresh cookie jar.
func NewClient(cfg Config, log logger.Interface) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RestartPath == "" {
		cfg.RestartPath = DefaultRestartPath
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetCookieJar(jar)
	httpClient.SetHeader("User-Agent", cfg.UserAgent)
	httpClient.SetTimeout(cfg.RequestTimeout)

	return &Client{
		http:        httpClient,
		baseURL:     base,
		restartPath: cfg.RestartPath,
		log:         log,
	}, nil
}

// Fetch retrieves a page over the current session.
//
// When the response body carries the session-expiry marker, Fetch calls the
// restart endpoint once and retries the original GET once. Any transport
// error, non-2xx status, or a second expiry yields an ErrFetchFailed-wrapped
// error; there are no further retries.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	if !strings.Contains(body, SessionExpiredMarker) {
		return body, nil
	}

	c.log.Warn("session expired, restarting", "url", pageURL)

	if _, restartErr := c.get(ctx, c.restartPath); restartErr != nil {
		return "", fmt.Errorf("session restart: %w", restartErr)
	}

	body, err = c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	if strings.Contains(body, SessionExpiredMarker) {
		return "", fmt.Errorf("%w: session expired again after restart: %s", ErrFetchFailed, pageURL)
	}

	return body, nil
}

// get performs a single GET and enforces a 2xx status.
func (c *Client) get(ctx context.Context, pageURL string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetchFailed, pageURL, err)
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: %s: http status %d", ErrFetchFailed, pageURL, resp.StatusCode())
	}

	return string(resp.Body()), nil
}

// Reset discards the current session by installing a fresh cookie jar.
func (c *Client) Reset() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}

	c.http.SetCookieJar(jar)

	return nil
}

// AbsoluteURL resolves an href from a portal page against the base URL.
// Absolute hrefs are returned unchanged.
func (c *Client) AbsoluteURL(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return c.baseURL.ResolveReference(ref).String()
}
