package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "infrapulse/internal/errors"
)

const (
	// DefaultUserAgent identifies the aggregator to agency web servers
	DefaultUserAgent = "InfraPulse/0.3 (Construction Market Intelligence)"
	// DefaultMaxBodyBytes caps a single page or document download
	DefaultMaxBodyBytes = 20 << 20
)

// Fetcher performs polite GET requests on behalf of providers
type Fetcher struct {
	client    *http.Client
	limiter   *HostLimiter
	userAgent string
	maxBytes  int64
}

// NewFetcher creates a fetcher. A nil client gets a 30s timeout client and
// an empty user agent falls back to DefaultUserAgent.
func NewFetcher(client *http.Client, limiter *HostLimiter, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    client,
		limiter:   limiter,
		userAgent: userAgent,
		maxBytes:  DefaultMaxBodyBytes,
	}
}

// Client exposes the underlying HTTP client for SDK-backed providers
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Get downloads rawURL. Transport failures and non-2xx statuses come back
// as NETWORK errors, an empty body as an EMPTY error and a body over the
// size cap as a PARSING error. Errors carry the URL with credentials
// redacted.
func (f *Fetcher) Get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	safeURL := RedactURL(rawURL)
	if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, apperrors.NewNetworkError("wait for host slot", err).WithContext("url", safeURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("build request for "+safeURL, redactError(err, safeURL)).WithContext("url", safeURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept == "" {
		accept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("get "+safeURL, redactError(err, safeURL)).WithContext("url", safeURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewNetworkError(fmt.Sprintf("get %s: status %s", safeURL, resp.Status), nil).
			WithContext("url", safeURL).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("read body of "+safeURL, redactError(err, safeURL)).WithContext("url", safeURL)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, apperrors.NewParsingError(fmt.Sprintf("body of %s exceeds %d bytes", safeURL, f.maxBytes), nil).
			WithContext("url", safeURL)
	}
	if len(body) == 0 {
		return nil, apperrors.NewEmptyError("empty body from " + safeURL).WithContext("url", safeURL)
	}
	return body, nil
}

// secretParams are query parameters whose values never reach logs or errors
var secretParams = []string{"api_key", "apikey", "key", "token", "access_token"}

// RedactURL masks credential query values in rawURL. A URL that does not
// parse loses its whole query.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexByte(rawURL, '?'); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	if u.RawQuery == "" {
		return rawURL
	}
	q := u.Query()
	redacted := false
	for _, name := range secretParams {
		for key := range q {
			if strings.EqualFold(key, name) {
				q.Set(key, "REDACTED")
				redacted = true
			}
		}
	}
	if !redacted {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// redactError swaps the URL recorded in a *url.Error for its redacted form
func redactError(err error, safeURL string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: safeURL, Err: ue.Err}
	}
	return err
}
