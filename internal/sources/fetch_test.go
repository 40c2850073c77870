package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "infrapulse/internal/errors"
	"infrapulse/pkg/contracts/domain"
)

// TestRedactURL tests that credential query values are masked
func TestRedactURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"api key", "https://api.example.test/series?api_key=SECRET&series_id=NYBPPRIVSA",
			"https://api.example.test/series?api_key=REDACTED&series_id=NYBPPRIVSA"},
		{"key and token", "https://api.example.test/data?key=SECRET&token=OTHER",
			"https://api.example.test/data?key=REDACTED&token=REDACTED"},
		{"mixed case", "https://api.example.test/data?API_KEY=SECRET",
			"https://api.example.test/data?API_KEY=REDACTED"},
		{"no secrets", "https://www.dot.ny.gov/bids?page=2", "https://www.dot.ny.gov/bids?page=2"},
		{"no query", "https://www.dot.ny.gov/bids", "https://www.dot.ny.gov/bids"},
		{"unparsable", "http://bad host/x?api_key=SECRET", "http://bad host/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactURL(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, "SECRET")
		})
	}
}

// TestFetcherErrorsHideCredentials tests that failed requests never echo the key
func TestFetcherErrorsHideCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	fetcher := newTestFetcher(srv)

	_, err := fetcher.Get(context.Background(), srv.URL+"?api_key=SECRET-FRED-KEY&series_id=NYBPPRIVSA", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	assert.NotContains(t, err.Error(), "SECRET-FRED-KEY")
	assert.Contains(t, err.Error(), "api_key=REDACTED")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.NotContains(t, appErr.Context["url"], "SECRET-FRED-KEY")

	// a refused connection surfaces a *url.Error from the client
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()
	_, err = fetcher.Get(context.Background(), closedURL+"?api_key=SECRET-FRED-KEY", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
	assert.NotContains(t, err.Error(), "SECRET-FRED-KEY")
}

// TestFetcherBodyLimit tests that oversized bodies fail as parse errors
func TestFetcherBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	fetcher := newTestFetcher(srv)
	fetcher.maxBytes = 64
	body, err := fetcher.Get(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Len(t, body, 64)

	fetcher.maxBytes = 63
	_, err = fetcher.Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	assert.Equal(t, domain.OutcomeParseError, classifyAttempt(err, 0))
}
