package series

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/sources"
)

// yearAgoOffset is the observation distance of a monthly year-over-year
// comparison; a usable series needs yearAgoOffset+1 points.
const yearAgoOffset = 12

// Observation is one dated value of a series
type Observation struct {
	Date  time.Time
	Value float64
}

// FREDClient reads series observations from the FRED API
type FREDClient struct {
	fetcher *sources.Fetcher
	baseURL string
	apiKey  string
}

// NewFREDClient creates a client. An empty key leaves the client unavailable.
func NewFREDClient(fetcher *sources.Fetcher, baseURL, apiKey string) *FREDClient {
	return &FREDClient{fetcher: fetcher, baseURL: baseURL, apiKey: apiKey}
}

// Available reports whether an API key is configured
func (c *FREDClient) Available() bool {
	return c != nil && c.apiKey != ""
}

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Observations returns up to limit observations, newest first. Missing
// values (".") are skipped.
func (c *FREDClient) Observations(ctx context.Context, seriesID string, limit int) ([]Observation, error) {
	if !c.Available() {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.fetcher.Get(ctx, c.baseURL+"?"+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetch fred %s: %w", seriesID, err)
	}

	var resp fredResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewParsingError("decode fred "+seriesID, err)
	}

	out := make([]Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == "." || o.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, _ := time.Parse("2006-01-02", o.Date)
		out = append(out, Observation{Date: d, Value: v})
	}
	return out, nil
}

// YearOverYear returns the latest value and the value twelve observations
// earlier
func (c *FREDClient) YearOverYear(ctx context.Context, seriesID string) (current, prior float64, err error) {
	obs, err := c.Observations(ctx, seriesID, 2*yearAgoOffset)
	if err != nil {
		return 0, 0, err
	}
	if len(obs) <= yearAgoOffset {
		return 0, 0, apperrors.NewEmptyError(fmt.Sprintf("fred %s: %d observations, need %d", seriesID, len(obs), yearAgoOffset+1))
	}
	return obs[0].Value, obs[yearAgoOffset].Value, nil
}
