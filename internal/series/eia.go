package series

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/sources"
)

// EIAClient reads weekly retail fuel prices from the EIA v2 API
type EIAClient struct {
	fetcher *sources.Fetcher
	baseURL string
	apiKey  string
	area    string
}

// NewEIAClient creates a client for one duoarea facet (R1X is PADD 1A)
func NewEIAClient(fetcher *sources.Fetcher, baseURL, apiKey, area string) *EIAClient {
	return &EIAClient{fetcher: fetcher, baseURL: baseURL, apiKey: apiKey, area: area}
}

// Available reports whether an API key is configured
func (c *EIAClient) Available() bool {
	return c != nil && c.apiKey != ""
}

// flexFloat accepts a JSON number or a numeric string
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type eiaResponse struct {
	Response struct {
		Data []struct {
			Period string    `json:"period"`
			Value  flexFloat `json:"value"`
		} `json:"data"`
	} `json:"response"`
}

// WeeklyPrices returns the last weeks prices of a product, oldest first
func (c *EIAClient) WeeklyPrices(ctx context.Context, product string, weeks int) ([]float64, error) {
	if !c.Available() {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("frequency", "weekly")
	q.Set("data[0]", "value")
	q.Set("facets[duoarea][]", c.area)
	q.Set("facets[product][]", product)
	q.Set("sort[0][column]", "period")
	q.Set("sort[0][direction]", "desc")
	q.Set("length", strconv.Itoa(weeks))

	body, err := c.fetcher.Get(ctx, c.baseURL+"?"+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetch eia %s: %w", product, err)
	}

	var resp eiaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewParsingError("decode eia "+product, err)
	}

	data := resp.Response.Data
	prices := make([]float64, 0, len(data))
	for i := len(data) - 1; i >= 0; i-- {
		if v := float64(data[i].Value); v > 0 {
			prices = append(prices, v)
		}
	}
	if len(prices) == 0 {
		return nil, apperrors.NewEmptyError("eia " + product + ": no prices")
	}
	return prices, nil
}
