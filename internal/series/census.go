package series

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/indicators"
	"infrapulse/internal/sources"
)

// CensusClient reads state population estimates from the Census PEP API.
// The API needs no key at low volume.
type CensusClient struct {
	fetcher *sources.Fetcher
	baseURL string
}

// NewCensusClient creates a client rooted at the data API base
// (https://api.census.gov/data)
func NewCensusClient(fetcher *sources.Fetcher, baseURL string) *CensusClient {
	return &CensusClient{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/")}
}

// Population returns the population and annual change of every region in
// fips (region code -> state FIPS) for one vintage year
func (c *CensusClient) Population(ctx context.Context, year int, fips map[string]string) ([]indicators.PopulationChange, error) {
	byFIPS := make(map[string]string, len(fips))
	codes := make([]string, 0, len(fips))
	for region, f := range fips {
		byFIPS[f] = region
		codes = append(codes, f)
	}
	sort.Strings(codes)

	q := url.Values{}
	q.Set("get", "NAME,POP,NPOPCHG")
	q.Set("for", "state:"+strings.Join(codes, ","))
	rawURL := fmt.Sprintf("%s/%d/pep/population?%s", c.baseURL, year, q.Encode())

	body, err := c.fetcher.Get(ctx, rawURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetch census %d: %w", year, err)
	}

	var table [][]string
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("decode census %d", year), err)
	}
	if len(table) < 2 {
		return nil, apperrors.NewEmptyError(fmt.Sprintf("census %d: no rows", year))
	}

	popCol, chgCol, stateCol := -1, -1, -1
	for i, h := range table[0] {
		h = strings.ToUpper(h)
		switch {
		case h == "STATE":
			stateCol = i
		case h == "NPOPCHG" || strings.HasPrefix(h, "NPOPCHG_"):
			chgCol = i
		case h == "POP" || strings.HasPrefix(h, "POP_"):
			popCol = i
		}
	}
	if popCol < 0 || stateCol < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("census %d: unexpected header %v", year, table[0]), nil)
	}

	out := make([]indicators.PopulationChange, 0, len(table)-1)
	for _, row := range table[1:] {
		if len(row) <= popCol || len(row) <= stateCol {
			continue
		}
		region, ok := byFIPS[row[stateCol]]
		if !ok {
			continue
		}
		pop, err := strconv.ParseFloat(row[popCol], 64)
		if err != nil || pop <= 0 {
			continue
		}
		var change float64
		if chgCol >= 0 && chgCol < len(row) {
			change, _ = strconv.ParseFloat(row[chgCol], 64)
		}
		out = append(out, indicators.PopulationChange{Region: region, Population: pop, Change: change})
	}
	if len(out) == 0 {
		return nil, apperrors.NewEmptyError(fmt.Sprintf("census %d: no matching states", year))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, nil
}
