package sources

import (
	"fmt"
	"net/http"

	"google.golang.org/api/option"

	"infrapulse/internal/config"
	apperrors "infrapulse/internal/errors"
)

// Provider kinds accepted in configuration
const (
	KindHTMLTable   = "html_table"
	KindLinks       = "links"
	KindText        = "text"
	KindRendered    = "rendered"
	KindSpreadsheet = "spreadsheet"
	KindSheets      = "sheets"
	KindStatic      = "static"
)

// Catalog builds providers from configuration. All HTTP providers share one
// fetcher so the per-host limiter spans the whole run.
type Catalog struct {
	fetcher    *Fetcher
	sheetsOpts []option.ClientOption
	headless   bool
}

// NewCatalog creates a catalog; a nil client gets the configured timeout
func NewCatalog(cfg config.SourcesConfig, client *http.Client) *Catalog {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	var sheetsOpts []option.ClientOption
	if cfg.SheetsAPIKey != "" {
		sheetsOpts = append(sheetsOpts, option.WithAPIKey(cfg.SheetsAPIKey))
	} else {
		sheetsOpts = append(sheetsOpts, option.WithoutAuthentication())
	}
	if cfg.SheetsEndpoint != "" {
		sheetsOpts = append(sheetsOpts, option.WithEndpoint(cfg.SheetsEndpoint))
	}
	return &Catalog{
		fetcher:    NewFetcher(client, NewHostLimiter(cfg.HostInterval, 1), cfg.UserAgent),
		sheetsOpts: sheetsOpts,
		headless:   cfg.Headless,
	}
}

// Regions builds the ordered provider tiers for every configured region
func (c *Catalog) Regions(regions []config.RegionConfig) ([]Region, error) {
	out := make([]Region, 0, len(regions))
	for _, rc := range regions {
		region := Region{Code: rc.Code, PortalURL: rc.PortalURL}
		for _, pc := range rc.Providers {
			p, err := c.Provider(pc)
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", rc.Code, err)
			}
			region.Providers = append(region.Providers, p)
		}
		out = append(out, region)
	}
	return out, nil
}

// Provider builds a single provider
func (c *Catalog) Provider(pc config.ProviderConfig) (Provider, error) {
	switch pc.Kind {
	case KindHTMLTable:
		return NewHTMLTableProvider(pc.Name, pc.URL, pc.Selector, c.fetcher), nil
	case KindLinks:
		return NewLinkListProvider(pc.Name, pc.URL, pc.Limit, c.fetcher), nil
	case KindText:
		return NewTextProvider(pc.Name, pc.URL, c.fetcher), nil
	case KindRendered:
		return NewRenderedProvider(pc.Name, pc.URL, RenderedOptions{
			WaitFor:  pc.WaitFor,
			Selector: pc.Selector,
			Links:    pc.Links,
			Headless: c.headless,
		}), nil
	case KindSpreadsheet:
		return NewSpreadsheetProvider(pc.Name, pc.URL, pc.Sheet, c.fetcher), nil
	case KindSheets:
		readRange := pc.Range
		if readRange == "" {
			readRange = pc.Sheet
		}
		return NewSheetsProvider(pc.Name, pc.SpreadsheetID, readRange, c.sheetsOpts...), nil
	case KindStatic:
		rows := make([]Row, 0, len(pc.Rows))
		for _, r := range pc.Rows {
			fields := make(map[string]string, len(r.Fields))
			for k, v := range r.Fields {
				fields[NormalizeLabel(k)] = v
			}
			rows = append(rows, Row{Fields: fields, Text: r.Text, URL: r.URL})
		}
		return NewStaticProvider(pc.Name, rows), nil
	}
	return nil, apperrors.NewConfigError(fmt.Sprintf("provider %s: unknown kind %q", pc.Name, pc.Kind), nil)
}
