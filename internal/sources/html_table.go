package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "infrapulse/internal/errors"
)

// HTMLTableProvider reads project rows from the tables of an agency page.
// Header cells become field labels; rows without headers fall back to colN.
type HTMLTableProvider struct {
	name     string
	pageURL  string
	selector string
	fetcher  *Fetcher
}

// NewHTMLTableProvider creates a table provider. An empty selector matches every table.
func NewHTMLTableProvider(name, pageURL, selector string, fetcher *Fetcher) *HTMLTableProvider {
	if selector == "" {
		selector = "table"
	}
	return &HTMLTableProvider{name: name, pageURL: pageURL, selector: selector, fetcher: fetcher}
}

func (p *HTMLTableProvider) Name() string { return p.name }

func (p *HTMLTableProvider) Fetch(ctx context.Context, region string) (Batch, error) {
	body, err := p.fetcher.Get(ctx, p.pageURL, "")
	if err != nil {
		return Batch{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Batch{Bytes: len(body)}, apperrors.NewParsingError("parse "+p.pageURL, err)
	}
	rows, err := extractTables(doc, p.selector, p.pageURL)
	if err != nil {
		return Batch{Bytes: len(body)}, err
	}
	return Batch{Rows: rows, Bytes: len(body)}, nil
}

// extractTables turns every data row of the matched tables into a Row
func extractTables(doc *goquery.Document, selector, pageURL string) ([]Row, error) {
	tables := doc.Find(selector)
	if tables.Length() == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("no element matches %q", selector), nil).
			WithContext("url", pageURL)
	}
	base, _ := url.Parse(pageURL)

	var rows []Row
	tables.Each(func(_ int, table *goquery.Selection) {
		var headers []string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.ChildrenFiltered("th, td")
			if cells.Length() == 0 {
				return
			}
			if headers == nil && tr.ChildrenFiltered("td").Length() == 0 {
				cells.Each(func(_ int, c *goquery.Selection) {
					headers = append(headers, NormalizeLabel(c.Text()))
				})
				return
			}

			row := Row{Fields: make(map[string]string)}
			var parts []string
			cells.Each(func(i int, c *goquery.Selection) {
				text := cleanText(c.Text())
				if text == "" {
					return
				}
				parts = append(parts, text)
				label := fmt.Sprintf("col%d", i)
				if i < len(headers) && headers[i] != "" {
					label = headers[i]
				}
				row.Fields[label] = text
				if row.URL == "" {
					if href, ok := c.Find("a[href]").First().Attr("href"); ok {
						row.URL = resolveURL(base, href)
					}
				}
			})
			if len(parts) == 0 {
				return
			}
			row.Text = strings.Join(parts, " | ")
			rows = append(rows, row)
		})
	})
	return rows, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveURL makes href absolute against base. Non-http links resolve to "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
