package sources

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "infrapulse/internal/errors"
)

// DefaultLinkLimit caps how many listings a single page contributes
const DefaultLinkLimit = 15

var (
	navigationWords = []string{
		"privacy", "contact us", "home", "menu", "login", "search",
		"skip to", "accessibility", "footer",
	}
	projectWords = []string{
		"project", "bid", "construction", "highway", "bridge", "contract",
		"award", "route", "i-", "us-", "sr-", "letting",
	}
)

// LinkListProvider reads project listings published as anchors on a DOT page
type LinkListProvider struct {
	name    string
	pageURL string
	limit   int
	fetcher *Fetcher
}

// NewLinkListProvider creates a link provider. A non-positive limit uses DefaultLinkLimit.
func NewLinkListProvider(name, pageURL string, limit int, fetcher *Fetcher) *LinkListProvider {
	if limit <= 0 {
		limit = DefaultLinkLimit
	}
	return &LinkListProvider{name: name, pageURL: pageURL, limit: limit, fetcher: fetcher}
}

func (p *LinkListProvider) Name() string { return p.name }

func (p *LinkListProvider) Fetch(ctx context.Context, region string) (Batch, error) {
	body, err := p.fetcher.Get(ctx, p.pageURL, "")
	if err != nil {
		return Batch{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Batch{Bytes: len(body)}, apperrors.NewParsingError("parse "+p.pageURL, err)
	}
	return Batch{Rows: extractLinks(doc, p.pageURL, p.limit), Bytes: len(body)}, nil
}

// extractLinks keeps anchors that read like project listings
func extractLinks(doc *goquery.Document, pageURL string, limit int) []Row {
	base, _ := url.Parse(pageURL)
	seen := make(map[string]bool)

	var rows []Row
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := cleanText(a.Text())
		if len(text) < 10 || len(text) > 250 {
			return true
		}
		lower := strings.ToLower(text)
		if containsAny(lower, navigationWords) || !containsAny(lower, projectWords) {
			return true
		}
		href, _ := a.Attr("href")
		abs := resolveURL(base, href)
		if abs == "" || seen[abs] {
			return true
		}
		seen[abs] = true

		rows = append(rows, Row{
			Fields: map[string]string{"title": text},
			Text:   text,
			URL:    abs,
		})
		return len(rows) < limit
	})
	return rows
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
