package sources

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	apperrors "infrapulse/internal/errors"
)

// RenderedProvider loads a script-driven portal in headless Chrome and reads
// the resulting DOM as tables (or as link listings when Links is set).
type RenderedProvider struct {
	name      string
	pageURL   string
	waitFor   string
	selector  string
	links     bool
	allocOpts []chromedp.ExecAllocatorOption
}

// RenderedOptions configures a RenderedProvider
type RenderedOptions struct {
	// WaitFor is a CSS selector that must be visible before the DOM is read
	WaitFor string
	// Selector picks the tables to read
	Selector string
	Links    bool
	Headless bool
}

// NewRenderedProvider creates a browser-backed provider
func NewRenderedProvider(name, pageURL string, opts RenderedOptions) *RenderedProvider {
	if opts.WaitFor == "" {
		opts.WaitFor = "body"
	}
	if opts.Selector == "" {
		opts.Selector = "table"
	}
	alloc := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	alloc = append(alloc, chromedp.Flag("headless", opts.Headless), chromedp.UserAgent(DefaultUserAgent))
	return &RenderedProvider{
		name:      name,
		pageURL:   pageURL,
		waitFor:   opts.WaitFor,
		selector:  opts.Selector,
		links:     opts.Links,
		allocOpts: alloc,
	}
}

func (p *RenderedProvider) Name() string { return p.name }

func (p *RenderedProvider) Fetch(ctx context.Context, region string) (Batch, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, p.allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var page string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(p.pageURL),
		chromedp.WaitVisible(p.waitFor, chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return Batch{}, apperrors.NewNetworkError("render "+p.pageURL, err).WithContext("url", p.pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Batch{Bytes: len(page)}, apperrors.NewParsingError("parse rendered "+p.pageURL, err)
	}
	if p.links {
		return Batch{Rows: extractLinks(doc, p.pageURL, DefaultLinkLimit), Bytes: len(page)}, nil
	}
	rows, err := extractTables(doc, p.selector, p.pageURL)
	return Batch{Rows: rows, Bytes: len(page)}, err
}
