package sources

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apperrors "infrapulse/internal/errors"
)

// minParagraph drops captions and button labels
const minParagraph = 20

// TextProvider turns a narrative page (project descriptions, a PDF rendered
// to HTML or plain text) into one row per paragraph.
type TextProvider struct {
	name    string
	pageURL string
	fetcher *Fetcher
}

// NewTextProvider creates a paragraph provider
func NewTextProvider(name, pageURL string, fetcher *Fetcher) *TextProvider {
	return &TextProvider{name: name, pageURL: pageURL, fetcher: fetcher}
}

func (p *TextProvider) Name() string { return p.name }

func (p *TextProvider) Fetch(ctx context.Context, region string) (Batch, error) {
	body, err := p.fetcher.Get(ctx, p.pageURL, "text/html,text/plain;q=0.9,*/*;q=0.5")
	if err != nil {
		return Batch{}, err
	}

	var paragraphs []string
	if looksLikeHTML(body) {
		doc, err := html.Parse(bytes.NewReader(body))
		if err != nil {
			return Batch{Bytes: len(body)}, apperrors.NewParsingError("parse "+p.pageURL, err)
		}
		paragraphs = htmlParagraphs(doc)
	} else {
		paragraphs = plainParagraphs(string(body))
	}

	rows := make([]Row, 0, len(paragraphs))
	for _, para := range paragraphs {
		rows = append(rows, Row{Text: para, URL: p.pageURL})
	}
	return Batch{Rows: rows, Bytes: len(body)}, nil
}

func looksLikeHTML(body []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.Contains(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<body")) || bytes.Contains(head, []byte("<p"))
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Li: true, atom.Dd: true, atom.Blockquote: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.Td: true,
}

// htmlParagraphs collects the text of block elements, skipping scripts,
// styles and page chrome.
func htmlParagraphs(doc *html.Node) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Header, atom.Footer:
				return
			}
			if blockAtoms[n.DataAtom] {
				if text := cleanText(nodeText(n)); len(text) >= minParagraph {
					out = append(out, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// plainParagraphs splits extracted document text on blank lines
func plainParagraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(s, "\n\n") {
		if text := cleanText(block); len(text) >= minParagraph {
			out = append(out, text)
		}
	}
	return out
}
