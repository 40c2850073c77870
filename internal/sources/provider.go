package sources

import (
	"context"
	"strings"
)

// Row is one raw record as a provider saw it, before normalization.
// Fields holds labeled cells (table headers, spreadsheet columns) keyed by
// a lowercased label; Text holds the row as free text.
type Row struct {
	Fields map[string]string
	Text   string
	URL    string
}

// Field returns the first non-empty value among the given labels
func (r Row) Field(labels ...string) string {
	for _, l := range labels {
		if v := strings.TrimSpace(r.Fields[l]); v != "" {
			return v
		}
	}
	return ""
}

// Batch is what a single provider fetch produced
type Batch struct {
	Rows  []Row
	Bytes int
}

// Provider is one named source tier for a region.
// Implementations must be safe to call concurrently for different regions
// and must not share mutable state with other providers.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, region string) (Batch, error)
}

// NormalizeLabel lowercases a header and collapses inner whitespace so that
// "Engineer's  Estimate" and "engineer's estimate" map to the same key.
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
