package sources

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "infrapulse/internal/errors"
)

// SheetsProvider reads a letting schedule an agency publishes as a Google Sheet.
// The first row of the range is treated as the header.
type SheetsProvider struct {
	name          string
	spreadsheetID string
	readRange     string
	opts          []option.ClientOption
}

// NewSheetsProvider creates a Sheets-backed provider. opts carry the API key
// or credentials; tests also pass an endpoint override.
func NewSheetsProvider(name, spreadsheetID, readRange string, opts ...option.ClientOption) *SheetsProvider {
	return &SheetsProvider{name: name, spreadsheetID: spreadsheetID, readRange: readRange, opts: opts}
}

func (p *SheetsProvider) Name() string { return p.name }

func (p *SheetsProvider) Fetch(ctx context.Context, region string) (Batch, error) {
	srv, err := sheets.NewService(ctx, p.opts...)
	if err != nil {
		return Batch{}, apperrors.NewNetworkError("create sheets service", err)
	}
	resp, err := srv.Spreadsheets.Values.Get(p.spreadsheetID, p.readRange).Context(ctx).Do()
	if err != nil {
		return Batch{}, apperrors.NewNetworkError("read sheet "+p.spreadsheetID, err).
			WithContext("range", p.readRange)
	}
	if len(resp.Values) == 0 {
		return Batch{}, apperrors.NewEmptyError("sheet range " + p.readRange + " is empty")
	}

	grid := make([][]string, len(resp.Values))
	size := 0
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = fmt.Sprint(cell)
			size += len(grid[i][j])
		}
	}

	labels := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		labels[i] = NormalizeLabel(h)
	}
	return Batch{Rows: gridRows(grid[1:], labels), Bytes: size}, nil
}
