package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "infrapulse/internal/errors"
)

// headerHints identify the header row of a bid tabulation workbook
var headerHints = []string{"description", "project", "contract", "estimate", "cost", "location", "letting", "date"}

// SpreadsheetProvider reads an .xlsx bid tab or letting schedule, either
// downloaded from an agency site or from a local path.
type SpreadsheetProvider struct {
	name     string
	location string
	sheet    string
	fetcher  *Fetcher
}

// NewSpreadsheetProvider creates a workbook provider. location is an http(s)
// URL or a filesystem path; an empty sheet picks the first sheet with data.
func NewSpreadsheetProvider(name, location, sheet string, fetcher *Fetcher) *SpreadsheetProvider {
	return &SpreadsheetProvider{name: name, location: location, sheet: sheet, fetcher: fetcher}
}

func (p *SpreadsheetProvider) Name() string { return p.name }

func (p *SpreadsheetProvider) Fetch(ctx context.Context, region string) (Batch, error) {
	var (
		f    *excelize.File
		size int
		err  error
	)
	if strings.HasPrefix(p.location, "http://") || strings.HasPrefix(p.location, "https://") {
		body, getErr := p.fetcher.Get(ctx, p.location,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,*/*;q=0.8")
		if getErr != nil {
			return Batch{}, getErr
		}
		size = len(body)
		f, err = excelize.OpenReader(bytes.NewReader(body))
	} else {
		f, err = excelize.OpenFile(p.location)
		if err != nil {
			return Batch{}, apperrors.NewNetworkError("open workbook "+p.location, err)
		}
	}
	if err != nil {
		return Batch{Bytes: size}, apperrors.NewParsingError("open workbook "+p.location, err)
	}
	defer f.Close()

	rows, err := p.readRows(f)
	if err != nil {
		return Batch{Bytes: size}, err
	}
	return Batch{Rows: sheetRows(rows), Bytes: size}, nil
}

func (p *SpreadsheetProvider) readRows(f *excelize.File) ([][]string, error) {
	raw := excelize.Options{RawCellValue: true}
	if p.sheet != "" {
		rows, err := f.GetRows(p.sheet, raw)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("read sheet %q", p.sheet), err)
		}
		return rows, nil
	}
	for _, name := range f.GetSheetList() {
		if rows, err := f.GetRows(name, raw); err == nil && len(rows) > 1 {
			return rows, nil
		}
	}
	return nil, apperrors.NewEmptyError("workbook has no sheet with data")
}

// sheetRows maps cell grids to rows keyed by the detected header row
func sheetRows(grid [][]string) []Row {
	header := detectHeader(grid)
	var labels []string
	if header >= 0 {
		for _, h := range grid[header] {
			labels = append(labels, NormalizeLabel(h))
		}
	}
	return gridRows(grid[header+1:], labels)
}

// detectHeader finds the first of the top rows with at least two labels and
// a known header word; titles above the header are skipped.
func detectHeader(grid [][]string) int {
	for i := 0; i < len(grid) && i < 10; i++ {
		filled := 0
		for _, c := range grid[i] {
			if strings.TrimSpace(c) != "" {
				filled++
			}
		}
		if filled < 2 {
			continue
		}
		if containsAny(strings.ToLower(strings.Join(grid[i], " ")), headerHints) {
			return i
		}
	}
	return -1
}

// gridRows turns a cell grid into rows, labelling cells by column header
func gridRows(grid [][]string, labels []string) []Row {
	var rows []Row
	for _, cells := range grid {
		row := Row{Fields: make(map[string]string)}
		var parts []string
		for i, cell := range cells {
			cell = cleanText(cell)
			if cell == "" {
				continue
			}
			label := fmt.Sprintf("col%d", i)
			if i < len(labels) && labels[i] != "" {
				label = labels[i]
			}
			row.Fields[label] = cell
			parts = append(parts, cell)
		}
		if len(parts) == 0 {
			continue
		}
		row.Text = strings.Join(parts, " | ")
		rows = append(rows, row)
	}
	return rows
}
