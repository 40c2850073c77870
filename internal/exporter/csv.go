package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"infrapulse/internal/config"
	"infrapulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ProjectHeaders are the columns of the project export
var ProjectHeaders = []string{
	"id", "region", "source", "project_number", "description", "location",
	"project_type", "cost_low", "cost_high", "value", "ad_date", "let_date",
	"fiscal_year", "status", "business_lines", "url",
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a writer resolving relative names against the
// reports directory
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(fileName string, options WriteOptions) error {
	fullPath := w.resolvePath(fileName)

	w.logger.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	headers := options.Headers
	if options.Append {
		headers = nil
	}
	return writeRecords(file, headers, options.Records)
}

// WriteProjects writes the project list to a CSV file
func (w *CSVWriter) WriteProjects(fileName string, projects []domain.ProjectRecord) error {
	return w.WriteCSV(fileName, WriteOptions{
		Headers:   ProjectHeaders,
		Records:   ProjectRows(projects),
		BOMPrefix: true,
	})
}

// resolvePath places relative names in the reports directory
func (w *CSVWriter) resolvePath(fileName string) string {
	if filepath.IsAbs(fileName) || w.paths == nil {
		return fileName
	}
	return filepath.Join(w.paths.ReportsDir, fileName)
}

// WriteProjectsCSV streams the project list as CSV, e.g. to an HTTP response
func WriteProjectsCSV(out io.Writer, projects []domain.ProjectRecord) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	return writeRecords(out, ProjectHeaders, ProjectRows(projects))
}

func writeRecords(out io.Writer, headers []string, records [][]string) error {
	writer := csv.NewWriter(out)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ProjectRows flattens records into CSV rows matching ProjectHeaders
func ProjectRows(projects []domain.ProjectRecord) [][]string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		value := ""
		if p.HasCost() {
			value = formatMoney(p.Value())
		}
		fy := ""
		if p.FiscalYear != nil {
			fy = p.FiscalYear.String()
		}
		lines := make([]string, len(p.BusinessLines))
		for i, l := range p.BusinessLines {
			lines[i] = string(l)
		}
		rows = append(rows, []string{
			p.ID,
			p.Region,
			p.SourceName,
			p.ProjectNumber,
			p.Description,
			p.Location,
			string(p.ProjectType),
			formatMoneyPtr(p.CostLow),
			formatMoneyPtr(p.CostHigh),
			value,
			formatDate(p.AdDate),
			formatDate(p.LetDate),
			fy,
			string(p.Status),
			strings.Join(lines, ";"),
			p.URL,
		})
	}
	return rows
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatMoneyPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatMoney(*v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
