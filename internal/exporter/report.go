package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"infrapulse/pkg/contracts/domain"
)

// WriteReport encodes the report as indented JSON
func WriteReport(out io.Writer, report *domain.MarketHealthReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// SaveReport validates the report and replaces the file at path through a
// temp file in the same directory
func SaveReport(path string, report *domain.MarketHealthReport) error {
	if err := report.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteReport(tmp, report); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// LoadReport reads a report written by SaveReport
func LoadReport(path string) (*domain.MarketHealthReport, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report domain.MarketHealthReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &report, nil
}
