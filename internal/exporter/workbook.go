package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"infrapulse/pkg/contracts/domain"
)

const (
	sheetProjects   = "Projects"
	sheetIndicators = "Indicators"
	sheetCoverage   = "Coverage"
)

// Workbook builds an Excel workbook with projects, indicators and coverage
// sheets. The caller closes the returned file.
func Workbook(report *domain.MarketHealthReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetProjects); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{sheetIndicators, sheetCoverage} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, *domain.MarketHealthReport, int) error{
		writeProjectSheet,
		writeIndicatorSheet,
		writeCoverageSheet,
	}
	for _, step := range steps {
		if err := step(f, report, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("build workbook: %w", err)
		}
	}
	return f, nil
}

// WriteWorkbook streams the workbook in xlsx format
func WriteWorkbook(out io.Writer, report *domain.MarketHealthReport) error {
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook to path
func SaveWorkbook(path string, report *domain.MarketHealthReport) error {
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, header int, headers []string, rows [][]interface{}) error {
	hdr := make([]interface{}, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeProjectSheet(f *excelize.File, report *domain.MarketHealthReport, header int) error {
	text := ProjectRows(report.Projects)
	rows := make([][]interface{}, len(report.Projects))
	for i, p := range report.Projects {
		row := make([]interface{}, len(text[i]))
		for j, v := range text[i] {
			row[j] = v
		}
		// costs stay numeric so the sheet can sum them
		if p.CostLow != nil {
			row[7] = *p.CostLow
		}
		if p.CostHigh != nil {
			row[8] = *p.CostHigh
		}
		if p.HasCost() {
			row[9] = p.Value()
		}
		rows[i] = row
	}
	if err := writeRows(f, sheetProjects, header, ProjectHeaders, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetProjects, "E", "E", 60)
}

func writeIndicatorSheet(f *excelize.File, report *domain.MarketHealthReport, header int) error {
	var rows [][]interface{}
	for _, s := range report.Health.Ordered() {
		rows = append(rows, []interface{}{
			string(s.Name), s.RawValue, s.Score, string(s.Trend),
			s.ChangePct, string(s.ConfidenceSource), s.RecommendedAction,
		})
	}
	rows = append(rows, []interface{}{
		"overall", nil, report.Health.OverallScore, string(report.Health.OverallStatus),
	})
	headers := []string{"indicator", "raw_value", "score", "trend", "change_pct", "source", "action"}
	if err := writeRows(f, sheetIndicators, header, headers, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetIndicators, "G", "G", 60)
}

func writeCoverageSheet(f *excelize.File, report *domain.MarketHealthReport, header int) error {
	var rows [][]interface{}
	for _, rc := range report.Coverage.Regions {
		provider := ""
		if res, ok := report.Resolution(rc.Region); ok {
			provider = res.Provider
		}
		rows = append(rows, []interface{}{
			rc.Region, rc.ApportionmentRatio, rc.HasData, rc.RecordCount,
			rc.CapturedTotal, rc.EstimatedTotal, rc.Estimated, provider,
		})
	}
	c := report.Coverage
	rows = append(rows, []interface{}{
		"total", c.CapturedRatio, nil, len(report.Projects),
		c.CapturedRawTotal, c.ExtrapolatedTotal, c.Extrapolated,
	})
	headers := []string{"region", "apportionment", "has_data", "records", "captured", "estimated", "extrapolated", "provider"}
	return writeRows(f, sheetCoverage, header, headers, rows)
}
