// Package exporter writes a market health report in its output formats.
//
// The versioned JSON report is the primary contract and is written
// atomically so readers never see a partial file. The project list is also
// available as CSV (UTF-8 with BOM so Excel opens it cleanly) and as an
// Excel workbook with projects, indicators and coverage sheets.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths)
//	err := w.WriteProjects("projects_2026-03-02.csv", report.Projects)
//
//	err = exporter.SaveReport(paths.LatestJSON, report)
package exporter
