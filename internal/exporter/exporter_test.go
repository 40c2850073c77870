package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"infrapulse/internal/config"
	"infrapulse/pkg/contracts"
	"infrapulse/pkg/contracts/domain"
)

func ptr[T any](v T) *T { return &v }

func testReport() *domain.MarketHealthReport {
	let := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	scores := make(map[domain.IndicatorName]domain.IndicatorScore)
	for _, name := range domain.AllIndicators() {
		scores[name] = domain.IndicatorScore{
			Name:              name,
			RawValue:          100,
			Score:             6,
			Trend:             domain.TrendStable,
			RecommendedAction: "Hold",
			ConfidenceSource:  domain.SourceFallback,
		}
	}
	return &domain.MarketHealthReport{
		Schema:        contracts.ReportSchema,
		Version:       contracts.DataFormatVersion,
		RunID:         "6f1c9a7e-2b9d-4c1e-9a53-1f2d3c4b5a60",
		GeneratedAt:   time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC),
		ReferenceTime: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Projects: []domain.ProjectRecord{
			{
				ID: "p1", Region: "NY", SourceName: "nysdot-html", Description: "Bridge replacement, Hudson River",
				ProjectType: domain.ProjectTypeBridge, CostLow: ptr(8_000_000.0), CostHigh: ptr(12_000_000.0),
				LetDate: &let, FiscalYear: &domain.FiscalYear{Start: 2026, End: 2026}, Status: domain.StatusConfirmed,
				BusinessLines: []domain.BusinessLine{domain.BusinessLineConcrete, domain.BusinessLineHighway},
			},
			{
				ID: "p2", Region: "VT", SourceName: "portal-stub", Description: "Check portal",
				ProjectType: domain.ProjectTypeOther, Status: domain.StatusVerify,
			},
		},
		Coverage: domain.CoverageSummary{
			Regions: []domain.RegionCoverage{
				{Region: "NY", ApportionmentRatio: 0.3262, HasData: true, RecordCount: 1, CapturedTotal: 10_000_000, EstimatedTotal: 10_000_000},
				{Region: "VT", ApportionmentRatio: 0.026, EstimatedTotal: 797_057, Estimated: true},
			},
			CapturedRatio:     0.3262,
			CapturedRawTotal:  10_000_000,
			ExtrapolatedTotal: 30_656_039,
			Extrapolated:      true,
		},
		Resolutions: []domain.RegionResolution{{Region: "NY", Provider: "nysdot-html"}, {Region: "VT", Stubbed: true}},
		Health: domain.CompositeHealth{
			IndicatorScores: scores,
			OverallScore:    6,
			OverallStatus:   domain.HealthWatchlist,
			GeneratedAt:     time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC),
		},
	}
}

func TestProjectRows(t *testing.T) {
	rows := ProjectRows(testReport().Projects)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Len(t, r, len(ProjectHeaders))
	}

	assert.Equal(t, []string{
		"p1", "NY", "nysdot-html", "", "Bridge replacement, Hudson River", "",
		"bridge", "8000000.00", "12000000.00", "10000000.00", "", "2026-04-01",
		"FY2026", "confirmed", "concrete;highway", "",
	}, rows[0])

	// stubs carry no cost and no value
	assert.Equal(t, "", rows[1][7])
	assert.Equal(t, "", rows[1][9])
	assert.Equal(t, "verify", rows[1][13])
}

func TestWriteProjectsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProjectsCSV(&buf, testReport().Projects))
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ProjectHeaders, records[0])
	assert.Equal(t, "Bridge replacement, Hudson River", records[1][4])
}

func TestCSVWriterFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(&config.Paths{ReportsDir: filepath.Join(dir, "reports")}, nil)

	require.NoError(t, w.WriteProjects("projects.csv", testReport().Projects))
	require.NoError(t, w.WriteCSV("projects.csv", WriteOptions{
		Headers: ProjectHeaders,
		Records: [][]string{make([]string, len(ProjectHeaders))},
		Append:  true,
	}))

	b, err := os.ReadFile(filepath.Join(dir, "reports", "projects.csv"))
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(b[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	// header written once, appended row after the two projects
	assert.Len(t, records, 4)

	abs := filepath.Join(dir, "elsewhere", "out.csv")
	require.NoError(t, w.WriteCSV(abs, WriteOptions{Headers: []string{"a"}, Records: [][]string{{"1"}}}))
	assert.FileExists(t, abs)
}

func TestSaveAndLoadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "latest.json")
	report := testReport()
	require.NoError(t, SaveReport(path, report))

	got, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, got.RunID)
	assert.Equal(t, contracts.ReportSchema, got.Schema)
	assert.Len(t, got.Health.IndicatorScores, 7)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	// an invalid report leaves the previous file in place
	bad := testReport()
	delete(bad.Health.IndicatorScores, domain.IndicatorMigration)
	assert.Error(t, SaveReport(path, bad))
	got, err = LoadReport(path)
	require.NoError(t, err)
	assert.Len(t, got.Health.IndicatorScores, 7)
}

func TestWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetProjects, sheetIndicators, sheetCoverage}, f.GetSheetList())

	projects, err := f.GetRows(sheetProjects)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, ProjectHeaders, projects[0])
	assert.Equal(t, "10000000", projects[1][9])

	indicators, err := f.GetRows(sheetIndicators)
	require.NoError(t, err)
	require.Len(t, indicators, 9)
	assert.Equal(t, "dot_pipeline", indicators[1][0])
	assert.Equal(t, "overall", indicators[8][0])
	assert.Equal(t, "watchlist", indicators[8][3])

	coverage, err := f.GetRows(sheetCoverage)
	require.NoError(t, err)
	require.Len(t, coverage, 4)
	assert.Equal(t, "nysdot-html", coverage[1][7])
	assert.Equal(t, "total", coverage[3][0])

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, SaveWorkbook(path, testReport()))
	assert.FileExists(t, path)
}
