package normalize

import (
	"log/slog"

	"infrapulse/internal/identity"
	"infrapulse/internal/sources"
	"infrapulse/pkg/contracts/domain"
)

// Options configures a Normalizer
type Options struct {
	// NoiseFloor drops dollar figures below it; zero uses DefaultNoiseFloor
	NoiseFloor float64
	// Towns lists the known place names per region code
	Towns map[string][]string
}

// Normalizer converts raw rows into project records
type Normalizer struct {
	floor      float64
	gazetteer  *Gazetteer
	classifier *Classifier
	logger     *slog.Logger
}

// New creates a normalizer with the default rule tables
func New(opts Options, logger *slog.Logger) *Normalizer {
	if opts.NoiseFloor <= 0 {
		opts.NoiseFloor = DefaultNoiseFloor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		floor:      opts.NoiseFloor,
		gazetteer:  NewGazetteer(opts.Towns),
		classifier: NewClassifier(nil, nil),
		logger:     logger.With(slog.String("component", "normalizer")),
	}
}

// Normalize maps one row to a record. ok is false when the row has neither
// a description nor a cost.
func (n *Normalizer) Normalize(region, source string, row sources.Row) (domain.ProjectRecord, bool) {
	description := extractDescription(row)
	low, high := extractCost(row, n.floor)
	if description == "" && low == nil {
		return domain.ProjectRecord{}, false
	}

	text := description + " " + rowText(row)
	number := extractProjectNumber(row)
	ad, let := extractDates(row)

	return domain.ProjectRecord{
		ID:            identity.RecordID(region, source, number, description, row.URL),
		Region:        region,
		SourceName:    source,
		ProjectNumber: number,
		Description:   description,
		Location:      n.gazetteer.Locate(region, row),
		ProjectType:   n.classifier.ProjectType(text),
		CostLow:       low,
		CostHigh:      high,
		AdDate:        ad,
		LetDate:       let,
		FiscalYear:    extractFiscalYear(row),
		URL:           row.URL,
		BusinessLines: n.classifier.BusinessLines(text),
		Status:        domain.StatusConfirmed,
	}, true
}

// NormalizeAll maps every row of a provider batch and counts dropped rows
func (n *Normalizer) NormalizeAll(region, source string, rows []sources.Row) ([]domain.ProjectRecord, int) {
	records := make([]domain.ProjectRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rec, ok := n.Normalize(region, source, row)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	if dropped > 0 {
		n.logger.Debug("rows dropped without description or cost",
			slog.String("region", region),
			slog.String("source", source),
			slog.Int("dropped", dropped),
			slog.Int("kept", len(records)))
	}
	return records, dropped
}
