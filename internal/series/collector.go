package series

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"infrapulse/internal/config"
	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/indicators"
	"infrapulse/internal/sources"
	"infrapulse/pkg/contracts/domain"
)

// ErrNoAPIKey marks a provider that is not configured
var ErrNoAPIKey = errors.New("api key not configured")

// Collector gathers every economic input of a run. A provider that fails
// or is not configured is replaced by its fallback series; Collect only
// fails when the context is cancelled.
type Collector struct {
	cfg     config.SeriesConfig
	fred    *FREDClient
	eia     *EIAClient
	census  *CensusClient
	funding FundingSchedule
	regions []config.RegionConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewCollector creates a collector for the given regions. A nil client
// gets the configured series timeout.
func NewCollector(cfg config.SeriesConfig, regions []config.RegionConfig, client *http.Client, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	fetcher := sources.NewFetcher(client, nil, config.DefaultUserAgent)
	return &Collector{
		cfg:     cfg,
		fred:    NewFREDClient(fetcher, cfg.FREDURL, cfg.FREDAPIKey),
		eia:     NewEIAClient(fetcher, cfg.EIAURL, cfg.EIAAPIKey, cfg.EIAArea),
		census:  NewCensusClient(fetcher, cfg.CensusURL),
		funding: NewFundingSchedule(cfg.Funding),
		regions: regions,
		logger:  logger.With(slog.String("component", "series")),
		now:     time.Now,
	}
}

// yoyTotal sums year-over-year pairs across regions
type yoyTotal struct {
	mu      sync.Mutex
	current float64
	prior   float64
	series  int
}

func (t *yoyTotal) add(current, prior float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current += current
	t.prior += prior
	t.series++
}

// Collect fetches all series and returns scoring inputs with the pipeline
// input left empty
func (c *Collector) Collect(ctx context.Context) (indicators.Inputs, error) {
	var (
		permits, employment, spending yoyTotal
		population                    []indicators.PopulationChange
		fuelMu                        sync.Mutex
		fuel                          = make(map[string][]float64, len(c.cfg.FuelProducts))
	)

	g := new(errgroup.Group)
	g.SetLimit(max(c.cfg.Concurrency, 1))

	if c.fred.Available() {
		for _, r := range c.regions {
			permitID, employmentID := r.Code+c.cfg.PermitSuffix, r.Code+c.cfg.EmploymentSuffix
			g.Go(func() error {
				c.collectYoY(ctx, permitID, &permits)
				return nil
			})
			g.Go(func() error {
				c.collectYoY(ctx, employmentID, &employment)
				return nil
			})
		}
		g.Go(func() error {
			c.collectYoY(ctx, c.cfg.SpendingSeries, &spending)
			return nil
		})
	} else {
		c.logger.InfoContext(ctx, "FRED not configured, using fallback series")
	}

	g.Go(func() error {
		population = c.collectPopulation(ctx)
		return nil
	})

	if c.eia.Available() {
		for name, product := range c.cfg.FuelProducts {
			g.Go(func() error {
				prices, err := c.eia.WeeklyPrices(ctx, product, c.cfg.FuelWeeks)
				if err != nil {
					c.unavailable(ctx, "eia", product, err)
					return nil
				}
				fuelMu.Lock()
				fuel[name] = prices
				fuelMu.Unlock()
				return nil
			})
		}
	} else {
		c.logger.InfoContext(ctx, "EIA not configured, using fallback fuel prices")
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return indicators.Inputs{}, err
	}

	fb := c.cfg.Fallback
	in := indicators.Inputs{
		HousingPermits:         c.changeInput("housing_permits", &permits, fb.HousingPermits),
		ConstructionSpending:   c.changeInput("construction_spending", &spending, fb.ConstructionSpending),
		ConstructionEmployment: c.changeInput("construction_employment", &employment, fb.ConstructionEmployment),
		Migration:              c.migrationInput(population),
		InputCost:              c.inputCostInput(fuel),
		InfrastructureFunding:  c.fundingInput(),
	}
	return in, nil
}

func (c *Collector) collectYoY(ctx context.Context, seriesID string, total *yoyTotal) {
	current, prior, err := c.fred.YearOverYear(ctx, seriesID)
	if err != nil {
		c.unavailable(ctx, "fred", seriesID, err)
		return
	}
	total.add(current, prior)
}

// collectPopulation tries each configured vintage, newest first
func (c *Collector) collectPopulation(ctx context.Context) []indicators.PopulationChange {
	fips := make(map[string]string, len(c.regions))
	for _, r := range c.regions {
		if r.FIPS != "" {
			fips[r.Code] = r.FIPS
		}
	}
	if len(fips) == 0 {
		return nil
	}
	for _, year := range c.cfg.CensusYears {
		rows, err := c.census.Population(ctx, year, fips)
		if err == nil {
			return rows
		}
		c.unavailable(ctx, "census", "pep/population", err)
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

func (c *Collector) unavailable(ctx context.Context, provider, series string, err error) {
	if ctx.Err() != nil {
		return
	}
	c.logger.WarnContext(ctx, "series unavailable",
		slog.String("provider", provider),
		slog.String("series", series),
		slog.String("error_type", string(apperrors.TypeOf(err))),
		slog.String("error", err.Error()))
}

func (c *Collector) changeInput(name string, total *yoyTotal, fallback config.ChangePair) indicators.ChangeInput {
	if total.series > 0 && total.current > 0 {
		return indicators.ChangeInput{Current: total.current, Prior: total.prior, Source: domain.SourceLiveAPI}
	}
	c.logger.Info("using fallback series", slog.String("indicator", name))
	return indicators.ChangeInput{Current: fallback.Current, Prior: fallback.Prior, Source: domain.SourceFallback}
}

func (c *Collector) migrationInput(rows []indicators.PopulationChange) indicators.MigrationInput {
	if len(rows) > 0 {
		return indicators.MigrationInput{Regions: rows, Source: domain.SourceLiveAPI}
	}
	c.logger.Info("using fallback series", slog.String("indicator", "migration"))
	return indicators.MigrationInput{
		Regions: append([]indicators.PopulationChange(nil), c.cfg.Fallback.Population...),
		Source:  domain.SourceFallback,
	}
}

// inputCostInput fills missing commodities from the fallback. The input is
// live only when every commodity came from the API.
func (c *Collector) inputCostInput(live map[string][]float64) indicators.InputCostInput {
	prices := make(map[string][]float64, len(c.cfg.FuelProducts))
	source := domain.SourceLiveAPI
	for name := range c.cfg.FuelProducts {
		if p, ok := live[name]; ok {
			prices[name] = p
			continue
		}
		source = domain.SourceFallback
		if p, ok := c.cfg.Fallback.Fuel[name]; ok {
			prices[name] = append([]float64(nil), p...)
		}
	}
	if len(c.cfg.FuelProducts) == 0 {
		source = domain.SourceFallback
	}
	if source == domain.SourceFallback {
		c.logger.Info("using fallback series", slog.String("indicator", "input_cost"))
	}
	return indicators.InputCostInput{Prices: prices, Source: source}
}

// fundingInput reads the schedule; a fiscal year past either end of the
// table is clamped and tagged as fallback
func (c *Collector) fundingInput() indicators.FundingInput {
	fy := FederalFiscalYear(c.now())
	amount, ok := c.funding.Amount(fy)
	source := domain.SourceLiveAPI
	if !ok {
		source = domain.SourceFallback
		c.logger.Info("fiscal year outside funding schedule", slog.Int("fiscal_year", fy))
	}
	return indicators.FundingInput{Amount: amount, FiscalYear: fy, Source: source}
}
