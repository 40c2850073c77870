package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"infrapulse/internal/coverage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules: unique region
// codes, an apportionment table summing to 1, per-kind provider fields and
// the scoring, weighting and banding constants.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %s", fieldPath(fe.Namespace()), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	seen := make(map[string]bool, len(c.Regions))
	for _, r := range c.Regions {
		if seen[r.Code] {
			errs = append(errs, fmt.Errorf("regions: duplicate region code %s", r.Code))
		}
		seen[r.Code] = true
		for _, p := range r.Providers {
			if err := validateProvider(p); err != nil {
				errs = append(errs, fmt.Errorf("regions.%s: %w", r.Code, err))
			}
		}
	}

	if err := coverage.Apportionment(c.Apportionment()).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("regions: %w", err))
	}
	if err := c.Indicators.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("indicators: %w", err))
	}
	if err := c.Composite.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("composite: %w", err))
	}
	if err := c.TimeWeight.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("time_weight: %w", err))
	}

	return errors.Join(errs...)
}

func validateProvider(p ProviderConfig) error {
	switch p.Kind {
	case "html_table", "links", "text", "rendered", "spreadsheet":
		if p.URL == "" {
			return fmt.Errorf("provider %s: url is required for kind %s", p.Name, p.Kind)
		}
	case "sheets":
		if p.SpreadsheetID == "" || (p.Range == "" && p.Sheet == "") {
			return fmt.Errorf("provider %s: spreadsheet_id and range are required", p.Name)
		}
	case "static":
		if len(p.Rows) == 0 {
			return fmt.Errorf("provider %s: static provider has no rows", p.Name)
		}
	}
	return nil
}

// fieldPath turns "Config.Sources.Timeout" into "sources.timeout"
func fieldPath(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}
