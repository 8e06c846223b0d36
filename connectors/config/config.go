package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"grid-accounting/domain/usage"
)

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Report struct {
		DefaultTier string `yaml:"default_tier"`
		OverlapDays int    `yaml:"overlap_days"`
		YearMin     int    `yaml:"year_min"`
		YearMax     int    `yaml:"year_max"`
	} `yaml:"report"`

	// Tiers maps hosts to tiers; an entry carries either a single tier or a
	// split group. Ratios are YAML strings so they parse as exact decimals.
	Tiers []TierEntry `yaml:"tiers"`

	// ScaleFactors holds the benchmark-normalization factor per host.
	ScaleFactors map[string]string `yaml:"scale_factors"`

	Source struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Table  string `yaml:"table"`
	} `yaml:"source"`

	Destination struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Table  string `yaml:"table"`
	} `yaml:"destination"`

	Anonymizer struct {
		Command string `yaml:"command"`
	} `yaml:"anonymizer"`
}

type TierEntry struct {
	Host   string       `yaml:"host"`
	Tier   string       `yaml:"tier"`
	Splits []SplitEntry `yaml:"splits"`
}

type SplitEntry struct {
	Tier  string `yaml:"tier"`
	Ratio string `yaml:"ratio"`
}

// Load parses the YAML configuration file at path and validates the fields
// every command needs. Anything malformed is a configuration error, raised
// before any fetch happens.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usage.ErrConfiguration, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", usage.ErrConfiguration, path, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	slog.Info("config.loaded", "path", path, "tiers", len(c.Tiers))
	return &c, nil
}

func (c *Config) validate() error {
	if c.Report.DefaultTier == "" {
		return fmt.Errorf("%w: report.default_tier is required", usage.ErrConfiguration)
	}
	if c.Report.OverlapDays < 0 {
		return fmt.Errorf("%w: report.overlap_days must not be negative", usage.ErrConfiguration)
	}
	if c.Report.YearMin <= 0 || c.Report.YearMax < c.Report.YearMin {
		return fmt.Errorf("%w: report.year_min/year_max bounds are invalid", usage.ErrConfiguration)
	}
	if c.Source.DSN == "" {
		return fmt.Errorf("%w: source.dsn is required", usage.ErrConfiguration)
	}
	for _, e := range c.Tiers {
		if e.Host == "" {
			return fmt.Errorf("%w: tier entry without host", usage.ErrConfiguration)
		}
		if e.Tier == "" && len(e.Splits) == 0 {
			return fmt.Errorf("%w: tier entry for host %s has neither tier nor splits", usage.ErrConfiguration, e.Host)
		}
		if e.Tier != "" && len(e.Splits) > 0 {
			return fmt.Errorf("%w: tier entry for host %s has both tier and splits", usage.ErrConfiguration, e.Host)
		}
	}
	return nil
}

// TierMap builds the validated tier mapping, including the exact split-ratio
// sum check (done here, at load time, never per record).
func (c *Config) TierMap() (*usage.TierMap, error) {
	tiers := map[string]string{}
	splits := map[string][]usage.Split{}
	for _, e := range c.Tiers {
		if len(e.Splits) == 0 {
			tiers[e.Host] = e.Tier
			continue
		}
		group := make([]usage.Split, 0, len(e.Splits))
		for _, s := range e.Splits {
			ratio, err := decimal.NewFromString(s.Ratio)
			if err != nil {
				return nil, fmt.Errorf("%w: split ratio %q for host %s: %v", usage.ErrConfiguration, s.Ratio, e.Host, err)
			}
			group = append(group, usage.Split{Tier: s.Tier, Ratio: ratio})
		}
		splits[e.Host] = group
	}
	return usage.NewTierMap(c.Report.DefaultTier, tiers, splits)
}

// Factors parses the per-host scale factors.
func (c *Config) Factors() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(c.ScaleFactors))
	for host, raw := range c.ScaleFactors {
		f, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: scale factor %q for host %s: %v", usage.ErrConfiguration, raw, host, err)
		}
		if f.IsNegative() {
			return nil, fmt.Errorf("%w: scale factor for host %s is negative", usage.ErrConfiguration, host)
		}
		out[host] = f
	}
	return out, nil
}
