package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"infrapulse/internal/composite"
	"infrapulse/internal/indicators"
	"infrapulse/internal/timeweight"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "INFRAPULSE"

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	WebSocket     WebSocketConfig     `yaml:"websocket" envconfig:"WEBSOCKET"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
	Sources       SourcesConfig       `yaml:"sources" envconfig:"SOURCES"`
	Series        SeriesConfig        `yaml:"series" envconfig:"SERIES"`
	Normalize     NormalizeConfig     `yaml:"normalize" envconfig:"NORMALIZE"`

	Indicators indicators.Params `yaml:"indicators" ignored:"true"`
	Composite  composite.Params  `yaml:"composite" ignored:"true"`
	TimeWeight timeweight.Table  `yaml:"time_weight" ignored:"true"`
	Regions    []RegionConfig    `yaml:"regions" ignored:"true" validate:"min=1,dive"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RunTimeout bounds one aggregation run triggered over HTTP
	RunTimeout time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// ObservabilityConfig selects the OpenTelemetry exporters
type ObservabilityConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// SourcesConfig controls how region sources are fetched
type SourcesConfig struct {
	Concurrency    int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	HostInterval   time.Duration `yaml:"host_interval" envconfig:"HOST_INTERVAL" validate:"gte=0"`
	UserAgent      string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	SheetsAPIKey   string        `yaml:"sheets_api_key" envconfig:"SHEETS_API_KEY"`
	SheetsEndpoint string        `yaml:"sheets_endpoint" envconfig:"SHEETS_ENDPOINT"`
	Headless       bool          `yaml:"headless" envconfig:"HEADLESS"`
}

// RegionConfig describes one region and its ordered provider tiers
type RegionConfig struct {
	Code          string           `yaml:"code" validate:"required,len=2,uppercase"`
	Name          string           `yaml:"name"`
	FIPS          string           `yaml:"fips" validate:"omitempty,numeric,len=2"`
	Apportionment float64          `yaml:"apportionment" validate:"gt=0,lte=1"`
	PortalURL     string           `yaml:"portal_url" validate:"required,url"`
	Towns         []string         `yaml:"towns"`
	Providers     []ProviderConfig `yaml:"providers" validate:"dive"`
}

// ProviderConfig describes one provider tier. Kind selects the
// implementation; the remaining fields apply per kind.
type ProviderConfig struct {
	Name          string      `yaml:"name" validate:"required"`
	Kind          string      `yaml:"kind" validate:"required,oneof=html_table links text rendered spreadsheet sheets static"`
	URL           string      `yaml:"url"`
	Selector      string      `yaml:"selector"`
	WaitFor       string      `yaml:"wait_for"`
	Links         bool        `yaml:"links"`
	Sheet         string      `yaml:"sheet"`
	SpreadsheetID string      `yaml:"spreadsheet_id"`
	Range         string      `yaml:"range"`
	Limit         int         `yaml:"limit" validate:"gte=0"`
	Rows          []StaticRow `yaml:"rows"`
}

// StaticRow is a configured row served by a static provider
type StaticRow struct {
	Fields map[string]string `yaml:"fields"`
	Text   string            `yaml:"text"`
	URL    string            `yaml:"url"`
}

// NormalizeConfig tunes record normalization
type NormalizeConfig struct {
	NoiseFloor float64 `yaml:"noise_floor" envconfig:"NOISE_FLOOR" validate:"gte=0"`
}

// Load builds the configuration from defaults, an optional YAML file named
// by INFRAPULSE_CONFIG_FILE and INFRAPULSE_* environment variables, in
// increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(EnvPrefix + "_CONFIG_FILE"))
}

// LoadFrom is Load with an explicit YAML file; an empty path skips the file
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays a YAML file on the current values. Keys absent from
// the file keep their defaults; a present list replaces the default list.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Apportionment returns the region ratio table
func (c *Config) Apportionment() map[string]float64 {
	out := make(map[string]float64, len(c.Regions))
	for _, r := range c.Regions {
		out[r.Code] = r.Apportionment
	}
	return out
}

// Towns returns the gazetteer keyed by region code
func (c *Config) Towns() map[string][]string {
	out := make(map[string][]string, len(c.Regions))
	for _, r := range c.Regions {
		out[r.Code] = r.Towns
	}
	return out
}

// Region looks up a region by code
func (c *Config) Region(code string) (RegionConfig, bool) {
	for _, r := range c.Regions {
		if r.Code == code {
			return r, true
		}
	}
	return RegionConfig{}, false
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      DefaultRunTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/infrapulse.log",
		},
		Paths: PathsConfig{
			DataDir:     DefaultDataDir,
			ReportsDir:  DefaultReportsDir,
			LogsDir:     DefaultLogsDir,
			Snapshot:    DefaultSnapshotFile,
			HistoryDB:   DefaultHistoryDB,
			LockFile:    DefaultLockFile,
			LatestJSON:  DefaultLatestReport,
			SnapshotFmt: "sqlite",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Observability: ObservabilityConfig{
			Environment:    "development",
			EnableMetrics:  true,
			EnableTracing:  false,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Sources: SourcesConfig{
			Concurrency:  4,
			Timeout:      DefaultHTTPTimeout,
			HostInterval: 300 * time.Millisecond,
			UserAgent:    DefaultUserAgent,
			Headless:     true,
		},
		Series:     DefaultSeries(),
		Normalize:  NormalizeConfig{NoiseFloor: 100_000},
		Indicators: indicators.DefaultParams(),
		Composite:  composite.DefaultParams(),
		TimeWeight: timeweight.DefaultTable(),
		Regions:    DefaultRegions(),
	}
}
