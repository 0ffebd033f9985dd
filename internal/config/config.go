// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the root configuration for exitscope. Every value has a working
// default; a missing config file is never an error. Operators retune rule
// data (ports, keywords, thresholds) here rather than in code.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Ingest  IngestConfig  `mapstructure:"ingest" yaml:"ingest"`
	Geo     GeoConfig     `mapstructure:"geo" yaml:"geo"`
	Risk    RiskConfig    `mapstructure:"risk" yaml:"risk"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
}

// LoggingConfig controls the zap logger. An empty LogFile disables the
// rotated file core; console output is always on.
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// IngestConfig bounds and shapes dataset loading.
type IngestConfig struct {
	// MaxRecords is the ingestion ceiling; oversized inputs truncate here
	// rather than fail.
	MaxRecords      int      `mapstructure:"max_records" yaml:"max_records"`
	RequiredColumns []string `mapstructure:"required_columns" yaml:"required_columns"`
}

// GeoConfig drives the enrichment provider chain.
type GeoConfig struct {
	// MinInterval is the enforced gap between consecutive network lookups.
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
	// Timeout bounds each individual provider call.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// DefaultMaxAPICalls caps the network path per batch when the caller
	// does not specify a budget.
	DefaultMaxAPICalls int `mapstructure:"default_max_api_calls" yaml:"default_max_api_calls"`

	// IPInfoToken enables the keyed provider. Bound to
	// EXITSCOPE_GEO_IPINFO_TOKEN; never logged.
	IPInfoToken string `mapstructure:"ipinfo_token" yaml:"ipinfo_token"`
	IPInfoURL   string `mapstructure:"ipinfo_url" yaml:"ipinfo_url"`
	IPAPIURL    string `mapstructure:"ipapi_url" yaml:"ipapi_url"`

	// MMDBDir points at a directory holding GeoLite2-City.mmdb and
	// GeoLite2-ASN.mmdb. Empty disables the local database provider.
	MMDBDir string `mapstructure:"mmdb_dir" yaml:"mmdb_dir"`
}

// RiskConfig is the scoring rule data. Ports and keywords are matched as
// documented by the risk engine; thresholds classify the summed score.
type RiskConfig struct {
	HighRiskPorts      []int    `mapstructure:"high_risk_ports" yaml:"high_risk_ports"`
	MediumRiskPorts    []int    `mapstructure:"medium_risk_ports" yaml:"medium_risk_ports"`
	DatacenterKeywords []string `mapstructure:"datacenter_keywords" yaml:"datacenter_keywords"`
	HighThreshold      float64  `mapstructure:"high_threshold" yaml:"high_threshold"`
	MediumThreshold    float64  `mapstructure:"medium_threshold" yaml:"medium_threshold"`
}

// ReportConfig selects the default output rendering.
type ReportConfig struct {
	Format   string `mapstructure:"format" yaml:"format"`
	TopNodes int    `mapstructure:"top_nodes" yaml:"top_nodes"`
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Unreachable with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logging --
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.service_name", "exitscope")
	v.SetDefault("logging.log_file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)
	v.SetDefault("logging.compress", true)

	// -- Ingest --
	v.SetDefault("ingest.max_records", 10000)
	v.SetDefault("ingest.required_columns", []string{"ip"})

	// -- Geo --
	v.SetDefault("geo.min_interval", 100*time.Millisecond)
	v.SetDefault("geo.timeout", 5*time.Second)
	v.SetDefault("geo.default_max_api_calls", 50)
	v.SetDefault("geo.ipinfo_token", "")
	v.SetDefault("geo.ipinfo_url", "https://ipinfo.io")
	v.SetDefault("geo.ipapi_url", "http://ip-api.com/json")
	v.SetDefault("geo.mmdb_dir", "")

	// -- Risk --
	v.SetDefault("risk.high_risk_ports", []int{22, 23, 3389, 4444, 5555, 8080, 8888})
	v.SetDefault("risk.medium_risk_ports", []int{80, 443, 8000, 8443})
	v.SetDefault("risk.datacenter_keywords", []string{"hosting", "datacenter", "cloud", "virtual", "vpn", "proxy"})
	v.SetDefault("risk.high_threshold", 7.0)
	v.SetDefault("risk.medium_threshold", 4.0)

	// -- Report --
	v.SetDefault("report.format", "text")
	v.SetDefault("report.top_nodes", 10)
}

// NewConfigFromViper builds and validates a Config from the given viper
// instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("geo.ipinfo_token", "EXITSCOPE_GEO_IPINFO_TOKEN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Paths may be given relative to the user's home directory.
	for _, p := range []*string{&cfg.Geo.MMDBDir, &cfg.Logging.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("expanding path %q: %w", *p, err)
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}

	if c.Ingest.MaxRecords <= 0 {
		return fmt.Errorf("ingest.max_records must be a positive integer")
	}

	if c.Geo.Timeout <= 0 {
		return fmt.Errorf("geo.timeout must be positive")
	}
	if c.Geo.MinInterval < 0 {
		return fmt.Errorf("geo.min_interval must not be negative")
	}
	if c.Geo.DefaultMaxAPICalls < 0 {
		return fmt.Errorf("geo.default_max_api_calls must not be negative")
	}

	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk configuration invalid: %w", err)
	}

	switch c.Report.Format {
	case "json", "csv", "text":
	default:
		return fmt.Errorf("report.format must be one of json, csv, text; got %q", c.Report.Format)
	}
	if c.Report.TopNodes < 0 {
		return fmt.Errorf("report.top_nodes must not be negative")
	}
	return nil
}

// Validate checks the rule data for internally consistent values.
func (r *RiskConfig) Validate() error {
	if r.MediumThreshold < 0 {
		return fmt.Errorf("medium_threshold must not be negative")
	}
	if r.HighThreshold < r.MediumThreshold {
		return fmt.Errorf("high_threshold (%.2f) must be >= medium_threshold (%.2f)", r.HighThreshold, r.MediumThreshold)
	}
	for _, set := range [][]int{r.HighRiskPorts, r.MediumRiskPorts} {
		for _, port := range set {
			if port < 1 || port > 65535 {
				return fmt.Errorf("port %d is outside the valid range 1-65535", port)
			}
		}
	}
	return nil
}
