package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Enabled bool          `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Expose outputs over HTTP"`
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Sources struct {
		RadarURL    string        `yaml:"radar_url" json:"radar_url" jsonschema:"required,description=Primary radar composite feed URL"`
		ForecastURL string        `yaml:"forecast_url" json:"forecast_url" jsonschema:"description=Forecast bundle feed URL"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP timeout per request"`
		Retries     int           `yaml:"retries" json:"retries" jsonschema:"default=4,description=Download attempts before giving up on a file for this cycle"`
		RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=2s,description=Initial delay between retries"`
		UserAgent   string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Radarscope/1.0,description=User agent for HTTP requests"`
	} `yaml:"sources" json:"sources" jsonschema:"description=Remote source configuration"`

	Storage struct {
		RadarDataDir    string `yaml:"radar_data_dir" json:"radar_data_dir" jsonschema:"default=radar_data,description=Raw radar scan directory"`
		RadarOutputDir  string `yaml:"radar_output_dir" json:"radar_output_dir" jsonschema:"default=output,description=Rendered radar overlay directory"`
		ForecastDataDir string `yaml:"forecast_data_dir" json:"forecast_data_dir" jsonschema:"default=radar_data_forecast,description=Forecast bundle and member directory"`
		ForecastOutDir  string `yaml:"forecast_output_dir" json:"forecast_output_dir" jsonschema:"default=output_forecast,description=Rendered forecast overlay directory"`
		ExtendedOutDir  string `yaml:"extended_output_dir" json:"extended_output_dir" jsonschema:"default=output_extended,description=Extended overlay directory"`

		MinTrackedFiles  int `yaml:"min_tracked_files" json:"min_tracked_files" jsonschema:"default=12,description=Newest remote files tracked per cycle"`
		MaxTrackedFiles  int `yaml:"max_tracked_files" json:"max_tracked_files" jsonschema:"default=600,description=Retained radar timestamps (0 disables pruning)"`
		MaxForecastFiles int `yaml:"max_forecast_files" json:"max_forecast_files" jsonschema:"default=12,description=Retained forecast generations (0 disables pruning)"`
	} `yaml:"storage" json:"storage" jsonschema:"description=Local archive configuration"`

	Timing struct {
		PublishInterval    time.Duration `yaml:"publish_interval" json:"publish_interval" jsonschema:"default=5m,description=Remote publication grid"`
		TickInterval       time.Duration `yaml:"tick_interval" json:"tick_interval" jsonschema:"default=1s,description=Control loop tick"`
		QuickCheckInterval time.Duration `yaml:"quick_check_interval" json:"quick_check_interval" jsonschema:"default=3s,description=Delay between quick-poll attempts"`
		QuickCheckLimit    int           `yaml:"quick_check_limit" json:"quick_check_limit" jsonschema:"default=90,description=Quick-poll attempts per boundary"`
	} `yaml:"timing" json:"timing" jsonschema:"description=Scheduling configuration"`

	Convert ConvertConfig `yaml:"convert" json:"convert" jsonschema:"description=Renderer invocation configuration"`
}

// ConvertConfig holds external renderer settings
type ConvertConfig struct {
	Command    string        `yaml:"command" json:"command" jsonschema:"required,description=Renderer executable"`
	Args       []string      `yaml:"args" json:"args" jsonschema:"description=Extra arguments passed before the standard flags"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=2m,description=Renderer timeout per file"`
	MaxWorkers int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=4,description=Concurrent renderer invocations"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for sources
	if cfg.Sources.Timeout == 0 {
		cfg.Sources.Timeout = 30 * time.Second
	}
	if cfg.Sources.Retries == 0 {
		cfg.Sources.Retries = 4
	}
	if cfg.Sources.RetryDelay == 0 {
		cfg.Sources.RetryDelay = 2 * time.Second
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "Radarscope/1.0"
	}

	// set defaults for storage
	if cfg.Storage.RadarDataDir == "" {
		cfg.Storage.RadarDataDir = "radar_data"
	}
	if cfg.Storage.RadarOutputDir == "" {
		cfg.Storage.RadarOutputDir = "output"
	}
	if cfg.Storage.ForecastDataDir == "" {
		cfg.Storage.ForecastDataDir = "radar_data_forecast"
	}
	if cfg.Storage.ForecastOutDir == "" {
		cfg.Storage.ForecastOutDir = "output_forecast"
	}
	if cfg.Storage.ExtendedOutDir == "" {
		cfg.Storage.ExtendedOutDir = "output_extended"
	}
	if cfg.Storage.MinTrackedFiles == 0 {
		cfg.Storage.MinTrackedFiles = 12
	}
	if cfg.Storage.MaxTrackedFiles == 0 {
		cfg.Storage.MaxTrackedFiles = 600 // a little over two hours of scans
	}
	if cfg.Storage.MaxForecastFiles == 0 {
		cfg.Storage.MaxForecastFiles = 12
	}

	// set defaults for timing
	if cfg.Timing.PublishInterval == 0 {
		cfg.Timing.PublishInterval = 5 * time.Minute
	}
	if cfg.Timing.TickInterval == 0 {
		cfg.Timing.TickInterval = time.Second
	}
	if cfg.Timing.QuickCheckInterval == 0 {
		cfg.Timing.QuickCheckInterval = 3 * time.Second
	}
	if cfg.Timing.QuickCheckLimit == 0 {
		cfg.Timing.QuickCheckLimit = 90
	}

	// set defaults for converter
	if cfg.Convert.Timeout == 0 {
		cfg.Convert.Timeout = 2 * time.Minute
	}
	if cfg.Convert.MaxWorkers == 0 {
		cfg.Convert.MaxWorkers = 4
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// EnsureDirectories creates every configured data and output directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Storage.RadarDataDir,
		c.Storage.RadarOutputDir,
		c.Storage.ForecastDataDir,
		c.Storage.ForecastOutDir,
		c.Storage.ExtendedOutDir,
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Sources.RadarURL == "" {
		return fmt.Errorf("sources.radar_url is required")
	}
	if cfg.Convert.Command == "" {
		return fmt.Errorf("convert.command is required")
	}
	if cfg.Storage.MinTrackedFiles < 1 {
		return fmt.Errorf("storage.min_tracked_files must be at least 1")
	}
	if cfg.Timing.QuickCheckLimit < 1 {
		return fmt.Errorf("timing.quick_check_limit must be at least 1")
	}
	if cfg.Timing.QuickCheckInterval < time.Second {
		return fmt.Errorf("timing.quick_check_interval must be at least 1 second")
	}
	if cfg.Convert.MaxWorkers < 1 {
		return fmt.Errorf("convert.max_workers must be at least 1")
	}

	// validate server config
	if cfg.Server.Enabled && cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetConvertConfig returns renderer configuration
func (c *Config) GetConvertConfig() ConvertConfig {
	return c.Convert
}
