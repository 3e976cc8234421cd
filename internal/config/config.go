// Package config loads the service configuration.
//
// Values are layered with koanf, later layers overriding earlier ones:
//
//  1. Built-in defaults
//  2. Optional YAML file (CONFIG_PATH, or ./config.yaml)
//  3. Environment variables prefixed SPECIESDASH_, with "__" separating
//     nested keys (SPECIESDASH_GBIF__TIMEOUT=10s sets gbif.timeout)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/speciesdash/speciesdash/internal/species"
	"github.com/speciesdash/speciesdash/internal/species/gbif"
	"github.com/speciesdash/speciesdash/internal/validation"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "SPECIESDASH_"

	// ConfigPathEnvVar points at an optional YAML config file.
	ConfigPathEnvVar = "CONFIG_PATH"
)

// DefaultConfigPaths are searched when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// sliceConfigPaths are parsed from comma-separated strings when set through the environment.
var sliceConfigPaths = []string{
	"cors.allowed_origins",
	"species.popular_keys",
}

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	GBIF      GBIFConfig      `koanf:"gbif"`
	Species   SpeciesConfig   `koanf:"species"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RequireTLS      bool          `koanf:"require_tls"`
}

// GBIFConfig configures the upstream GBIF client.
type GBIFConfig struct {
	APIBaseURL  string        `koanf:"api_base_url" validate:"required,url"`
	MapBaseURL  string        `koanf:"map_base_url" validate:"required,url"`
	TileBaseURL string        `koanf:"tile_base_url" validate:"required,url"`
	UserAgent   string        `koanf:"user_agent"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`

	// BreakerMinRequests and BreakerFailureRatio control when an upstream circuit opens.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests" validate:"min=1"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout" validate:"gt=0"`

	// BreakerHalfOpenRequests is how many calls a half-open circuit admits.
	// It must cover the popular species fan-out.
	BreakerHalfOpenRequests uint32 `koanf:"breaker_half_open_requests" validate:"min=1"`
}

// SpeciesConfig configures the dashboard queries.
type SpeciesConfig struct {
	DefaultCountry string  `koanf:"default_country" validate:"len=2,uppercase"`
	DensityCountry string  `koanf:"density_country" validate:"len=2,uppercase"`
	PopularKeys    []int64 `koanf:"popular_keys" validate:"min=1,dive,gt=0"`
	HexPerTile     int     `koanf:"hex_per_tile" validate:"gt=0"`
	BaseTileStyle  string  `koanf:"base_tile_style" validate:"required"`
	DensityStyle   string  `koanf:"density_style" validate:"required"`
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins" validate:"min=1"`
}

// RateLimitConfig configures the inbound per-client request limit.
type RateLimitConfig struct {
	// RequestsPerMinute per client IP. Zero disables limiting.
	RequestsPerMinute int `koanf:"requests_per_minute" validate:"min=0"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint" validate:"required_if=Enabled true"`
	Environment  string  `koanf:"environment"`
	SampleRatio  float64 `koanf:"sample_ratio" validate:"min=0,max=1"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		GBIF: GBIFConfig{
			APIBaseURL:          gbif.DefaultAPIBaseURL,
			MapBaseURL:          gbif.DefaultMapBaseURL,
			TileBaseURL:         gbif.DefaultTileBaseURL,
			UserAgent:           "speciesdash",
			Timeout:             30 * time.Second,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerOpenTimeout:  30 * time.Second,

			BreakerHalfOpenRequests: uint32(len(species.PopularSpeciesKeys)),
		},
		Species: SpeciesConfig{
			DefaultCountry: species.DefaultCountry,
			DensityCountry: species.DefaultCountry,
			PopularKeys:    append([]int64(nil), species.PopularSpeciesKeys...),
			HexPerTile:     species.DensityHexPerTile,
			BaseTileStyle:  species.BaseTileStyle,
			DensityStyle:   species.DensityStyle,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			Environment:  "development",
			SampleRatio:  1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from defaults, the optional config file and the environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if int(c.GBIF.BreakerHalfOpenRequests) < len(c.Species.PopularKeys) {
		return fmt.Errorf("gbif.breaker_half_open_requests (%d) must be at least the number of species.popular_keys (%d)",
			c.GBIF.BreakerHalfOpenRequests, len(c.Species.PopularKeys))
	}
	return nil
}

// LogLevel returns the configured zerolog level.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DensityOptions returns the density tile parameters.
func (c *SpeciesConfig) DensityOptions() species.DensityOptions {
	opts := species.DefaultDensityOptions(c.DensityCountry)
	opts.HexPerTile = c.HexPerTile
	opts.Style = c.DensityStyle
	return opts
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// processSliceFields splits comma-separated values of known slice keys.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}

		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps SPECIESDASH_GBIF__API_BASE_URL to gbif.api_base_url.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}
