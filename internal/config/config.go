package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/parcel-verify/internal/parcel"
	"github.com/sells-group/parcel-verify/internal/scorer"
)

// Config holds the full application configuration.
type Config struct {
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Batch        BatchConfig        `yaml:"batch" mapstructure:"batch"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// VerificationConfig configures reconciliation tolerances and field lists.
type VerificationConfig struct {
	AreaTolerancePercent    float64  `yaml:"area_tolerance_percent" mapstructure:"area_tolerance_percent"`
	GeometryToleranceMeters float64  `yaml:"geometry_tolerance_meters" mapstructure:"geometry_tolerance_meters"`
	RequiredFields          []string `yaml:"required_fields" mapstructure:"required_fields"`
	OptionalFields          []string `yaml:"optional_fields" mapstructure:"optional_fields"`
}

// ToParcel returns the engine configuration. Slices are copied so the
// result shares nothing with the loaded config.
func (v VerificationConfig) ToParcel() parcel.VerificationConfig {
	return parcel.VerificationConfig{
		AreaTolerancePercent:    v.AreaTolerancePercent,
		GeometryToleranceMeters: v.GeometryToleranceMeters,
		RequiredFields:          append([]string(nil), v.RequiredFields...),
		OptionalFields:          append([]string(nil), v.OptionalFields...),
	}
}

// BatchConfig configures manifest processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP review boundary.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARCEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("verification.area_tolerance_percent", 5.0)
	v.SetDefault("verification.geometry_tolerance_meters", 10.0)
	v.SetDefault("verification.required_fields", []string{
		parcel.FieldState, parcel.FieldDistrict, parcel.FieldSurveyNumber, parcel.FieldSurveyID,
	})
	v.SetDefault("verification.optional_fields", []string{
		parcel.FieldVillage, parcel.FieldTaluk, parcel.FieldAreaHectares, parcel.FieldOwnerName,
	})
	v.SetDefault("batch.max_concurrent", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.max_body_bytes", 4<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given command mode
// ("verify", "batch" or "serve").
func (c *Config) Validate(mode string) error {
	var errs []string

	if err := scorer.ValidateConfig(c.Verification.ToParcel()); err != nil {
		errs = append(errs, err.Error())
	}

	switch mode {
	case "verify":
	case "batch":
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 64 {
			errs = append(errs, "batch.max_concurrent must be between 1 and 64")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be > 0 and <= 65535 (got %d)", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.MaxBodyBytes <= 0 {
			errs = append(errs, "server.max_body_bytes must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
