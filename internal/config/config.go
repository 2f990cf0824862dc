// Package config loads application configuration from file, environment and
// defaults. Precedence: env (MODFORGE_*) > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = ".modforge"
	envPrefix  = "MODFORGE"
)

// DatabaseConfig locates the sqlite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TaxonomyConfig points at an optional taxonomy override file. Empty means
// the built-in taxonomy.
type TaxonomyConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// AIConfig tunes the Anthropic client.
type AIConfig struct {
	Model             string  `mapstructure:"model"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
}

// ScoringConfig holds the similarity weights and strategy thresholds used
// when no stored scoring config overrides them.
type ScoringConfig struct {
	WeightIntent    float64 `mapstructure:"weight_intent" validate:"gte=0"`
	WeightTech      float64 `mapstructure:"weight_tech" validate:"gte=0"`
	WeightDomain    float64 `mapstructure:"weight_domain" validate:"gte=0"`
	ThresholdDirect float64 `mapstructure:"threshold_direct" validate:"gte=0,lte=1"`
	ThresholdMedium float64 `mapstructure:"threshold_medium" validate:"gte=0,lte=1"`
	MinScore        float64 `mapstructure:"min_score" validate:"gte=0,lte=1"`
	TopK            int     `mapstructure:"top_k" validate:"gt=0"`
}

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy"`
	Log      LogConfig      `mapstructure:"log"`
	AI       AIConfig       `mapstructure:"ai"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: ".modforge/modforge.db"},
		Log:      LogConfig{Level: "info"},
		AI: AIConfig{
			MaxRetries:        3,
			RequestsPerSecond: 2,
		},
		Scoring: ScoringConfig{
			WeightIntent:    0.60,
			WeightTech:      0.25,
			WeightDomain:    0.15,
			ThresholdDirect: 0.75,
			ThresholdMedium: 0.50,
			MinScore:        0.30,
			TopK:            10,
		},
	}
}

// Validate checks field constraints plus the cross-field threshold ordering.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Scoring.ThresholdMedium > c.Scoring.ThresholdDirect {
		return fmt.Errorf("scoring.threshold_medium (%.2f) cannot exceed scoring.threshold_direct (%.2f)",
			c.Scoring.ThresholdMedium, c.Scoring.ThresholdDirect)
	}
	return nil
}

// Load reads configuration. cfgFile, when non-empty, names an explicit config
// file; otherwise .modforge.yaml is searched in the working directory and the
// user's home directory. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := Default()
	v.SetDefault("database.path", defaults.Database.Path)
	v.SetDefault("taxonomy.path", defaults.Taxonomy.Path)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("ai.model", defaults.AI.Model)
	v.SetDefault("ai.max_retries", defaults.AI.MaxRetries)
	v.SetDefault("ai.requests_per_second", defaults.AI.RequestsPerSecond)
	v.SetDefault("scoring.weight_intent", defaults.Scoring.WeightIntent)
	v.SetDefault("scoring.weight_tech", defaults.Scoring.WeightTech)
	v.SetDefault("scoring.weight_domain", defaults.Scoring.WeightDomain)
	v.SetDefault("scoring.threshold_direct", defaults.Scoring.ThresholdDirect)
	v.SetDefault("scoring.threshold_medium", defaults.Scoring.ThresholdMedium)
	v.SetDefault("scoring.min_score", defaults.Scoring.MinScore)
	v.SetDefault("scoring.top_k", defaults.Scoring.TopK)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			if cfgFile != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
