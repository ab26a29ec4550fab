// Package config holds operator-level configuration for a Vigil process:
// the HTTP listen port, the engine's retention bounds, rate limits for the
// summary surface, and an optional redaction rule file. Set via env vars
// (VIGIL_*) or a vigil.config.yaml file; the engine itself takes these as
// plain constructor options and never reads the environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the VIGIL_ prefix
// (e.g. "max_events" -> VIGIL_MAX_EVENTS) and to a YAML field in
// vigil.config.yaml.
const (
	KeyPort         = "port"
	KeyMaxEvents    = "max_events"
	KeyMaxAnomalies = "max_anomalies"
	KeyMaxTurns     = "max_turns"
	KeyRuleFile     = "redaction_rules"
	KeyGlobalRPM    = "rate_global_rpm"
	KeyPerCallerRPM = "rate_per_caller_rpm"
)

const (
	DefaultPort         = 8080
	DefaultMaxEvents    = 1000
	DefaultMaxAnomalies = 500
	DefaultMaxTurns     = 200
	DefaultGlobalRPM    = 600
	DefaultPerCallerRPM = 120
)

// Config holds resolved operator-level configuration for a Vigil process.
type Config struct {
	Port         int    // HTTP listen port
	MaxEvents    int    // Event log capacity
	MaxAnomalies int    // Anomaly log capacity
	MaxTurns     int    // Assistant-turn log capacity
	RuleFile     string // Optional operator redaction rule YAML (may not exist)
	GlobalRPM    int    // Total requests/minute across all callers
	PerCallerRPM int    // Requests/minute per caller
}

func init() {
	viper.SetEnvPrefix("VIGIL")
	viper.AutomaticEnv()
	viper.SetDefault(KeyPort, DefaultPort)
	viper.SetDefault(KeyMaxEvents, DefaultMaxEvents)
	viper.SetDefault(KeyMaxAnomalies, DefaultMaxAnomalies)
	viper.SetDefault(KeyMaxTurns, DefaultMaxTurns)
	viper.SetDefault(KeyGlobalRPM, DefaultGlobalRPM)
	viper.SetDefault(KeyPerCallerRPM, DefaultPerCallerRPM)
}

// Load reads configuration from Viper (which merges env vars, config file,
// and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         viper.GetInt(KeyPort),
		MaxEvents:    viper.GetInt(KeyMaxEvents),
		MaxAnomalies: viper.GetInt(KeyMaxAnomalies),
		MaxTurns:     viper.GetInt(KeyMaxTurns),
		RuleFile:     viper.GetString(KeyRuleFile),
		GlobalRPM:    viper.GetInt(KeyGlobalRPM),
		PerCallerRPM: viper.GetInt(KeyPerCallerRPM),
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1-65535 (got %d)", c.Port)
	}
	for name, v := range map[string]int{
		KeyMaxEvents:    c.MaxEvents,
		KeyMaxAnomalies: c.MaxAnomalies,
		KeyMaxTurns:     c.MaxTurns,
		KeyGlobalRPM:    c.GlobalRPM,
		KeyPerCallerRPM: c.PerCallerRPM,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be positive (got %d)", name, v)
		}
	}
	return nil
}
