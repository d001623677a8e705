package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CompassYAMLConfig represents the complete compass.yaml file structure
type CompassYAMLConfig struct {
	Assistant *AssistantYAMLConfig    `yaml:"assistant"`
	Report    *ReportYAMLConfig       `yaml:"report"`
	Auth      *AuthYAMLConfig         `yaml:"auth"`
	Stages    map[string]*StageConfig `yaml:"stages"`
}

// AssistantYAMLConfig holds remote assistant service settings from YAML.
type AssistantYAMLConfig struct {
	BaseURL         string `yaml:"base_url,omitempty"`
	APIKey          string `yaml:"api_key,omitempty"`
	PollInterval    string `yaml:"poll_interval,omitempty"`     // Parsed to time.Duration
	RunTimeout      string `yaml:"run_timeout,omitempty"`       // Parsed to time.Duration
	MaxPollAttempts int    `yaml:"max_poll_attempts,omitempty"`
	RequestTimeout  string `yaml:"request_timeout,omitempty"`   // Parsed to time.Duration
}

// ReportYAMLConfig holds report write-verification settings from YAML.
type ReportYAMLConfig struct {
	VerifyAttempts int    `yaml:"verify_attempts,omitempty"`
	VerifyBackoff  string `yaml:"verify_backoff,omitempty"` // Parsed to time.Duration
}

// AuthYAMLConfig holds API auth settings from YAML.
type AuthYAMLConfig struct {
	JWTSecret string `yaml:"jwt_secret,omitempty"`
	TokenTTL  string `yaml:"token_ttl,omitempty"` // Parsed to time.Duration
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load compass.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined stage configurations
//  5. Build the stage registry
//  6. Apply default values
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"stages", stats.Stages)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{
		configDir: configDir,
	}

	// 1. Load compass.yaml (contains assistant, report, auth, stages)
	compassConfig, err := loader.loadCompassYAML()
	if err != nil {
		return nil, NewLoadError("compass.yaml", err)
	}

	// 2. Get built-in configuration
	builtin := GetBuiltinConfig()

	// 3. Merge built-in + user-defined stages (user values win per field)
	stages, err := mergeStages(builtin.Stages, compassConfig.Stages)
	if err != nil {
		return nil, err
	}

	// 4. Build the stage registry
	stageRegistry := NewStageRegistry(stages)

	// 5. Resolve section configs (YAML overrides built-in defaults)
	assistantCfg := resolveAssistantConfig(compassConfig.Assistant)
	reportCfg := resolveReportConfig(compassConfig.Report)
	authCfg := resolveAuthConfig(compassConfig.Auth)

	return &Config{
		configDir: configDir,
		Stages:    stageRegistry,
		Assistant: assistantCfg,
		Report:    reportCfg,
		Auth:      authCfg,
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using {{.VAR}} template syntax
	// Note: ExpandEnv passes through original data on parse/execution errors,
	// allowing YAML parser to handle the content (or fail with clearer error message)
	data = ExpandEnv(data)

	// Parse YAML
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadCompassYAML() (*CompassYAMLConfig, error) {
	var config CompassYAMLConfig

	// Initialize map to avoid nil map
	config.Stages = make(map[string]*StageConfig)

	if err := l.loadYAML("compass.yaml", &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// resolveAssistantConfig resolves assistant service configuration from YAML,
// applying defaults.
func resolveAssistantConfig(a *AssistantYAMLConfig) *AssistantConfig {
	cfg := &AssistantConfig{
		BaseURL:         "https://api.openai.com/v1",
		PollInterval:    1 * time.Second,
		RunTimeout:      2 * time.Minute,
		MaxPollAttempts: 120,
		RequestTimeout:  30 * time.Second,
	}

	if a == nil {
		return cfg
	}

	if a.BaseURL != "" {
		cfg.BaseURL = a.BaseURL
	}
	if a.APIKey != "" {
		cfg.APIKey = a.APIKey
	}
	if a.MaxPollAttempts > 0 {
		cfg.MaxPollAttempts = a.MaxPollAttempts
	}
	cfg.PollInterval = resolveDuration("assistant.poll_interval", a.PollInterval, cfg.PollInterval)
	cfg.RunTimeout = resolveDuration("assistant.run_timeout", a.RunTimeout, cfg.RunTimeout)
	cfg.RequestTimeout = resolveDuration("assistant.request_timeout", a.RequestTimeout, cfg.RequestTimeout)

	return cfg
}

// resolveReportConfig resolves report verification configuration from YAML,
// applying defaults.
func resolveReportConfig(r *ReportYAMLConfig) *ReportConfig {
	cfg := &ReportConfig{
		VerifyAttempts: 5,
		VerifyBackoff:  200 * time.Millisecond,
	}

	if r == nil {
		return cfg
	}

	if r.VerifyAttempts > 0 {
		cfg.VerifyAttempts = r.VerifyAttempts
	}
	cfg.VerifyBackoff = resolveDuration("report.verify_backoff", r.VerifyBackoff, cfg.VerifyBackoff)

	return cfg
}

// resolveAuthConfig resolves auth configuration from YAML, applying defaults.
func resolveAuthConfig(a *AuthYAMLConfig) *AuthConfig {
	cfg := &AuthConfig{
		TokenTTL: 24 * time.Hour,
	}

	if a == nil {
		return cfg
	}

	if a.JWTSecret != "" {
		cfg.JWTSecret = a.JWTSecret
	}
	cfg.TokenTTL = resolveDuration("auth.token_ttl", a.TokenTTL, cfg.TokenTTL)

	return cfg
}

// resolveDuration parses a duration string from YAML, falling back to the
// default on empty or invalid values.
func resolveDuration(field, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in config, using default",
			"field", field,
			"value", value,
			"default", def,
			"error", err)
		return def
	}
	return d
}
