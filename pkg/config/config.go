// Package config loads and validates the compass.yaml configuration file and
// exposes immutable registries and settings objects for injection.
package config

import "time"

// Config is the umbrella configuration object returned by Initialize().
// It is built once at startup and treated as immutable afterwards.
type Config struct {
	configDir string

	// Stage persona/instruction table
	Stages *StageRegistry

	// Remote assistant service settings
	Assistant *AssistantConfig

	// Report write-verification settings
	Report *ReportConfig

	// API auth settings
	Auth *AuthConfig
}

// AssistantConfig holds settings for the remote conversation service and the
// run poll loop.
type AssistantConfig struct {
	BaseURL string
	APIKey  string

	// PollInterval is the fixed wait between run status checks.
	PollInterval time.Duration

	// RunTimeout bounds the total wall-clock time the executor waits for a
	// run to leave the queued/in_progress states.
	RunTimeout time.Duration

	// MaxPollAttempts caps the number of status checks per run.
	MaxPollAttempts int

	// RequestTimeout bounds each individual HTTP call.
	RequestTimeout time.Duration
}

// ReportConfig holds settings for the post-write visibility check in the
// report upsert path.
type ReportConfig struct {
	// VerifyAttempts is the maximum number of re-reads before the write is
	// declared unverifiable.
	VerifyAttempts int

	// VerifyBackoff is the wait between re-reads.
	VerifyBackoff time.Duration
}

// AuthConfig holds JWT issuance/validation settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Stats contains statistics about loaded configuration.
type Stats struct {
	Stages int
}

// Stats returns configuration statistics for logging.
func (c *Config) Stats() Stats {
	s := Stats{}
	if c.Stages != nil {
		s.Stages = c.Stages.Len()
	}
	return s
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
