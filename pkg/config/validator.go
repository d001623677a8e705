package config

import (
	"fmt"
	"log/slog"
)

// ConfigValidator validates configuration comprehensively with clear error messages
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateAssistant(); err != nil {
		return fmt.Errorf("assistant validation failed: %w", err)
	}

	if err := v.validateReport(); err != nil {
		return fmt.Errorf("report validation failed: %w", err)
	}

	if err := v.validateAuth(); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}

	v.checkStages()

	return nil
}

func (v *ConfigValidator) validateAssistant() error {
	a := v.cfg.Assistant
	if a == nil {
		return NewValidationError("assistant", "service", "", fmt.Errorf("%w: assistant section", ErrMissingRequiredField))
	}
	if a.BaseURL == "" {
		return NewValidationError("assistant", "service", "base_url", fmt.Errorf("%w", ErrMissingRequiredField))
	}
	if a.APIKey == "" {
		return NewValidationError("assistant", "service", "api_key", fmt.Errorf("%w", ErrMissingRequiredField))
	}
	if a.PollInterval <= 0 {
		return NewValidationError("assistant", "service", "poll_interval", fmt.Errorf("must be positive"))
	}
	if a.RunTimeout <= 0 {
		return NewValidationError("assistant", "service", "run_timeout", fmt.Errorf("must be positive"))
	}
	if a.MaxPollAttempts < 1 {
		return NewValidationError("assistant", "service", "max_poll_attempts", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *ConfigValidator) validateReport() error {
	r := v.cfg.Report
	if r == nil {
		return NewValidationError("report", "verification", "", fmt.Errorf("%w: report section", ErrMissingRequiredField))
	}
	if r.VerifyAttempts < 1 {
		return NewValidationError("report", "verification", "verify_attempts", fmt.Errorf("must be at least 1"))
	}
	if r.VerifyBackoff <= 0 {
		return NewValidationError("report", "verification", "verify_backoff", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *ConfigValidator) validateAuth() error {
	a := v.cfg.Auth
	if a == nil || a.JWTSecret == "" {
		return NewValidationError("auth", "jwt", "jwt_secret", fmt.Errorf("%w", ErrMissingRequiredField))
	}
	if a.TokenTTL <= 0 {
		return NewValidationError("auth", "jwt", "token_ttl", fmt.Errorf("must be positive"))
	}
	return nil
}

// checkStages warns about stage entries that cannot drive a run on their own.
// Missing personas are not fatal at startup: resolution falls back to the
// default entry, and only fails there if that entry is unset too.
func (v *ConfigValidator) checkStages() {
	if v.cfg.Stages == nil {
		return
	}
	for _, name := range v.cfg.Stages.StageNames() {
		stage, err := v.cfg.Stages.Get(name)
		if err != nil {
			continue
		}
		if stage.PersonaID == "" {
			slog.Warn("Stage has no persona configured, runs will fall back to default",
				"stage", name)
		}
	}
	if def, err := v.cfg.Stages.Get(DefaultStageName); err != nil || def.PersonaID == "" {
		slog.Warn("No default persona configured, unresolved stages will fail")
	}
}
