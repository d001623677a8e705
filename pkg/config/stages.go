package config

import (
	"fmt"
	"log/slog"
	"sort"
)

// DefaultStageName is the fallback entry used when a stage has no
// configuration of its own.
const DefaultStageName = "default"

// StageConfig is one stage's persona binding.
type StageConfig struct {
	// PersonaID is the remote assistant/persona identifier for the stage.
	PersonaID string `yaml:"persona_id"`

	// Instructions is the per-run instruction text sent with every
	// submission for this stage.
	Instructions string `yaml:"instructions"`

	// ReportKind overrides the report kind for the stage; defaults to the
	// stage name.
	ReportKind string `yaml:"report_kind,omitempty"`

	// Questions restricts the questionnaire field keys accepted for the
	// stage. Empty means the stage takes free-form question keys.
	Questions []string `yaml:"questions,omitempty"`
}

// usable reports whether the entry can drive a run on its own: a stage with
// no persona or no instruction text falls through to the default entry.
func (s *StageConfig) usable() bool {
	return s != nil && s.PersonaID != "" && s.Instructions != ""
}

// StageRegistry is the immutable stage → persona table built at startup.
type StageRegistry struct {
	stages map[string]*StageConfig
}

// NewStageRegistry creates a registry from the merged stage map.
func NewStageRegistry(stages map[string]*StageConfig) *StageRegistry {
	if stages == nil {
		stages = make(map[string]*StageConfig)
	}
	return &StageRegistry{stages: stages}
}

// Resolve returns the configuration for the given stage, falling back to the
// "default" entry when the stage has no usable configuration of its own.
// It fails only when the default entry itself is unset.
func (r *StageRegistry) Resolve(stage string) (*StageConfig, error) {
	if cfg, ok := r.stages[stage]; ok && cfg.usable() {
		return cfg, nil
	}

	fallback, ok := r.stages[DefaultStageName]
	if !ok || !fallback.usable() {
		return nil, fmt.Errorf("%w: stage '%s' and no usable '%s' entry", ErrStageNotFound, stage, DefaultStageName)
	}

	slog.Warn("Stage not configured, using default persona", "stage", stage)
	return fallback, nil
}

// Get returns the stage's own entry without fallback, or ErrStageNotFound.
func (r *StageRegistry) Get(stage string) (*StageConfig, error) {
	cfg, ok := r.stages[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStageNotFound, stage)
	}
	return cfg, nil
}

// ReportKind returns the report kind for a stage: the configured override if
// present, otherwise the stage name itself.
func (r *StageRegistry) ReportKind(stage string) string {
	if cfg, ok := r.stages[stage]; ok && cfg.ReportKind != "" {
		return cfg.ReportKind
	}
	return stage
}

// Questions returns the allowed questionnaire keys for a stage. Empty means
// the stage accepts any key.
func (r *StageRegistry) Questions(stage string) []string {
	if cfg, ok := r.stages[stage]; ok {
		return cfg.Questions
	}
	return nil
}

// StageNames returns a sorted list of configured stage names.
func (r *StageRegistry) StageNames() []string {
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of configured stages.
func (r *StageRegistry) Len() int {
	return len(r.stages)
}
