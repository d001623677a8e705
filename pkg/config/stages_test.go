package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRegistryResolve(t *testing.T) {
	registry := NewStageRegistry(map[string]*StageConfig{
		"swot": {
			PersonaID:    "asst_swot",
			Instructions: "SWOT instructions",
		},
		"okr": {
			// No persona: cannot drive a run on its own
			Instructions: "OKR instructions",
		},
		DefaultStageName: {
			PersonaID:    "asst_default",
			Instructions: "Default instructions",
		},
	})

	t.Run("configured stage resolves to its own entry", func(t *testing.T) {
		cfg, err := registry.Resolve("swot")
		require.NoError(t, err)
		assert.Equal(t, "asst_swot", cfg.PersonaID)
	})

	t.Run("unknown stage falls back to default", func(t *testing.T) {
		cfg, err := registry.Resolve("never-configured")
		require.NoError(t, err)
		assert.Equal(t, "asst_default", cfg.PersonaID)
	})

	t.Run("unusable stage falls back to default", func(t *testing.T) {
		cfg, err := registry.Resolve("okr")
		require.NoError(t, err)
		assert.Equal(t, "asst_default", cfg.PersonaID)
	})
}

func TestStageRegistryResolveNoDefault(t *testing.T) {
	registry := NewStageRegistry(map[string]*StageConfig{
		"swot": {
			PersonaID:    "asst_swot",
			Instructions: "SWOT instructions",
		},
	})

	// The configured stage still works
	_, err := registry.Resolve("swot")
	require.NoError(t, err)

	// Anything else fails because no default entry exists
	_, err = registry.Resolve("okr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageNotFound)
}

func TestStageRegistryGet(t *testing.T) {
	registry := NewStageRegistry(map[string]*StageConfig{
		"disc": {PersonaID: "asst_disc", Instructions: "DISC"},
	})

	cfg, err := registry.Get("disc")
	require.NoError(t, err)
	assert.Equal(t, "asst_disc", cfg.PersonaID)

	_, err = registry.Get("missing")
	assert.ErrorIs(t, err, ErrStageNotFound)
}

func TestStageRegistryReportKind(t *testing.T) {
	registry := NewStageRegistry(map[string]*StageConfig{
		"wheel-of-life": {
			PersonaID:    "asst_wheel",
			Instructions: "text",
			ReportKind:   "life-balance",
		},
		"swot": {
			PersonaID:    "asst_swot",
			Instructions: "text",
		},
	})

	assert.Equal(t, "life-balance", registry.ReportKind("wheel-of-life"))
	assert.Equal(t, "swot", registry.ReportKind("swot"))
	assert.Equal(t, "unknown", registry.ReportKind("unknown"))
}

func TestStageRegistryStageNames(t *testing.T) {
	registry := NewStageRegistry(map[string]*StageConfig{
		"b": {}, "a": {}, "c": {},
	})

	assert.Equal(t, []string{"a", "b", "c"}, registry.StageNames())
	assert.Equal(t, 3, registry.Len())
}

func TestStageRegistryNilMap(t *testing.T) {
	registry := NewStageRegistry(nil)
	assert.Equal(t, 0, registry.Len())

	_, err := registry.Resolve("anything")
	assert.ErrorIs(t, err, ErrStageNotFound)
}
