package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeStages(t *testing.T) {
	builtin := map[string]*StageConfig{
		"swot": {Instructions: "builtin swot instructions"},
		"okr":  {Instructions: "builtin okr instructions"},
	}
	user := map[string]*StageConfig{
		"swot": {PersonaID: "asst_swot"},
		"custom": {
			PersonaID:    "asst_custom",
			Instructions: "custom instructions",
		},
	}

	merged, err := mergeStages(builtin, user)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	// Persona-only user entry keeps built-in instructions
	assert.Equal(t, "asst_swot", merged["swot"].PersonaID)
	assert.Equal(t, "builtin swot instructions", merged["swot"].Instructions)

	// Untouched built-in stays as-is
	assert.Empty(t, merged["okr"].PersonaID)
	assert.Equal(t, "builtin okr instructions", merged["okr"].Instructions)

	// User-only stage is added
	assert.Equal(t, "asst_custom", merged["custom"].PersonaID)
}

func TestMergeStagesUserOverridesInstructions(t *testing.T) {
	builtin := map[string]*StageConfig{
		"swot": {Instructions: "builtin"},
	}
	user := map[string]*StageConfig{
		"swot": {PersonaID: "asst", Instructions: "user override"},
	}

	merged, err := mergeStages(builtin, user)
	require.NoError(t, err)
	assert.Equal(t, "user override", merged["swot"].Instructions)
}

func TestMergeStagesDoesNotMutateInputs(t *testing.T) {
	builtin := map[string]*StageConfig{
		"swot": {Instructions: "builtin"},
	}
	user := map[string]*StageConfig{
		"swot": {PersonaID: "asst"},
	}

	_, err := mergeStages(builtin, user)
	require.NoError(t, err)

	assert.Empty(t, builtin["swot"].PersonaID)
	assert.Empty(t, user["swot"].Instructions)
}

func TestMergeStagesNilUserEntry(t *testing.T) {
	builtin := map[string]*StageConfig{
		"swot": {Instructions: "builtin"},
	}
	user := map[string]*StageConfig{
		"swot": nil,
	}

	merged, err := mergeStages(builtin, user)
	require.NoError(t, err)
	assert.Equal(t, "builtin", merged["swot"].Instructions)
}

func TestGetBuiltinConfigIsolation(t *testing.T) {
	a := GetBuiltinConfig()
	b := GetBuiltinConfig()

	a.Stages["swot"].PersonaID = "mutated"
	assert.Empty(t, b.Stages["swot"].PersonaID)

	// Every built-in stage carries instruction text
	for name, stage := range b.Stages {
		assert.NotEmpty(t, stage.Instructions, "stage %s", name)
	}
	assert.Contains(t, b.Stages, DefaultStageName)
}
