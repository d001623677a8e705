package config

import (
	"fmt"

	"dario.cat/mergo"
)

// mergeStages merges built-in and user-defined stage configurations.
// User-defined fields override built-in fields with the same name, so a user
// entry that only supplies persona_id keeps the built-in instruction text.
func mergeStages(builtinStages map[string]*StageConfig, userStages map[string]*StageConfig) (map[string]*StageConfig, error) {
	result := make(map[string]*StageConfig, len(builtinStages)+len(userStages))

	// First, add built-in stages
	for name, stage := range builtinStages {
		stageCopy := *stage
		result[name] = &stageCopy
	}

	// Then, merge user-defined stages on top (or add new ones)
	for name, userStage := range userStages {
		if userStage == nil {
			continue
		}
		base, ok := result[name]
		if !ok {
			stageCopy := *userStage
			result[name] = &stageCopy
			continue
		}
		// Non-zero user values override the built-in entry
		if err := mergo.Merge(base, userStage, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge stage '%s': %w", name, err)
		}
	}

	return result, nil
}
