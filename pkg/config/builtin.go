package config

// BuiltinConfig holds default configuration shipped with the binary.
// User YAML entries are merged on top (user values win), so a deployment
// normally only supplies persona ids and secrets.
type BuiltinConfig struct {
	Stages map[string]*StageConfig
}

// Builtin instruction text per workshop stage. Persona ids are deployment
// specific and always come from compass.yaml (usually via env expansion).
var builtinStages = map[string]*StageConfig{
	"mission": {
		Instructions: "You are a career-planning assistant for the Mission, Vision and Values stage. " +
			"Analyze the participant's answers about their values, motivations and professional goals, " +
			"and provide actionable recommendations for a clear career vision.",
		Questions: []string{
			"motivating_activities", "beneficiaries", "professional_satisfaction",
			"five_year_career", "professional_recognition", "impact_legacy",
			"admired_attitudes", "unacceptable_behaviors", "decision_values",
		},
	},
	"swot": {
		Instructions: "You are a career-planning assistant specialized in SWOT analysis. " +
			"Analyze the participant's strengths, weaknesses, opportunities and threats, and suggest " +
			"strategies to turn weaknesses into strengths and threats into opportunities.",
		Questions: []string{
			// Strengths
			"skills_talents", "professional_highlights", "personal_resources",
			"partnerships_connections", "praise_recognition", "advantages_benefits", "positive_feedback",
			// Weaknesses
			"improvement_areas", "personal_limitations", "knowledge_gaps",
			"harmful_habits", "negative_feedback", "missing_resources", "weak_points",
			// Opportunities
			"market_trends", "growth_areas", "potential_partnerships",
			"emerging_technologies", "industry_changes", "market_niches", "available_resources",
			// Threats
			"external_obstacles", "harmful_changes", "competitor_threats",
			"economic_risks", "regulatory_changes", "technological_threats", "social_factors",
		},
	},
	"okr": {
		Instructions: "You are a career-planning assistant specialized in OKRs. " +
			"Help the participant define clear, measurable objectives with concrete key results and " +
			"practical guidance for tracking progress.",
	},
	"wheel-of-life": {
		Instructions: "You are a personal-development assistant running the Wheel of Life exercise. " +
			"For each life area collect the current score, the target score and a concrete action, then " +
			"produce a summary table across all areas.",
	},
	"disc": {
		Instructions: "You are a behavioral self-assessment assistant using the DISC methodology. " +
			"Ask one question at a time, score the answers, and deliver a personalized profile with " +
			"strengths, attention points and development suggestions.",
	},
	"temperaments": {
		Instructions: "You are an emotional self-assessment assistant based on the four classical " +
			"temperaments. Ask one question at a time and deliver an integrated result once all " +
			"answers are in.",
	},
	"consolidated": {
		Instructions: "You are a strategic career analyst. Integrate the results of all previous " +
			"workshop stages into one consolidated report: behavioral profiles, mission/vision/values, " +
			"SWOT, objectives, life balance and an action plan.",
	},
	"action-plan": {
		Instructions: "You are a career-planning assistant focused on execution. Turn the " +
			"participant's objectives into concrete actions with deadlines, owners and required resources.",
	},
	"metrics": {
		Instructions: "You are a career-planning assistant specialized in metrics and KPIs. Help the " +
			"participant define success indicators and interpret their progress data.",
	},
	DefaultStageName: {
		Instructions: "You are a career-planning assistant. Answer clearly and practically, always " +
			"considering the prior conversation, and provide actionable recommendations.",
	},
}

// GetBuiltinConfig returns a deep copy of the built-in configuration so
// callers can merge user config into it without mutating shared state.
func GetBuiltinConfig() *BuiltinConfig {
	stages := make(map[string]*StageConfig, len(builtinStages))
	for name, cfg := range builtinStages {
		c := *cfg
		c.Questions = append([]string(nil), cfg.Questions...)
		stages[name] = &c
	}
	return &BuiltinConfig{Stages: stages}
}
