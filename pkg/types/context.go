package types

// AgenticContext is the per-turn composition object assembled by the
// orchestrator's context build and consumed by prompt assembly and message
// post-processing. It is ephemeral and never persisted.
type AgenticContext struct {
	Memories               []Memory `json:"memories"`
	GoalContext            string   `json:"goal_context"`
	KnowledgeContext       string   `json:"knowledge_context"`
	ProactiveContext       string   `json:"proactive_context"`
	PersonalizationContext string   `json:"personalization_context"`
	InteractionCount       int      `json:"interaction_count"`
}

// AgenticResponse is the final per-turn result returned to the caller after
// post-processing a draft model response.
type AgenticResponse struct {
	Response             string            `json:"response"`
	WasRevised           bool              `json:"was_revised"`
	ReflectionScore      int               `json:"reflection_score"`
	DetectedGoal         bool              `json:"detected_goal"`
	ProactiveHelpOffered bool              `json:"proactive_help_offered"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

// UserState is the heuristic read of a user's emotional state derived from
// message text by the engagement manager. Pure data; no I/O involved in
// producing it.
type UserState struct {
	IsConfused    bool    `json:"is_confused"`
	IsStruggling  bool    `json:"is_struggling"`
	IsOverwhelmed bool    `json:"is_overwhelmed"`
	Confidence    float64 `json:"confidence"`
}

// AnyIndicator reports whether any state flag is set.
func (s UserState) AnyIndicator() bool {
	return s.IsConfused || s.IsStruggling || s.IsOverwhelmed
}
