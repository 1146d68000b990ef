// Package types defines the core data structures for the Eve agentic
// assistant: memories, goals, knowledge graph entries, feedback, reflections,
// proactive insights, and multi-agent plans. All persisted entities are
// scoped by tenant.
package types

// MemoryType categorizes a stored memory.
type MemoryType string

// Memory type constants
const (
	MemoryTypePreference MemoryType = "preference"
	MemoryTypeFact       MemoryType = "fact"
	MemoryTypeContext    MemoryType = "context"
	MemoryTypeOther      MemoryType = "other"
)

// GoalStatus represents the lifecycle state of a goal.
type GoalStatus string

// Goal status constants
const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// GoalPriority represents the urgency of a goal.
type GoalPriority string

// Goal priority constants
const (
	GoalPriorityLow      GoalPriority = "low"
	GoalPriorityMedium   GoalPriority = "medium"
	GoalPriorityHigh     GoalPriority = "high"
	GoalPriorityCritical GoalPriority = "critical"
)

// SubtaskStatus represents the state of a single subtask.
type SubtaskStatus string

// Subtask status constants
const (
	SubtaskStatusPending    SubtaskStatus = "pending"
	SubtaskStatusInProgress SubtaskStatus = "in_progress"
	SubtaskStatusCompleted  SubtaskStatus = "completed"
	SubtaskStatusBlocked    SubtaskStatus = "blocked"
)

// EntityType categorizes a knowledge graph entity.
type EntityType string

// Entity type constants
const (
	EntityTypePerson       EntityType = "person"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeProject      EntityType = "project"
	EntityTypeConcept      EntityType = "concept"
	EntityTypeLocation     EntityType = "location"
	EntityTypeDate         EntityType = "date"
	EntityTypeProduct      EntityType = "product"
	EntityTypeOther        EntityType = "other"
)

// FeedbackType is the polarity of a feedback entry.
type FeedbackType string

// Feedback type constants
const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// InsightType categorizes a proactive insight.
type InsightType string

// Insight type constants
const (
	InsightTypeReminder   InsightType = "reminder"
	InsightTypeSuggestion InsightType = "suggestion"
	InsightTypeCheckIn    InsightType = "check_in"
	InsightTypeTip        InsightType = "tip"
	InsightTypeAlert      InsightType = "alert"
	InsightTypeGoalUpdate InsightType = "goal_update"
)

// InsightPriority represents how urgently an insight should surface.
type InsightPriority string

// Insight priority constants
const (
	InsightPriorityLow    InsightPriority = "low"
	InsightPriorityMedium InsightPriority = "medium"
	InsightPriorityHigh   InsightPriority = "high"
)

// AgentRole identifies a specialized role in a multi-agent plan.
type AgentRole string

// Agent role constants
const (
	RoleResearcher  AgentRole = "researcher"
	RoleWriter      AgentRole = "writer"
	RoleAnalyst     AgentRole = "analyst"
	RolePlanner     AgentRole = "planner"
	RoleCritic      AgentRole = "critic"
	RoleCoordinator AgentRole = "coordinator"
)

// EngagementLevel is one of three fixed interaction tiers.
type EngagementLevel int

// Engagement level constants
const (
	// LevelSoundingBoard only responds when asked; no proactivity.
	LevelSoundingBoard EngagementLevel = 1

	// LevelCoWorker collaborates actively and offers help when the user struggles.
	LevelCoWorker EngagementLevel = 2

	// LevelPersonalAssistant anticipates needs and checks in proactively.
	LevelPersonalAssistant EngagementLevel = 3
)

// DefaultEngagementLevel is used when a tenant has no stored preference.
const DefaultEngagementLevel = LevelCoWorker

// IsValidMemoryType reports whether t is a recognized memory type.
func IsValidMemoryType(t MemoryType) bool {
	switch t {
	case MemoryTypePreference, MemoryTypeFact, MemoryTypeContext, MemoryTypeOther:
		return true
	}
	return false
}

// IsValidGoalStatus reports whether s is a recognized goal status.
func IsValidGoalStatus(s GoalStatus) bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusPaused, GoalStatusAbandoned:
		return true
	}
	return false
}

// IsValidGoalPriority reports whether p is a recognized goal priority.
func IsValidGoalPriority(p GoalPriority) bool {
	switch p {
	case GoalPriorityLow, GoalPriorityMedium, GoalPriorityHigh, GoalPriorityCritical:
		return true
	}
	return false
}

// IsValidSubtaskStatus reports whether s is a recognized subtask status.
func IsValidSubtaskStatus(s SubtaskStatus) bool {
	switch s {
	case SubtaskStatusPending, SubtaskStatusInProgress, SubtaskStatusCompleted, SubtaskStatusBlocked:
		return true
	}
	return false
}

// IsValidEntityType reports whether t is a recognized entity type.
// Unrecognized types are normalized to EntityTypeOther by the extractor
// rather than rejected.
func IsValidEntityType(t EntityType) bool {
	switch t {
	case EntityTypePerson, EntityTypeOrganization, EntityTypeProject, EntityTypeConcept,
		EntityTypeLocation, EntityTypeDate, EntityTypeProduct, EntityTypeOther:
		return true
	}
	return false
}

// IsValidFeedbackType reports whether f is a recognized feedback polarity.
func IsValidFeedbackType(f FeedbackType) bool {
	return f == FeedbackPositive || f == FeedbackNegative
}

// IsValidInsightType reports whether t is a recognized insight type.
func IsValidInsightType(t InsightType) bool {
	switch t {
	case InsightTypeReminder, InsightTypeSuggestion, InsightTypeCheckIn,
		InsightTypeTip, InsightTypeAlert, InsightTypeGoalUpdate:
		return true
	}
	return false
}

// IsValidAgentRole reports whether r is a recognized agent role.
func IsValidAgentRole(r AgentRole) bool {
	switch r {
	case RoleResearcher, RoleWriter, RoleAnalyst, RolePlanner, RoleCritic, RoleCoordinator:
		return true
	}
	return false
}

// IsValidEngagementLevel reports whether l is one of the three tiers.
func IsValidEngagementLevel(l EngagementLevel) bool {
	return l >= LevelSoundingBoard && l <= LevelPersonalAssistant
}
