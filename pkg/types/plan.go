package types

import "time"

// AgentTask is one role-specialized unit of work inside a task plan.
type AgentTask struct {
	ID             string    `json:"id"`
	Role           AgentRole `json:"role"`
	Objective      string    `json:"objective"`
	Context        string    `json:"context,omitempty"`
	ExpectedOutput string    `json:"expected_output,omitempty"`
}

// TaskPlan is an ordered decomposition of a complex objective.
// ExecutionOrder is explicit rather than implied by task array order so the
// format can later express non-linear graphs without changing shape.
type TaskPlan struct {
	ID             string      `json:"id"`
	Objective      string      `json:"objective"`
	Tasks          []AgentTask `json:"tasks"`
	ExecutionOrder []string    `json:"execution_order"`
	EstimatedTime  string      `json:"estimated_time,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// TaskResult is the outcome of executing a single agent task.
type TaskResult struct {
	TaskID            string    `json:"task_id"`
	Role              AgentRole `json:"role"`
	Output            string    `json:"output"`
	Confidence        int       `json:"confidence"`
	Reasoning         string    `json:"reasoning,omitempty"`
	SuggestedFollowUp string    `json:"suggested_follow_up,omitempty"`
}

// PlanResult is the outcome of executing a whole plan.
type PlanResult struct {
	PlanID            string       `json:"plan_id"`
	Results           []TaskResult `json:"results"`
	FinalOutput       string       `json:"final_output"`
	OverallConfidence int          `json:"overall_confidence"`
}
