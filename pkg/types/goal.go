package types

import (
	"math"
	"time"
)

// Goal is a user objective tracked to completion through its subtasks.
type Goal struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	TenantID    string       `json:"tenant_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      GoalStatus   `json:"status"`
	Priority    GoalPriority `json:"priority"`
	Category    string       `json:"category,omitempty"`
	Subtasks    []Subtask    `json:"subtasks"`

	// Progress is always round(100 * completed subtasks / total subtasks),
	// 0 when there are no subtasks. Maintained by RecalcProgress.
	Progress int `json:"progress"`

	TargetDate  *time.Time `json:"target_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Subtask is an atomic unit of a goal's decomposition. It has no lifecycle
// independent of its parent goal.
type Subtask struct {
	ID            string        `json:"id"`
	Description   string        `json:"description"`
	Status        SubtaskStatus `json:"status"`
	EstimatedTime string        `json:"estimated_time,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// RecalcProgress recomputes Progress from the subtask completion ratio and
// auto-transitions the goal to completed when every subtask is done.
// Reaching 100 sets Status to completed and stamps CompletedAt; the reverse
// transition is never applied automatically.
func (g *Goal) RecalcProgress(now time.Time) {
	if len(g.Subtasks) == 0 {
		g.Progress = 0
		return
	}

	completed := 0
	for _, st := range g.Subtasks {
		if st.Status == SubtaskStatusCompleted {
			completed++
		}
	}
	g.Progress = int(math.Round(100 * float64(completed) / float64(len(g.Subtasks))))

	if g.Progress == 100 && g.Status != GoalStatusCompleted {
		g.Status = GoalStatusCompleted
		g.CompletedAt = &now
	}
}

// GoalStats aggregates goal counts by status plus the mean progress of
// active goals.
type GoalStats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	Paused          int     `json:"paused"`
	Abandoned       int     `json:"abandoned"`
	AverageProgress float64 `json:"average_progress"`
}
