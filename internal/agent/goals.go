package agent

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

const detectGoalPromptTemplate = `Analyze this message and decide whether the user is expressing a goal or objective they want to accomplish.

Message:
%s

A goal is something concrete the user wants to achieve over time (learn a skill, finish a project, build a habit). A one-off question or request is not a goal.

Respond with ONLY a JSON object:
{"is_goal": false, "confidence": 0, "title": "", "description": "", "category": "", "priority": "low|medium|high|critical"}`

const subtasksPromptTemplate = `Break this goal into concrete subtasks.

Goal: %s
Description: %s

Produce between 3 and 7 subtasks. Each subtask should be a single actionable step with a rough time estimate.

Respond with ONLY a JSON object:
{"subtasks": [{"description": "step", "estimated_time": "30 minutes"}]}`

const nextActionsPromptTemplate = `The user is working toward this goal:

Goal: %s (progress %d%%)
Open subtasks:
%s

Suggest the 3 most useful next actions, ordered by impact. Keep each to one sentence.

Respond with ONLY a JSON object:
{"suggestions": ["action"]}`

// GoalManager detects goals in conversation, decomposes them into subtasks,
// and tracks progress. Detection and decomposition are LLM-backed and fail
// soft: a failed decomposition yields a goal with no subtasks rather than
// no goal.
type GoalManager struct {
	llmClient llm.TextGenerator
	store     storage.GoalStore
}

// NewGoalManager creates a goal manager.
func NewGoalManager(llmClient llm.TextGenerator, store storage.GoalStore) *GoalManager {
	return &GoalManager{llmClient: llmClient, store: store}
}

// GoalDetection is the outcome of scanning a message for a goal.
type GoalDetection struct {
	IsGoal      bool               `json:"is_goal"`
	Confidence  int                `json:"confidence"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Priority    types.GoalPriority `json:"priority"`
}

// DetectGoal scans a message for an expressed goal. Only detections with
// confidence above 70 count; anything else (including LLM failure) reads
// as no goal.
func (m *GoalManager) DetectGoal(ctx context.Context, message string) *GoalDetection {
	raw, err := m.llmClient.Complete(ctx, fmt.Sprintf(detectGoalPromptTemplate, message), 0.3)
	if err != nil {
		log.Printf("goals: detection call failed: %v", err)
		return nil
	}

	var detection GoalDetection
	if err := llm.DecodeJSON(raw, &detection); err != nil {
		log.Printf("goals: failed to parse detection: %v", err)
		return nil
	}

	if !detection.IsGoal || detection.Confidence <= 70 {
		return nil
	}
	if !types.IsValidGoalPriority(detection.Priority) {
		detection.Priority = types.GoalPriorityMedium
	}
	return &detection
}

type subtasksResponse struct {
	Subtasks []struct {
		Description   string `json:"description"`
		EstimatedTime string `json:"estimated_time"`
	} `json:"subtasks"`
}

// generateSubtasks asks the model to decompose a goal. Failure returns an
// empty slice; the goal is still created.
func (m *GoalManager) generateSubtasks(ctx context.Context, title, description string) []types.Subtask {
	raw, err := m.llmClient.Complete(ctx, fmt.Sprintf(subtasksPromptTemplate, title, description), 0.3)
	if err != nil {
		log.Printf("goals: subtask generation failed: %v", err)
		return nil
	}

	var resp subtasksResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		log.Printf("goals: failed to parse subtasks: %v", err)
		return nil
	}

	now := time.Now().Unix()
	subtasks := make([]types.Subtask, 0, len(resp.Subtasks))
	for i, st := range resp.Subtasks {
		desc := strings.TrimSpace(st.Description)
		if desc == "" {
			continue
		}
		subtasks = append(subtasks, types.Subtask{
			ID:            fmt.Sprintf("st_%d_%d", now, i),
			Description:   desc,
			Status:        types.SubtaskStatusPending,
			EstimatedTime: st.EstimatedTime,
		})
	}
	return subtasks
}

// CreateGoal builds a goal from a detection, decomposes it into subtasks,
// and persists it.
func (m *GoalManager) CreateGoal(ctx context.Context, tenantID, userID string, detection *GoalDetection) (*types.Goal, error) {
	title := strings.TrimSpace(detection.Title)
	if title == "" {
		title = "Untitled Goal"
	}

	goal := &types.Goal{
		UserID:      userID,
		TenantID:    tenantID,
		Title:       title,
		Description: detection.Description,
		Status:      types.GoalStatusActive,
		Priority:    detection.Priority,
		Category:    detection.Category,
		Subtasks:    m.generateSubtasks(ctx, title, detection.Description),
	}
	goal.RecalcProgress(time.Now())

	if err := m.store.CreateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

// UpdateSubtask transitions one subtask and recomputes the parent goal's
// progress. Completing the final subtask auto-completes the goal. A nil
// notes pointer keeps whatever notes the subtask already carries.
func (m *GoalManager) UpdateSubtask(ctx context.Context, tenantID, goalID, subtaskID string, status types.SubtaskStatus, notes *string) (*types.Goal, error) {
	if !types.IsValidSubtaskStatus(status) {
		return nil, fmt.Errorf("%w: subtask status %q", storage.ErrInvalidInput, status)
	}

	goal, err := m.store.GetGoal(ctx, tenantID, goalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	found := false
	for i := range goal.Subtasks {
		if goal.Subtasks[i].ID != subtaskID {
			continue
		}
		goal.Subtasks[i].Status = status
		if notes != nil {
			goal.Subtasks[i].Notes = *notes
		}
		if status == types.SubtaskStatusCompleted {
			goal.Subtasks[i].CompletedAt = &now
		} else {
			goal.Subtasks[i].CompletedAt = nil
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("%w: subtask %s", storage.ErrNotFound, subtaskID)
	}

	goal.RecalcProgress(now)
	goal.UpdatedAt = now
	if err := m.store.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// SuggestNextActions proposes the next moves for a goal from its pending
// and in-progress subtasks. With nothing actionable there is nothing to
// suggest and no model call is made. Failure yields no suggestions.
func (m *GoalManager) SuggestNextActions(ctx context.Context, goal *types.Goal) []string {
	var open []string
	for _, st := range goal.Subtasks {
		if st.Status != types.SubtaskStatusPending && st.Status != types.SubtaskStatusInProgress {
			continue
		}
		open = append(open, "- "+st.Description)
		if len(open) == 5 {
			break
		}
	}
	if len(open) == 0 {
		return nil
	}

	prompt := fmt.Sprintf(nextActionsPromptTemplate, goal.Title, goal.Progress, strings.Join(open, "\n"))
	raw, err := m.llmClient.Complete(ctx, prompt, 0.7)
	if err != nil {
		log.Printf("goals: next-action suggestion failed: %v", err)
		return nil
	}

	var resp suggestionsResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		log.Printf("goals: failed to parse suggestions: %v", err)
		return nil
	}
	if len(resp.Suggestions) > 3 {
		resp.Suggestions = resp.Suggestions[:3]
	}
	return resp.Suggestions
}

// ListGoals returns a user's goals, newest first.
func (m *GoalManager) ListGoals(ctx context.Context, tenantID, userID string) ([]types.Goal, error) {
	return m.store.ListGoals(ctx, tenantID, userID)
}

// ActiveGoals returns a user's active goals.
func (m *GoalManager) ActiveGoals(ctx context.Context, tenantID, userID string) ([]types.Goal, error) {
	return m.store.ListGoalsByStatus(ctx, tenantID, userID, types.GoalStatusActive)
}

// Stats aggregates a user's goal counts by status plus the mean progress of
// active goals. A user with no goals gets all zeros.
func (m *GoalManager) Stats(ctx context.Context, tenantID, userID string) (*types.GoalStats, error) {
	goals, err := m.store.ListGoals(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	stats := &types.GoalStats{Total: len(goals)}
	progressSum := 0
	for _, g := range goals {
		switch g.Status {
		case types.GoalStatusActive:
			stats.Active++
			progressSum += g.Progress
		case types.GoalStatusCompleted:
			stats.Completed++
		case types.GoalStatusPaused:
			stats.Paused++
		case types.GoalStatusAbandoned:
			stats.Abandoned++
		}
	}
	if stats.Active > 0 {
		stats.AverageProgress = math.Round(float64(progressSum)/float64(stats.Active)*10) / 10
	}
	return stats, nil
}

// GoalContext renders active goals into a prompt section. Empty string when
// the user has none.
func (m *GoalManager) GoalContext(ctx context.Context, tenantID, userID string) string {
	goals, err := m.store.ListGoalsByStatus(ctx, tenantID, userID, types.GoalStatusActive)
	if err != nil {
		log.Printf("goals: failed to load goal context: %v", err)
		return ""
	}
	if len(goals) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Active goals:\n")
	for _, g := range goals {
		fmt.Fprintf(&b, "- %s (%d%% complete, priority %s)\n", g.Title, g.Progress, g.Priority)
		for _, st := range g.Subtasks {
			if st.Status == types.SubtaskStatusPending || st.Status == types.SubtaskStatusInProgress {
				fmt.Fprintf(&b, "  next: %s\n", st.Description)
				break
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
