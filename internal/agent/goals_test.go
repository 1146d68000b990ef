package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/pkg/types"
)

func TestDetectGoalAboveThreshold(t *testing.T) {
	mock := newMockLLM().respondTo("expressing a goal",
		`{"is_goal": true, "confidence": 85, "title": "Learn Spanish", "description": "Conversational level", "category": "learning", "priority": "medium"}`)
	m := agent.NewGoalManager(mock, openAgentTestDB(t))

	detection := m.DetectGoal(context.Background(), "I want to learn Spanish this year")

	require.NotNil(t, detection)
	assert.Equal(t, "Learn Spanish", detection.Title)
	assert.Equal(t, types.GoalPriorityMedium, detection.Priority)
}

func TestDetectGoalBelowThreshold(t *testing.T) {
	mock := newMockLLM().respondTo("expressing a goal",
		`{"is_goal": true, "confidence": 70, "title": "Maybe a goal"}`)
	m := agent.NewGoalManager(mock, openAgentTestDB(t))

	assert.Nil(t, m.DetectGoal(context.Background(), "hmm"))
}

func TestDetectGoalNotAGoal(t *testing.T) {
	mock := newMockLLM().respondTo("expressing a goal",
		`{"is_goal": false, "confidence": 95}`)
	m := agent.NewGoalManager(mock, openAgentTestDB(t))

	assert.Nil(t, m.DetectGoal(context.Background(), "what time is it"))
}

func TestDetectGoalLLMFailure(t *testing.T) {
	mock := newMockLLM()
	mock.err = errors.New("backend down")
	m := agent.NewGoalManager(mock, openAgentTestDB(t))

	assert.Nil(t, m.DetectGoal(context.Background(), "I want to learn Spanish"))
}

func TestCreateGoalWithSubtasks(t *testing.T) {
	store := openAgentTestDB(t)
	mock := newMockLLM().respondTo("Break this goal",
		`{"subtasks": [
			{"description": "Pick a course", "estimated_time": "1 hour"},
			{"description": "Study vocabulary daily", "estimated_time": "30 minutes"},
			{"description": "Find a conversation partner", "estimated_time": "2 hours"}
		]}`)
	m := agent.NewGoalManager(mock, store)

	goal, err := m.CreateGoal(context.Background(), "t1", "u1", &agent.GoalDetection{
		Title: "Learn Spanish", Description: "Conversational level", Priority: types.GoalPriorityMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, types.GoalStatusActive, goal.Status)
	assert.Len(t, goal.Subtasks, 3)
	assert.Equal(t, 0, goal.Progress)
	for _, st := range goal.Subtasks {
		assert.Equal(t, types.SubtaskStatusPending, st.Status)
		assert.NotEmpty(t, st.ID)
	}

	stored, err := store.GetGoal(context.Background(), "t1", goal.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Subtasks, 3)
}

func TestCreateGoalUntitledFallback(t *testing.T) {
	mock := newMockLLM()
	mock.err = errors.New("backend down")
	m := agent.NewGoalManager(mock, openAgentTestDB(t))

	goal, err := m.CreateGoal(context.Background(), "t1", "u1", &agent.GoalDetection{Title: "  "})
	require.NoError(t, err)

	// Decomposition failure still yields a goal, just without subtasks.
	assert.Equal(t, "Untitled Goal", goal.Title)
	assert.Empty(t, goal.Subtasks)
}

func TestUpdateSubtaskProgress(t *testing.T) {
	store := openAgentTestDB(t)
	mock := newMockLLM().respondTo("Break this goal",
		`{"subtasks": [{"description": "one"}, {"description": "two"}, {"description": "three"}]}`)
	m := agent.NewGoalManager(mock, store)

	goal, err := m.CreateGoal(context.Background(), "t1", "u1", &agent.GoalDetection{Title: "Ship it"})
	require.NoError(t, err)
	require.Len(t, goal.Subtasks, 3)

	updated, err := m.UpdateSubtask(context.Background(), "t1", goal.ID, goal.Subtasks[0].ID, types.SubtaskStatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, 33, updated.Progress)
	assert.Equal(t, types.GoalStatusActive, updated.Status)
	assert.NotNil(t, updated.Subtasks[0].CompletedAt)

	for _, st := range goal.Subtasks[1:] {
		updated, err = m.UpdateSubtask(context.Background(), "t1", goal.ID, st.ID, types.SubtaskStatusCompleted, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, types.GoalStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestUpdateSubtaskUnknownID(t *testing.T) {
	store := openAgentTestDB(t)
	mock := newMockLLM().respondTo("Break this goal", `{"subtasks": [{"description": "one"}]}`)
	m := agent.NewGoalManager(mock, store)

	goal, err := m.CreateGoal(context.Background(), "t1", "u1", &agent.GoalDetection{Title: "Ship it"})
	require.NoError(t, err)

	_, err = m.UpdateSubtask(context.Background(), "t1", goal.ID, "nope", types.SubtaskStatusCompleted, nil)
	assert.Error(t, err)
}

func TestUpdateSubtaskNotes(t *testing.T) {
	store := openAgentTestDB(t)
	mock := newMockLLM().respondTo("Break this goal", `{"subtasks": [{"description": "one"}]}`)
	m := agent.NewGoalManager(mock, store)

	goal, err := m.CreateGoal(context.Background(), "t1", "u1", &agent.GoalDetection{Title: "Ship it"})
	require.NoError(t, err)

	notes := "waiting on review"
	updated, err := m.UpdateSubtask(context.Background(), "t1", goal.ID, goal.Subtasks[0].ID, types.SubtaskStatusInProgress, &notes)
	require.NoError(t, err)
	assert.Equal(t, "waiting on review", updated.Subtasks[0].Notes)

	// A nil notes pointer leaves the existing notes alone.
	updated, err = m.UpdateSubtask(context.Background(), "t1", goal.ID, goal.Subtasks[0].ID, types.SubtaskStatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, "waiting on review", updated.Subtasks[0].Notes)
	assert.Equal(t, types.SubtaskStatusCompleted, updated.Subtasks[0].Status)
}

func TestSuggestNextActions(t *testing.T) {
	mock := newMockLLM().respondTo("most useful next actions",
		`{"suggestions": ["Do A", "Do B", "Do C", "Do D"]}`)
	m := agent.NewGoalManager(mock, openAgentTestDB(t))

	goal := &types.Goal{
		Title:    "Ship it",
		Progress: 40,
		Subtasks: []types.Subtask{
			{ID: "a", Description: "one", Status: types.SubtaskStatusPending},
			{ID: "b", Description: "two", Status: types.SubtaskStatusCompleted},
			{ID: "c", Description: "three", Status: types.SubtaskStatusInProgress},
			{ID: "d", Description: "four", Status: types.SubtaskStatusBlocked},
		},
	}

	suggestions := m.SuggestNextActions(context.Background(), goal)
	assert.Len(t, suggestions, 3)
	assert.InDelta(t, 0.7, mock.lastCall().Temperature, 0.001)
	// Only pending and in-progress subtasks are offered as next actions.
	assert.Contains(t, mock.lastCall().Prompt, "- one")
	assert.Contains(t, mock.lastCall().Prompt, "- three")
	assert.NotContains(t, mock.lastCall().Prompt, "- two")
	assert.NotContains(t, mock.lastCall().Prompt, "- four")
}

func TestSuggestNextActionsNothingOpen(t *testing.T) {
	mock := newMockLLM()
	m := agent.NewGoalManager(mock, openAgentTestDB(t))

	goal := &types.Goal{
		Title: "Ship it",
		Subtasks: []types.Subtask{
			{ID: "a", Description: "one", Status: types.SubtaskStatusCompleted},
			{ID: "b", Description: "two", Status: types.SubtaskStatusBlocked},
		},
	}

	assert.Nil(t, m.SuggestNextActions(context.Background(), goal))
	// No actionable subtasks means no model call at all.
	assert.Zero(t, mock.callCount())
}

func TestGoalStatsEmpty(t *testing.T) {
	m := agent.NewGoalManager(newMockLLM(), openAgentTestDB(t))

	stats, err := m.Stats(context.Background(), "t1", "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageProgress)
}

func TestGoalContextRendersActiveGoals(t *testing.T) {
	store := openAgentTestDB(t)
	mock := newMockLLM().respondTo("Break this goal",
		`{"subtasks": [{"description": "write the outline"}]}`)
	m := agent.NewGoalManager(mock, store)

	_, err := m.CreateGoal(context.Background(), "t1", "u1", &agent.GoalDetection{
		Title: "Write a book", Priority: types.GoalPriorityHigh,
	})
	require.NoError(t, err)

	context1 := m.GoalContext(context.Background(), "t1", "u1")
	assert.Contains(t, context1, "Write a book")
	assert.Contains(t, context1, "write the outline")

	assert.Empty(t, m.GoalContext(context.Background(), "t1", "someone-else"))
}
