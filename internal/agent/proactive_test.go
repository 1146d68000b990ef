package agent_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/internal/storage/sqlite"
	"github.com/tailored-ai/eve/pkg/types"
)

func newProactiveEngine(t *testing.T) (*agent.ProactiveEngine, *sqlite.Store, *mockLLM) {
	t.Helper()
	store := openAgentTestDB(t)
	mock := newMockLLM()
	return agent.NewProactiveEngine(mock, store, store, store), store, mock
}

func seedGoal(t *testing.T, store *sqlite.Store, goal types.Goal) types.Goal {
	t.Helper()
	goal.TenantID = "t1"
	goal.UserID = "u1"
	if goal.Status == "" {
		goal.Status = types.GoalStatusActive
	}
	require.NoError(t, store.CreateGoal(context.Background(), &goal))
	return goal
}

func insightTypes(insights []types.ProactiveInsight) map[types.InsightType]int {
	out := make(map[types.InsightType]int)
	for _, i := range insights {
		out[i.Type]++
	}
	return out
}

func TestGenerateInsightsStalledGoal(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)

	seedGoal(t, store, types.Goal{
		Title:     "Dusty project",
		Priority:  types.GoalPriorityHigh,
		Progress:  20,
		UpdatedAt: time.Now().Add(-5 * 24 * time.Hour),
	})

	insights := engine.GenerateInsights(context.Background(), "t1", "u1", types.LevelCoWorker)

	byType := insightTypes(insights)
	require.Equal(t, 1, byType[types.InsightTypeSuggestion])
	for _, i := range insights {
		if i.Type == types.InsightTypeSuggestion {
			assert.Equal(t, types.InsightPriorityHigh, i.Priority)
			assert.Contains(t, i.Title, "Dusty project")
		}
	}
}

func TestGenerateInsightsFreshGoalNoStall(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)

	seedGoal(t, store, types.Goal{Title: "Fresh project", Progress: 20})

	insights := engine.GenerateInsights(context.Background(), "t1", "u1", types.LevelCoWorker)
	assert.Zero(t, insightTypes(insights)[types.InsightTypeSuggestion])
}

func TestGenerateInsightsMilestone(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)

	seedGoal(t, store, types.Goal{
		Title:    "Halfway there",
		Progress: 60,
		Subtasks: []types.Subtask{
			{ID: "a", Description: "done bit", Status: types.SubtaskStatusCompleted},
			{ID: "b", Description: "the next step", Status: types.SubtaskStatusPending},
		},
	})

	insights := engine.GenerateInsights(context.Background(), "t1", "u1", types.LevelCoWorker)

	require.Equal(t, 1, insightTypes(insights)[types.InsightTypeGoalUpdate])
	for _, i := range insights {
		if i.Type == types.InsightTypeGoalUpdate {
			assert.Contains(t, i.Content, "the next step")
		}
	}
}

func TestGenerateInsightsDeadlineAlert(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)

	due := time.Now().Add(3 * 24 * time.Hour)
	seedGoal(t, store, types.Goal{Title: "Tax filing", Progress: 30, TargetDate: &due})

	insights := engine.GenerateInsights(context.Background(), "t1", "u1", types.LevelCoWorker)

	require.Equal(t, 1, insightTypes(insights)[types.InsightTypeAlert])
	for _, i := range insights {
		if i.Type == types.InsightTypeAlert {
			assert.Equal(t, types.InsightPriorityHigh, i.Priority)
		}
	}
}

func TestGenerateInsightsNoDeadlineAlertWhenNearlyDone(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)

	due := time.Now().Add(3 * 24 * time.Hour)
	seedGoal(t, store, types.Goal{Title: "Tax filing", Progress: 90, TargetDate: &due})

	insights := engine.GenerateInsights(context.Background(), "t1", "u1", types.LevelCoWorker)
	assert.Zero(t, insightTypes(insights)[types.InsightTypeAlert])
}

func TestGenerateInsightsSoundingBoardGetsNothing(t *testing.T) {
	engine, store, mock := newProactiveEngine(t)
	ctx := context.Background()

	// Plenty to be proactive about: a stalled goal and a long-silent user.
	seedGoal(t, store, types.Goal{
		Title:     "Dusty project",
		Progress:  20,
		UpdatedAt: time.Now().Add(-10 * 24 * time.Hour),
	})
	require.NoError(t, store.AppendMessage(ctx, &types.ConversationMessage{
		TenantID: "t1", UserID: "u1", Role: "user", Content: "hi",
		CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
	}))

	// A sounding-board user never gets unsolicited insights, and none leak
	// into the prompt either.
	assert.Empty(t, engine.GenerateInsights(ctx, "t1", "u1", types.LevelSoundingBoard))
	assert.Empty(t, engine.ProactiveContext(ctx, "t1", "u1", types.LevelSoundingBoard))
	assert.Zero(t, mock.callCount())
}

func TestGenerateInsightsCheckInAfterInactivity(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)
	ctx := context.Background()

	require.NoError(t, store.AppendMessage(ctx, &types.ConversationMessage{
		TenantID: "t1", UserID: "u1", Role: "user", Content: "hi",
		CreatedAt: time.Now().Add(-4 * 24 * time.Hour),
	}))

	insights := engine.GenerateInsights(ctx, "t1", "u1", types.LevelCoWorker)
	assert.Equal(t, 1, insightTypes(insights)[types.InsightTypeCheckIn])

	// A recently active user gets no check-in.
	require.NoError(t, store.AppendMessage(ctx, &types.ConversationMessage{
		TenantID: "t1", UserID: "u1", Role: "user", Content: "back again",
	}))
	insights = engine.GenerateInsights(ctx, "t1", "u1", types.LevelCoWorker)
	assert.Zero(t, insightTypes(insights)[types.InsightTypeCheckIn])
}

func TestGenerateInsightsTip(t *testing.T) {
	engine, store, mock := newProactiveEngine(t)
	ctx := context.Background()
	mock.respondTo("practical tip", `{"title": "Batch your emails", "content": "Try checking email twice a day.", "relevant": true}`)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendMessage(ctx, &types.ConversationMessage{
			TenantID: "t1", UserID: "u1", Role: "user", Content: fmt.Sprintf("message %d", i),
		}))
	}

	// Tips start at the co-worker tier.
	insights := engine.GenerateInsights(ctx, "t1", "u1", types.LevelCoWorker)

	require.Equal(t, 1, insightTypes(insights)[types.InsightTypeTip])
	for _, i := range insights {
		if i.Type == types.InsightTypeTip {
			require.NotNil(t, i.ExpiresAt)
			assert.True(t, i.ExpiresAt.After(time.Now()))
		}
	}
}

func TestGenerateInsightsAnticipatedNeeds(t *testing.T) {
	engine, store, mock := newProactiveEngine(t)
	ctx := context.Background()
	mock.respondTo("practical tip", `{"relevant": false}`)
	mock.respondTo("anticipate", `{"needs": [
		{"title": "Trip packing", "content": "You mentioned a trip; want a packing list?", "suggested_action": "Draft a list", "confidence": 75},
		{"title": "Weak guess", "content": "maybe something", "confidence": 40}
	]}`)

	for i := 0; i < 12; i++ {
		require.NoError(t, store.AppendMessage(ctx, &types.ConversationMessage{
			TenantID: "t1", UserID: "u1", Role: "user", Content: fmt.Sprintf("message %d", i),
		}))
	}

	insights := engine.GenerateInsights(ctx, "t1", "u1", types.LevelPersonalAssistant)

	var suggestions []types.ProactiveInsight
	for _, i := range insights {
		if i.Type == types.InsightTypeSuggestion {
			suggestions = append(suggestions, i)
		}
	}
	// Only the confident prediction survives.
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Trip packing", suggestions[0].Title)
	assert.True(t, suggestions[0].Actionable)
}

func TestGenerateInsightsPersisted(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)

	due := time.Now().Add(2 * 24 * time.Hour)
	seedGoal(t, store, types.Goal{Title: "Due soon", Progress: 10, TargetDate: &due})

	generated := engine.GenerateInsights(context.Background(), "t1", "u1", types.LevelCoWorker)
	require.NotEmpty(t, generated)

	pending, err := engine.PendingInsights(context.Background(), "t1", "u1", 10)
	require.NoError(t, err)
	assert.Len(t, pending, len(generated))
}

func TestProactiveContextMarksDelivered(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)
	ctx := context.Background()

	require.NoError(t, store.InsertInsight(ctx, &types.ProactiveInsight{
		TenantID: "t1", UserID: "u1", Type: types.InsightTypeTip,
		Title: "A tip", Content: "Do the thing", Priority: types.InsightPriorityLow,
	}))

	contextText := engine.ProactiveContext(ctx, "t1", "u1", types.LevelCoWorker)
	assert.Contains(t, contextText, "A tip")

	pending, err := engine.PendingInsights(ctx, "t1", "u1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Delivered)
}

func TestDismissInsight(t *testing.T) {
	engine, store, _ := newProactiveEngine(t)
	ctx := context.Background()

	insight := types.ProactiveInsight{
		TenantID: "t1", UserID: "u1", Type: types.InsightTypeTip,
		Title: "A tip", Content: "Do the thing", Priority: types.InsightPriorityLow,
	}
	require.NoError(t, store.InsertInsight(ctx, &insight))
	require.NoError(t, engine.Dismiss(ctx, "t1", insight.ID))

	pending, err := engine.PendingInsights(ctx, "t1", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
