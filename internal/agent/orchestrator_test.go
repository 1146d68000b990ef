package agent_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/internal/storage/sqlite"
	"github.com/tailored-ai/eve/pkg/types"
)

func newOrchestrator(t *testing.T, mock *mockLLM) (*agent.Orchestrator, *sqlite.Store) {
	t.Helper()
	store := openAgentTestDB(t)
	return agent.NewOrchestrator(mock, store, agent.Options{}), store
}

// passingGrader wires the reflection prompts so drafts ship unrevised.
func passingGrader(mock *mockLLM) *mockLLM {
	return mock.respondTo("quality grader",
		`{"accuracy": 90, "helpfulness": 90, "completeness": 90, "clarity": 90, "empathy": 90}`)
}

func TestBuildSystemPromptIncludesMemories(t *testing.T) {
	o, store := newOrchestrator(t, newMockLLM())
	ctx := context.Background()

	require.NoError(t, store.StoreMemory(ctx, &types.Memory{
		TenantID: "t1", UserID: "u1", Content: "favorite color is purple",
		MemoryType: types.MemoryTypePreference, Importance: 90,
	}))
	require.NoError(t, store.StoreMemory(ctx, &types.Memory{
		TenantID: "t1", UserID: "u1", Content: "has a dog named Max",
		MemoryType: types.MemoryTypeFact, Importance: 80,
	}))

	agCtx := o.BuildContext(ctx, "t1", "u1", "hi", types.LevelCoWorker)
	prompt := o.BuildSystemPrompt(types.LevelCoWorker, agCtx)

	assert.Contains(t, prompt, "purple")
	assert.Contains(t, prompt, "Max")
	assert.Contains(t, prompt, "You are Eve")
	assert.Contains(t, prompt, "co-worker")
}

func TestBuildSystemPromptVariesByLevel(t *testing.T) {
	o, _ := newOrchestrator(t, newMockLLM())

	empty := &types.AgenticContext{}
	sounding := o.BuildSystemPrompt(types.LevelSoundingBoard, empty)
	assistant := o.BuildSystemPrompt(types.LevelPersonalAssistant, empty)

	assert.Contains(t, sounding, "sounding board")
	assert.Contains(t, assistant, "personal assistant")
	assert.NotEqual(t, sounding, assistant)
}

func TestGetEngagementLevelDefault(t *testing.T) {
	o, _ := newOrchestrator(t, newMockLLM())

	level := o.GetEngagementLevel(context.Background(), "t1", "new-user")
	assert.Equal(t, types.DefaultEngagementLevel, level)
}

func TestSetEngagementLevelRoundTrip(t *testing.T) {
	o, _ := newOrchestrator(t, newMockLLM())
	ctx := context.Background()

	require.NoError(t, o.SetEngagementLevel(ctx, "t1", "u1", types.LevelPersonalAssistant))
	assert.Equal(t, types.LevelPersonalAssistant, o.GetEngagementLevel(ctx, "t1", "u1"))

	assert.Error(t, o.SetEngagementLevel(ctx, "t1", "u1", types.EngagementLevel(7)))
}

func TestProcessMessageBasicFlow(t *testing.T) {
	mock := passingGrader(newMockLLM()).
		respondTo("You are Eve", "Here's a simple answer.").
		respondTo("expressing a goal", `{"is_goal": false, "confidence": 0}`)
	o, store := newOrchestrator(t, mock)
	ctx := context.Background()

	result, err := o.ProcessMessage(ctx, "t1", "u1", "how do I sort a list in Go?")
	require.NoError(t, err)

	assert.Equal(t, "Here's a simple answer.", result.Response)
	assert.False(t, result.WasRevised)
	assert.Equal(t, 90, result.ReflectionScore)
	assert.False(t, result.DetectedGoal)
	assert.Equal(t, "mock-model", result.Metadata["model"])
	assert.Equal(t, "1", result.Metadata["interaction_count"])

	// Both turns are persisted.
	messages, err := store.ListRecentUserMessages(ctx, "t1", "u1", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "how do I sort a list in Go?", messages[0].Content)

	count, err := store.InteractionCount(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessMessageRevisesWeakDraft(t *testing.T) {
	mock := newMockLLM().
		respondTo("You are Eve", "weak draft").
		respondTo("quality grader",
			`{"accuracy": 40, "helpfulness": 40, "completeness": 40, "clarity": 40, "empathy": 40, "improvements": ["say more"]}`).
		respondTo("needs improvement", "Much better answer.").
		respondTo("expressing a goal", `{"is_goal": false, "confidence": 0}`)
	o, _ := newOrchestrator(t, mock)

	result, err := o.ProcessMessage(context.Background(), "t1", "u1", "tell me about tides")
	require.NoError(t, err)

	assert.True(t, result.WasRevised)
	assert.Equal(t, "Much better answer.", result.Response)
	assert.Equal(t, 40, result.ReflectionScore)
}

func TestProcessMessageCreatesDetectedGoal(t *testing.T) {
	mock := passingGrader(newMockLLM()).
		respondTo("You are Eve", "Great goal, let's do it.").
		respondTo("expressing a goal",
			`{"is_goal": true, "confidence": 90, "title": "Run a marathon", "priority": "high"}`).
		respondTo("Break this goal",
			`{"subtasks": [{"description": "buy shoes"}, {"description": "train weekly"}, {"description": "register"}]}`)
	o, store := newOrchestrator(t, mock)
	ctx := context.Background()

	result, err := o.ProcessMessage(ctx, "t1", "u1", "I want to run a marathon next year")
	require.NoError(t, err)

	assert.True(t, result.DetectedGoal)

	// Creation runs in the background; the goal shows up shortly after the
	// turn returns.
	require.Eventually(t, func() bool {
		goals, err := store.ListGoals(ctx, "t1", "u1")
		return err == nil && len(goals) == 1 && len(goals[0].Subtasks) == 3
	}, 2*time.Second, 10*time.Millisecond)

	goals, err := store.ListGoals(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Run a marathon", goals[0].Title)
}

func TestProcessMessageDoesNotWaitOnGoalCreation(t *testing.T) {
	release := make(chan struct{})
	mock := passingGrader(newMockLLM()).
		respondTo("You are Eve", "Great goal, let's do it.").
		respondTo("expressing a goal",
			`{"is_goal": true, "confidence": 90, "title": "Run a marathon", "priority": "high"}`).
		respondTo("Break this goal",
			`{"subtasks": [{"description": "buy shoes"}]}`).
		blockUntil("Break this goal", release)
	o, store := newOrchestrator(t, mock)
	ctx := context.Background()

	// Decomposition is held open; the turn must still return.
	result, err := o.ProcessMessage(ctx, "t1", "u1", "I want to run a marathon next year")
	require.NoError(t, err)
	assert.True(t, result.DetectedGoal)

	goals, err := store.ListGoals(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Empty(t, goals)

	close(release)
	require.Eventually(t, func() bool {
		goals, err := store.ListGoals(ctx, "t1", "u1")
		return err == nil && len(goals) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProcessMessageOffersHelpWhenStuck(t *testing.T) {
	mock := passingGrader(newMockLLM()).
		respondTo("You are Eve", "Try breaking the problem into pieces.").
		respondTo("expressing a goal", `{"is_goal": false, "confidence": 0}`)
	o, _ := newOrchestrator(t, mock)
	ctx := context.Background()

	require.NoError(t, o.SetEngagementLevel(ctx, "t1", "u1", types.LevelPersonalAssistant))

	result, err := o.ProcessMessage(ctx, "t1", "u1", "I don't know how to do this, I'm stuck")
	require.NoError(t, err)

	assert.True(t, result.ProactiveHelpOffered)
	assert.Contains(t, result.Response, "step by step")
}

func TestProcessMessageHelpOfferIdempotent(t *testing.T) {
	offer := "It sounds like something here is unclear. Want me to walk through it step by step, or just take care of it for you?"
	mock := passingGrader(newMockLLM()).
		respondTo("You are Eve", "Let me help. "+offer).
		respondTo("expressing a goal", `{"is_goal": false, "confidence": 0}`)
	o, _ := newOrchestrator(t, mock)
	ctx := context.Background()

	require.NoError(t, o.SetEngagementLevel(ctx, "t1", "u1", types.LevelPersonalAssistant))

	result, err := o.ProcessMessage(ctx, "t1", "u1", "I don't know how to do this, I'm stuck")
	require.NoError(t, err)

	// The model already made the offer; it is not appended again.
	assert.False(t, result.ProactiveHelpOffered)
	assert.Equal(t, 1, strings.Count(result.Response, offer))
}

func TestProcessMessageNoHelpForSoundingBoard(t *testing.T) {
	mock := passingGrader(newMockLLM()).
		respondTo("You are Eve", "Here's a thought.").
		respondTo("expressing a goal", `{"is_goal": false, "confidence": 0}`)
	o, _ := newOrchestrator(t, mock)
	ctx := context.Background()

	require.NoError(t, o.SetEngagementLevel(ctx, "t1", "u1", types.LevelSoundingBoard))

	result, err := o.ProcessMessage(ctx, "t1", "u1", "I don't know how to do this, I'm stuck")
	require.NoError(t, err)

	assert.False(t, result.ProactiveHelpOffered)
	assert.Equal(t, "Here's a thought.", result.Response)
}

func TestProcessMessageCheckInOnInterval(t *testing.T) {
	mock := passingGrader(newMockLLM()).
		respondTo("You are Eve", "Sure.").
		respondTo("expressing a goal", `{"is_goal": false, "confidence": 0}`)
	o, _ := newOrchestrator(t, mock)
	ctx := context.Background()

	checkIn := "how are things going overall"
	var last *types.AgenticResponse
	for i := 0; i < 5; i++ {
		var err error
		last, err = o.ProcessMessage(ctx, "t1", "u1", "quick question about dates")
		require.NoError(t, err)
		if i < 4 {
			assert.NotContains(t, last.Response, checkIn)
		}
	}
	// Fifth interaction at the default co-worker tier triggers a check-in.
	assert.Contains(t, last.Response, checkIn)
}

func TestProcessMessageChatFailureIsHardError(t *testing.T) {
	mock := newMockLLM()
	mock.err = assert.AnError
	o, _ := newOrchestrator(t, mock)

	_, err := o.ProcessMessage(context.Background(), "t1", "u1", "hello")
	assert.Error(t, err)
}

func TestExecuteComplexTask(t *testing.T) {
	mock := newMockLLM().
		respondTo("team of specialized agents",
			`{"tasks": [{"role": "coordinator", "objective": "do it all"}]}`).
		respondTo("generalist coordinator", `{"output": "done", "confidence": 95}`)
	o, _ := newOrchestrator(t, mock)

	result, err := o.ExecuteComplexTask(context.Background(), "t1", "u1", "plan my week")
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "done", result.FinalOutput)
	assert.Equal(t, 95, result.OverallConfidence)
}

func TestExecuteComplexTaskEmptyObjective(t *testing.T) {
	o, _ := newOrchestrator(t, newMockLLM())

	_, err := o.ExecuteComplexTask(context.Background(), "t1", "u1", "   ")
	assert.Error(t, err)
}

func TestCapabilitiesStatus(t *testing.T) {
	o, _ := newOrchestrator(t, newMockLLM())

	status := o.CapabilitiesStatus()
	assert.Equal(t, "mock-model", status["model"])
	assert.Contains(t, status["capabilities"], "self_reflection")
}

func TestRecordFeedbackDelegates(t *testing.T) {
	o, store := newOrchestrator(t, passingGrader(newMockLLM()))
	ctx := context.Background()

	require.NoError(t, o.RecordFeedback(ctx, &types.FeedbackEntry{
		InteractionID: "i1", TenantID: "t1", UserID: "u1", Feedback: types.FeedbackPositive,
	}))

	counts, err := store.FeedbackCounts(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total)
}
