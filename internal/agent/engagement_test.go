package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/pkg/types"
)

func TestAnalyzeUserStateConfusedAndStuck(t *testing.T) {
	m := agent.NewEngagementManager()

	state := m.AnalyzeUserState("I don't know how to do this, I'm stuck")

	assert.True(t, state.IsConfused)
	assert.True(t, state.IsStruggling)
	assert.False(t, state.IsOverwhelmed)
	assert.Equal(t, 1.0, state.Confidence)
}

func TestAnalyzeUserState(t *testing.T) {
	m := agent.NewEngagementManager()

	tests := []struct {
		name        string
		message     string
		confused    bool
		struggling  bool
		overwhelmed bool
	}{
		{"neutral", "The weather is nice today", false, false, false},
		{"confusion only", "What should I do about the migration?", true, false, false},
		{"struggle only", "I've tried restarting it twice already", false, true, false},
		{"overwhelm only", "There is just too much to get through before Friday", false, false, true},
		{"double question marks", "Is this right??", true, false, false},
		{"deadline stress", "I'm stressed about the deadline", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := m.AnalyzeUserState(tt.message)
			assert.Equal(t, tt.confused, state.IsConfused, "confused")
			assert.Equal(t, tt.struggling, state.IsStruggling, "struggling")
			assert.Equal(t, tt.overwhelmed, state.IsOverwhelmed, "overwhelmed")
			if tt.confused || tt.struggling || tt.overwhelmed {
				assert.Greater(t, state.Confidence, 0.0)
			} else {
				assert.Zero(t, state.Confidence)
			}
		})
	}
}

func TestAnalyzeUserStateConfidenceScaling(t *testing.T) {
	m := agent.NewEngagementManager()

	one := m.AnalyzeUserState("I'm confused")
	assert.InDelta(t, 0.7, one.Confidence, 0.001)

	three := m.AnalyzeUserState("I don't know, I'm stuck, and it's all too much")
	assert.Equal(t, 1.0, three.Confidence)
}

func TestShouldOfferHelpSoundingBoardNever(t *testing.T) {
	m := agent.NewEngagementManager()

	state := types.UserState{IsConfused: true, IsStruggling: true, IsOverwhelmed: true, Confidence: 1.0}
	assert.False(t, m.ShouldOfferHelp(types.LevelSoundingBoard, state))
}

func TestShouldOfferHelpPersonalAssistantAnyIndicator(t *testing.T) {
	m := agent.NewEngagementManager()

	assert.True(t, m.ShouldOfferHelp(types.LevelPersonalAssistant, types.UserState{IsOverwhelmed: true, Confidence: 0.7}))
	assert.False(t, m.ShouldOfferHelp(types.LevelPersonalAssistant, types.UserState{}))
}

func TestShouldOfferHelpCoWorkerConfusionOrStruggle(t *testing.T) {
	m := agent.NewEngagementManager()

	// Any confusion or struggle triggers help regardless of confidence.
	assert.True(t, m.ShouldOfferHelp(types.LevelCoWorker, types.UserState{IsConfused: true, Confidence: 0.7}))
	assert.True(t, m.ShouldOfferHelp(types.LevelCoWorker, types.UserState{IsConfused: true, Confidence: 0.1}))
	assert.True(t, m.ShouldOfferHelp(types.LevelCoWorker, types.UserState{IsStruggling: true}))
	// Overwhelm alone does not trigger co-worker help.
	assert.False(t, m.ShouldOfferHelp(types.LevelCoWorker, types.UserState{IsOverwhelmed: true, Confidence: 0.7}))
}

func TestGenerateHelpOfferPriority(t *testing.T) {
	m := agent.NewEngagementManager()

	// Confusion wins over struggle and overwhelm.
	all := types.UserState{IsConfused: true, IsStruggling: true, IsOverwhelmed: true}
	offer := m.GenerateHelpOffer(types.LevelCoWorker, all)
	assert.Contains(t, offer, "unclear")

	offer = m.GenerateHelpOffer(types.LevelCoWorker, types.UserState{IsStruggling: true})
	assert.Contains(t, offer, "different approach")

	offer = m.GenerateHelpOffer(types.LevelCoWorker, types.UserState{IsOverwhelmed: true})
	assert.Contains(t, offer, "plate")

	assert.Empty(t, m.GenerateHelpOffer(types.LevelCoWorker, types.UserState{}))
}

func TestGenerateHelpOfferAssistantOffersToDoWork(t *testing.T) {
	m := agent.NewEngagementManager()

	offer := m.GenerateHelpOffer(types.LevelPersonalAssistant, types.UserState{IsConfused: true})
	assert.Contains(t, offer, "take care of it")
}

func TestShouldCheckInIntervals(t *testing.T) {
	m := agent.NewEngagementManager()

	assert.False(t, m.ShouldCheckIn(types.LevelPersonalAssistant, 0))
	assert.True(t, m.ShouldCheckIn(types.LevelPersonalAssistant, 3))
	assert.False(t, m.ShouldCheckIn(types.LevelPersonalAssistant, 4))
	assert.True(t, m.ShouldCheckIn(types.LevelCoWorker, 5))
	assert.False(t, m.ShouldCheckIn(types.LevelCoWorker, 3))
	assert.True(t, m.ShouldCheckIn(types.LevelSoundingBoard, 10))
	assert.False(t, m.ShouldCheckIn(types.LevelSoundingBoard, 5))
}

func TestLevelConfigFallback(t *testing.T) {
	m := agent.NewEngagementManager()

	cfg := m.LevelConfig(types.EngagementLevel(9))
	assert.Equal(t, types.DefaultEngagementLevel, cfg.Level)
}

func TestDescribeLevelsOrdered(t *testing.T) {
	m := agent.NewEngagementManager()

	levels := m.DescribeLevels()
	assert.Len(t, levels, 3)
	assert.Equal(t, types.LevelSoundingBoard, levels[0].Level)
	assert.Equal(t, types.LevelPersonalAssistant, levels[2].Level)
}
