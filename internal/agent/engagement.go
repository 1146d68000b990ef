package agent

import (
	"regexp"

	"github.com/tailored-ai/eve/pkg/types"
)

// LevelConfig describes how the assistant behaves at one engagement tier.
type LevelConfig struct {
	Level           types.EngagementLevel `json:"level"`
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	ProactivityRate string                `json:"proactivity_rate"` // "rare", "moderate" or "frequent"

	// OffersUnsolicitedHelp allows the assistant to volunteer help when the
	// user looks stuck.
	OffersUnsolicitedHelp bool `json:"offers_unsolicited_help"`

	// DemonstratesTasks allows the assistant to offer to do work, not just
	// explain it.
	DemonstratesTasks bool `json:"demonstrates_tasks"`

	// PromptAdditions is appended to the system prompt for this tier.
	PromptAdditions string `json:"-"`
}

var levelConfigs = map[types.EngagementLevel]LevelConfig{
	types.LevelSoundingBoard: {
		Level:           types.LevelSoundingBoard,
		Name:            "Sounding Board",
		Description:     "Listens and responds when asked, never volunteers",
		ProactivityRate: "rare",
		PromptAdditions: `Engagement style: You are a sounding board. Respond thoughtfully to what the user asks, but do not volunteer suggestions, offer help they did not request, or steer the conversation. Let the user drive.`,
	},
	types.LevelCoWorker: {
		Level:                 types.LevelCoWorker,
		Name:                  "Co-Worker",
		Description:           "Collaborates and suggests when the user struggles",
		ProactivityRate:       "moderate",
		OffersUnsolicitedHelp: true,
		PromptAdditions: `Engagement style: You are a collaborative co-worker. Answer what is asked, and when the user seems stuck or confused, offer a suggestion or next step. Keep suggestions brief and easy to decline.`,
	},
	types.LevelPersonalAssistant: {
		Level:                 types.LevelPersonalAssistant,
		Name:                  "Personal Assistant",
		Description:           "Anticipates needs and offers to take on work",
		ProactivityRate:       "frequent",
		OffersUnsolicitedHelp: true,
		DemonstratesTasks:     true,
		PromptAdditions: `Engagement style: You are a proactive personal assistant. Anticipate what the user needs, surface reminders and follow-ups, and offer to take on concrete tasks yourself when that would save the user time.`,
	},
}

// Signal phrase patterns for user-state detection. Matching is intentionally
// shallow so it works on a single message without an LLM call.
var (
	confusionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)i don'?t (know|understand|get)`),
		regexp.MustCompile(`(?i)what (do|does|is|are|should)`),
		regexp.MustCompile(`(?i)how (do|does|can|should)`),
		regexp.MustCompile(`(?i)i'?m (confused|lost|unsure)`),
		regexp.MustCompile(`\?{2,}`),
		regexp.MustCompile(`(?i)\bhelp\b`),
	}

	strugglePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)i (can'?t|couldn'?t|won'?t be able)`),
		regexp.MustCompile(`(?i)this (is|isn'?t) working`),
		regexp.MustCompile(`(?i)i'?ve tried`),
		regexp.MustCompile(`(?i)still (not|doesn'?t|won'?t)`),
		regexp.MustCompile(`(?i)frustrat`),
		regexp.MustCompile(`(?i)\bstuck\b`),
	}

	overwhelmPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)too (much|many)`),
		regexp.MustCompile(`(?i)overwhelm`),
		regexp.MustCompile(`(?i)so much to do`),
		regexp.MustCompile(`(?i)don'?t have (the )?time`),
		regexp.MustCompile(`(?i)stress`),
		regexp.MustCompile(`(?i)deadline`),
	}
)

// EngagementManager governs how assertive the assistant is allowed to be.
// It detects user distress signals from message text and gates unsolicited
// help behind the user's chosen engagement tier.
type EngagementManager struct{}

// NewEngagementManager creates an engagement manager.
func NewEngagementManager() *EngagementManager {
	return &EngagementManager{}
}

// LevelConfig returns the behavior profile for a tier. Unknown levels fall
// back to the default tier.
func (m *EngagementManager) LevelConfig(level types.EngagementLevel) LevelConfig {
	if cfg, ok := levelConfigs[level]; ok {
		return cfg
	}
	return levelConfigs[types.DefaultEngagementLevel]
}

// AnalyzeUserState scans a message for confusion, struggle and overwhelm
// signals. Confidence scales with how many signal families matched and is
// clamped to 1.0.
func (m *EngagementManager) AnalyzeUserState(message string) types.UserState {
	state := types.UserState{}

	indicators := 0
	if matchesAny(confusionPatterns, message) {
		state.IsConfused = true
		indicators++
	}
	if matchesAny(strugglePatterns, message) {
		state.IsStruggling = true
		indicators++
	}
	if matchesAny(overwhelmPatterns, message) {
		state.IsOverwhelmed = true
		indicators++
	}

	if indicators > 0 {
		state.Confidence = float64(indicators)*0.4 + 0.3
		if state.Confidence > 1.0 {
			state.Confidence = 1.0
		}
	}
	return state
}

// ShouldOfferHelp decides whether unsolicited help is appropriate for this
// state at this tier. Sounding-board users never get volunteered help.
func (m *EngagementManager) ShouldOfferHelp(level types.EngagementLevel, state types.UserState) bool {
	cfg := m.LevelConfig(level)
	if !cfg.OffersUnsolicitedHelp {
		return false
	}
	if cfg.DemonstratesTasks {
		return state.AnyIndicator()
	}
	return state.IsConfused || state.IsStruggling
}

// GenerateHelpOffer produces a short help offer matched to the detected
// state. Confusion takes priority over struggle, struggle over overwhelm.
func (m *EngagementManager) GenerateHelpOffer(level types.EngagementLevel, state types.UserState) string {
	cfg := m.LevelConfig(level)

	switch {
	case state.IsConfused:
		if cfg.DemonstratesTasks {
			return "It sounds like something here is unclear. Want me to walk through it step by step, or just take care of it for you?"
		}
		return "It sounds like something here is unclear. Would it help if I broke it down step by step?"
	case state.IsStruggling:
		if cfg.DemonstratesTasks {
			return "Seems like this one is putting up a fight. I can try a different approach, or handle part of it myself if you'd like."
		}
		return "Seems like this one is putting up a fight. Want to try a different approach together?"
	case state.IsOverwhelmed:
		if cfg.DemonstratesTasks {
			return "That's a lot on your plate. Want me to help prioritize, or pick something off the list and run with it?"
		}
		return "That's a lot on your plate. Want to pick one thing and focus on just that for now?"
	default:
		return ""
	}
}

// checkInInterval maps proactivity rate to how many interactions pass
// between check-ins.
func checkInInterval(rate string) int {
	switch rate {
	case "frequent":
		return 3
	case "moderate":
		return 5
	default:
		return 10
	}
}

// ShouldCheckIn reports whether this interaction count warrants a periodic
// check-in at the given tier.
func (m *EngagementManager) ShouldCheckIn(level types.EngagementLevel, interactionCount int) bool {
	if interactionCount <= 0 {
		return false
	}
	return interactionCount%checkInInterval(m.LevelConfig(level).ProactivityRate) == 0
}

// CheckInMessage returns the periodic check-in line for a tier.
func (m *EngagementManager) CheckInMessage(level types.EngagementLevel) string {
	switch level {
	case types.LevelPersonalAssistant:
		return "Quick check-in: anything I can take off your plate right now?"
	case types.LevelCoWorker:
		return "By the way, how are things going overall? Anything you'd like a hand with?"
	default:
		return "I'm here if you want to talk anything through."
	}
}

// DescribeLevels returns a human-readable summary of all tiers, used by the
// settings API.
func (m *EngagementManager) DescribeLevels() []LevelConfig {
	out := make([]LevelConfig, 0, len(levelConfigs))
	for _, level := range []types.EngagementLevel{
		types.LevelSoundingBoard,
		types.LevelCoWorker,
		types.LevelPersonalAssistant,
	} {
		out = append(out, levelConfigs[level])
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
