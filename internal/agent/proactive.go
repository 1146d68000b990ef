package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

const tipPromptTemplate = `Based on this user's recent messages, offer one short practical tip they would find genuinely useful right now.

Recent messages:
%s

Respond with ONLY a JSON object:
{"title": "", "content": "", "relevant": true}`

const anticipatePromptTemplate = `Based on this user's recent messages, anticipate up to 2 needs they are likely to have soon but have not asked about yet.

Recent messages:
%s

Confidence is 0-100. Only include needs you can tie to something they actually said.

Respond with ONLY a JSON object:
{"needs": [{"title": "", "content": "", "suggested_action": "", "confidence": 0}]}`

// Goal staleness and deadline thresholds for insight generation.
const (
	stalledGoalAge    = 3 * 24 * time.Hour
	deadlineHorizon   = 7 * 24 * time.Hour
	deadlineProgress  = 80
	milestoneProgress = 50
)

// InsightNotifier receives insights as they are generated, for push
// delivery to connected clients.
type InsightNotifier interface {
	NotifyInsight(insight types.ProactiveInsight)
}

// ProactiveEngine generates unprompted insights: stalled-goal nudges,
// milestone celebrations, deadline alerts, inactivity check-ins, contextual
// tips and anticipated needs. Generation is gated by the user's engagement
// tier; a sounding-board user gets nothing.
type ProactiveEngine struct {
	llmClient     llm.TextGenerator
	goals         storage.GoalStore
	insights      storage.InsightStore
	conversations storage.ConversationStore
	engagement    *EngagementManager
	notifier      InsightNotifier
}

// SetNotifier wires push delivery for newly generated insights.
func (p *ProactiveEngine) SetNotifier(n InsightNotifier) {
	p.notifier = n
}

// NewProactiveEngine creates a proactive engine.
func NewProactiveEngine(llmClient llm.TextGenerator, goals storage.GoalStore, insights storage.InsightStore, conversations storage.ConversationStore) *ProactiveEngine {
	return &ProactiveEngine{
		llmClient:     llmClient,
		goals:         goals,
		insights:      insights,
		conversations: conversations,
		engagement:    NewEngagementManager(),
	}
}

// GenerateInsights runs every generator appropriate for the user's tier and
// persists what they produce. A tier that never volunteers help produces
// nothing at all. Individual generator failures are logged and skipped; the
// rest still run.
func (p *ProactiveEngine) GenerateInsights(ctx context.Context, tenantID, userID string, level types.EngagementLevel) []types.ProactiveInsight {
	cfg := p.engagement.LevelConfig(level)
	if !cfg.OffersUnsolicitedHelp {
		return nil
	}

	generated := p.goalInsights(ctx, tenantID, userID)
	if insight := p.checkInInsight(ctx, tenantID, userID, cfg.ProactivityRate); insight != nil {
		generated = append(generated, *insight)
	}
	if insight := p.tipInsight(ctx, tenantID, userID); insight != nil {
		generated = append(generated, *insight)
	}
	if cfg.DemonstratesTasks {
		generated = append(generated, p.anticipatedNeeds(ctx, tenantID, userID)...)
	}

	for i := range generated {
		generated[i].TenantID = tenantID
		generated[i].UserID = userID
		if err := p.insights.InsertInsight(ctx, &generated[i]); err != nil {
			log.Printf("proactive: failed to persist insight: %v", err)
			continue
		}
		if p.notifier != nil {
			p.notifier.NotifyInsight(generated[i])
		}
	}
	return generated
}

// goalInsights scans active goals for stalls, milestones and looming
// deadlines.
func (p *ProactiveEngine) goalInsights(ctx context.Context, tenantID, userID string) []types.ProactiveInsight {
	goals, err := p.goals.ListGoalsByStatus(ctx, tenantID, userID, types.GoalStatusActive)
	if err != nil {
		log.Printf("proactive: failed to list goals: %v", err)
		return nil
	}

	now := time.Now()
	var out []types.ProactiveInsight
	for _, g := range goals {
		if g.Progress < 100 && now.Sub(g.UpdatedAt) > stalledGoalAge {
			priority := types.InsightPriorityMedium
			if g.Priority == types.GoalPriorityHigh || g.Priority == types.GoalPriorityCritical {
				priority = types.InsightPriorityHigh
			}
			out = append(out, types.ProactiveInsight{
				Type:            types.InsightTypeSuggestion,
				Title:           fmt.Sprintf("%q hasn't moved in a few days", g.Title),
				Content:         fmt.Sprintf("You're at %d%% on %q but nothing has changed since %s. Want to pick it back up?", g.Progress, g.Title, g.UpdatedAt.Format("Jan 2")),
				Priority:        priority,
				RelatedGoalID:   g.ID,
				Actionable:      true,
				SuggestedAction: "Review the next open subtask",
			})
		}

		if g.Progress >= milestoneProgress && g.Progress < 100 {
			next := ""
			for _, st := range g.Subtasks {
				if st.Status == types.SubtaskStatusPending {
					next = st.Description
					break
				}
			}
			content := fmt.Sprintf("You're %d%% of the way through %q.", g.Progress, g.Title)
			if next != "" {
				content += " Next up: " + next
			}
			out = append(out, types.ProactiveInsight{
				Type:          types.InsightTypeGoalUpdate,
				Title:         fmt.Sprintf("Over halfway on %q", g.Title),
				Content:       content,
				Priority:      types.InsightPriorityLow,
				RelatedGoalID: g.ID,
			})
		}

		if g.TargetDate != nil && g.Progress < deadlineProgress {
			until := g.TargetDate.Sub(now)
			if until > 0 && until <= deadlineHorizon {
				out = append(out, types.ProactiveInsight{
					Type:            types.InsightTypeAlert,
					Title:           fmt.Sprintf("%q is due soon", g.Title),
					Content:         fmt.Sprintf("%q is due %s and sits at %d%%. It may need focused time this week.", g.Title, g.TargetDate.Format("Jan 2"), g.Progress),
					Priority:        types.InsightPriorityHigh,
					RelatedGoalID:   g.ID,
					Actionable:      true,
					SuggestedAction: "Block time for the remaining subtasks",
				})
			}
		}
	}
	return out
}

// checkInDays maps proactivity rate to how many quiet days pass before a
// check-in insight.
func checkInDays(rate string) int {
	switch rate {
	case "frequent":
		return 1
	case "moderate":
		return 3
	default:
		return 7
	}
}

// checkInInsight produces an inactivity check-in when the user has been
// quiet longer than their tier allows.
func (p *ProactiveEngine) checkInInsight(ctx context.Context, tenantID, userID, rate string) *types.ProactiveInsight {
	last, err := p.conversations.LastActivityAt(ctx, tenantID, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("proactive: failed to read last activity: %v", err)
		}
		return nil
	}

	days := int(time.Since(last).Hours() / 24)
	if days < checkInDays(rate) {
		return nil
	}

	var content string
	switch {
	case days > 14:
		content = "It's been a couple of weeks. A lot can change in that time; want to catch me up?"
	case days > 7:
		content = "It's been over a week since we last talked. How have things been going?"
	case days > 3:
		content = "It's been a few days. Anything new you're working on?"
	default:
		content = "Just checking in. Anything I can help with today?"
	}

	return &types.ProactiveInsight{
		Type:     types.InsightTypeCheckIn,
		Title:    "Checking in",
		Content:  content,
		Priority: types.InsightPriorityLow,
	}
}

type tipResponse struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Relevant bool   `json:"relevant"`
}

// tipInsight asks the model for one contextual tip from recent messages.
// Tips expire after a day so stale advice never surfaces.
func (p *ProactiveEngine) tipInsight(ctx context.Context, tenantID, userID string) *types.ProactiveInsight {
	messages, err := p.conversations.ListRecentUserMessages(ctx, tenantID, userID, 10)
	if err != nil || len(messages) < 3 {
		return nil
	}

	var lines []string
	for _, msg := range messages {
		lines = append(lines, "- "+msg.Content)
	}

	raw, err := p.llmClient.Complete(ctx, fmt.Sprintf(tipPromptTemplate, strings.Join(lines, "\n")), 0.7)
	if err != nil {
		log.Printf("proactive: tip generation failed: %v", err)
		return nil
	}

	var tip tipResponse
	if err := llm.DecodeJSON(raw, &tip); err != nil || !tip.Relevant || tip.Content == "" {
		return nil
	}

	expires := time.Now().Add(24 * time.Hour)
	return &types.ProactiveInsight{
		Type:      types.InsightTypeTip,
		Title:     tip.Title,
		Content:   tip.Content,
		Priority:  types.InsightPriorityLow,
		ExpiresAt: &expires,
	}
}

type anticipateResponse struct {
	Needs []struct {
		Title           string `json:"title"`
		Content         string `json:"content"`
		SuggestedAction string `json:"suggested_action"`
		Confidence      int    `json:"confidence"`
	} `json:"needs"`
}

// anticipatedNeeds predicts upcoming needs from conversation history. Only
// runs with enough history to say something grounded, and drops
// low-confidence predictions.
func (p *ProactiveEngine) anticipatedNeeds(ctx context.Context, tenantID, userID string) []types.ProactiveInsight {
	messages, err := p.conversations.ListRecentUserMessages(ctx, tenantID, userID, 20)
	if err != nil || len(messages) < 10 {
		return nil
	}

	var lines []string
	for _, msg := range messages {
		lines = append(lines, "- "+msg.Content)
	}

	raw, err := p.llmClient.Complete(ctx, fmt.Sprintf(anticipatePromptTemplate, strings.Join(lines, "\n")), 0.5)
	if err != nil {
		log.Printf("proactive: anticipation failed: %v", err)
		return nil
	}

	var resp anticipateResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return nil
	}

	var out []types.ProactiveInsight
	for _, need := range resp.Needs {
		if need.Confidence < 60 || need.Content == "" {
			continue
		}
		out = append(out, types.ProactiveInsight{
			Type:            types.InsightTypeSuggestion,
			Title:           need.Title,
			Content:         need.Content,
			Priority:        types.InsightPriorityMedium,
			Actionable:      need.SuggestedAction != "",
			SuggestedAction: need.SuggestedAction,
		})
	}
	return out
}

// PendingInsights returns undismissed, unexpired insights for the user.
func (p *ProactiveEngine) PendingInsights(ctx context.Context, tenantID, userID string, limit int) ([]types.ProactiveInsight, error) {
	return p.insights.ListPendingInsights(ctx, tenantID, userID, limit, time.Now())
}

// ProactiveContext renders up to 3 pending insights into a prompt section
// and marks them delivered. Empty string when there are none, and always
// empty for a tier that never volunteers help, mirroring the generation
// gate.
func (p *ProactiveEngine) ProactiveContext(ctx context.Context, tenantID, userID string, level types.EngagementLevel) string {
	if !p.engagement.LevelConfig(level).OffersUnsolicitedHelp {
		return ""
	}

	pending, err := p.insights.ListPendingInsights(ctx, tenantID, userID, 3, time.Now())
	if err != nil {
		log.Printf("proactive: failed to load pending insights: %v", err)
		return ""
	}
	if len(pending) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Things worth mentioning if relevant:\n")
	for _, insight := range pending {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", insight.Type, insight.Title, insight.Content)
		if err := p.insights.MarkInsightDelivered(ctx, tenantID, insight.ID); err != nil {
			log.Printf("proactive: failed to mark insight delivered: %v", err)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Dismiss hides an insight from future reads.
func (p *ProactiveEngine) Dismiss(ctx context.Context, tenantID, id string) error {
	return p.insights.DismissInsight(ctx, tenantID, id)
}
