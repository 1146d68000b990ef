package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

const basePersona = `You are Eve, a personal AI assistant with persistent memory. You remember what users tell you across conversations and use it to be genuinely helpful. Be warm, direct and concise. Never fabricate memories you do not have.`

// Options tunes the orchestrator. Zero values select defaults.
type Options struct {
	// DefaultLevel applies to users with no stored engagement tier.
	DefaultLevel types.EngagementLevel

	// MemoryContextLimit caps how many memories are injected per turn.
	MemoryContextLimit int

	// ReflectionThreshold is the score below which drafts are revised.
	ReflectionThreshold int
}

// Orchestrator wires the agentic modules into the per-message pipeline:
// context assembly, response generation, self-reflection, goal detection,
// engagement-gated help offers, and background knowledge extraction.
type Orchestrator struct {
	llmClient llm.TextGenerator
	store     storage.Store

	engagement *EngagementManager
	goals      *GoalManager
	knowledge  *KnowledgeBuilder
	learner    *Learner
	proactive  *ProactiveEngine
	reflector  *Reflector
	planner    *Planner

	defaultLevel types.EngagementLevel
	memoryLimit  int
}

// NewOrchestrator assembles the full agentic pipeline over one store and
// one text generator.
func NewOrchestrator(llmClient llm.TextGenerator, store storage.Store, opts Options) *Orchestrator {
	if opts.DefaultLevel == 0 {
		opts.DefaultLevel = types.DefaultEngagementLevel
	}
	if opts.MemoryContextLimit <= 0 {
		opts.MemoryContextLimit = 15
	}

	reflector := NewReflector(llmClient, store)
	if opts.ReflectionThreshold > 0 {
		reflector.Threshold = opts.ReflectionThreshold
	}

	return &Orchestrator{
		llmClient:    llmClient,
		store:        store,
		engagement:   NewEngagementManager(),
		goals:        NewGoalManager(llmClient, store),
		knowledge:    NewKnowledgeBuilder(llmClient, store),
		learner:      NewLearner(llmClient, store),
		proactive:    NewProactiveEngine(llmClient, store, store, store),
		reflector:    reflector,
		planner:      NewPlanner(llmClient),
		defaultLevel: opts.DefaultLevel,
		memoryLimit:  opts.MemoryContextLimit,
	}
}

// Goals exposes the goal manager for API handlers.
func (o *Orchestrator) Goals() *GoalManager { return o.goals }

// Knowledge exposes the knowledge builder for API handlers.
func (o *Orchestrator) Knowledge() *KnowledgeBuilder { return o.knowledge }

// Learner exposes the continuous learner for API handlers.
func (o *Orchestrator) Learner() *Learner { return o.learner }

// Proactive exposes the proactive engine for API handlers.
func (o *Orchestrator) Proactive() *ProactiveEngine { return o.proactive }

// Reflector exposes the self-reflection evaluator for API handlers.
func (o *Orchestrator) Reflector() *Reflector { return o.reflector }

// GetEngagementLevel returns the user's stored tier, or the default for
// users who never chose one.
func (o *Orchestrator) GetEngagementLevel(ctx context.Context, tenantID, userID string) types.EngagementLevel {
	level, err := o.store.GetEngagementLevel(ctx, tenantID, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("orchestrator: failed to read engagement level: %v", err)
		}
		return o.defaultLevel
	}
	return level
}

// SetEngagementLevel stores the user's tier.
func (o *Orchestrator) SetEngagementLevel(ctx context.Context, tenantID, userID string, level types.EngagementLevel) error {
	return o.store.SetEngagementLevel(ctx, tenantID, userID, level)
}

// EngagementLevels describes the available tiers for the settings API.
func (o *Orchestrator) EngagementLevels() []LevelConfig {
	return o.engagement.DescribeLevels()
}

// BuildContext assembles the per-turn context by fanning out to every
// context source concurrently. Individual source failures degrade to empty
// sections rather than failing the turn.
func (o *Orchestrator) BuildContext(ctx context.Context, tenantID, userID, message string, level types.EngagementLevel) *types.AgenticContext {
	agCtx := &types.AgenticContext{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		memories, err := o.store.ListMemories(ctx, tenantID, userID, o.memoryLimit)
		if err != nil {
			log.Printf("orchestrator: failed to load memories: %v", err)
			return
		}
		agCtx.Memories = memories
	}()

	type section struct {
		target *string
		load   func() string
	}
	sections := []section{
		{&agCtx.GoalContext, func() string { return o.goals.GoalContext(ctx, tenantID, userID) }},
		{&agCtx.KnowledgeContext, func() string { return o.knowledge.KnowledgeContext(ctx, tenantID, message) }},
		{&agCtx.ProactiveContext, func() string { return o.proactive.ProactiveContext(ctx, tenantID, userID, level) }},
		{&agCtx.PersonalizationContext, func() string { return o.learner.PersonalizationContext(ctx, tenantID) }},
	}

	results := make(chan struct{}, len(sections))
	for i := range sections {
		s := sections[i]
		go func() {
			*s.target = s.load()
			results <- struct{}{}
		}()
	}

	count, err := o.store.InteractionCount(ctx, tenantID, userID)
	if err != nil {
		log.Printf("orchestrator: failed to read interaction count: %v", err)
	}
	agCtx.InteractionCount = count

	for range sections {
		<-results
	}
	<-done
	return agCtx
}

// BuildSystemPrompt renders the per-turn system prompt: base persona, the
// tier's engagement style, and every non-empty context section.
func (o *Orchestrator) BuildSystemPrompt(level types.EngagementLevel, agCtx *types.AgenticContext) string {
	var b strings.Builder
	b.WriteString(basePersona)
	b.WriteString("\n\n")
	b.WriteString(o.engagement.LevelConfig(level).PromptAdditions)

	if len(agCtx.Memories) > 0 {
		b.WriteString("\n\nWhat you remember about this user:\n")
		for _, mem := range agCtx.Memories {
			fmt.Fprintf(&b, "- [%s] %s\n", mem.MemoryType, mem.Content)
		}
	}
	for _, sectionText := range []string{
		agCtx.GoalContext,
		agCtx.KnowledgeContext,
		agCtx.PersonalizationContext,
		agCtx.ProactiveContext,
	} {
		if sectionText != "" {
			b.WriteString("\n")
			b.WriteString(sectionText)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nCurrent time: %s", time.Now().Format("Monday, January 2, 2006 at 3:04 PM"))
	return b.String()
}

// ProcessMessage runs the full agentic turn: build context, generate a
// draft, reflect and possibly revise, detect goals, apply engagement-gated
// additions, persist the exchange, and kick off background extraction.
func (o *Orchestrator) ProcessMessage(ctx context.Context, tenantID, userID, message string) (*types.AgenticResponse, error) {
	level := o.GetEngagementLevel(ctx, tenantID, userID)
	state := o.engagement.AnalyzeUserState(message)

	interactionCount, err := o.store.IncrementInteractionCount(ctx, tenantID, userID)
	if err != nil {
		log.Printf("orchestrator: failed to bump interaction count: %v", err)
	}

	agCtx := o.BuildContext(ctx, tenantID, userID, message, level)
	agCtx.InteractionCount = interactionCount

	systemPrompt := o.BuildSystemPrompt(level, agCtx)
	draft, err := o.llmClient.Complete(ctx, systemPrompt+"\n\nUser: "+message, 0.7)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	draft = strings.TrimSpace(draft)

	reflection := o.reflector.EvaluateAndRevise(ctx, tenantID, userID, message, draft)
	response := draft
	if reflection.RevisedResponse != "" {
		response = reflection.RevisedResponse
	}

	result := &types.AgenticResponse{
		Response:        response,
		WasRevised:      reflection.RevisedResponse != "",
		ReflectionScore: reflection.Scores.Overall,
		Metadata: map[string]string{
			"model":             o.llmClient.GetModel(),
			"interaction_count": strconv.Itoa(interactionCount),
		},
	}

	if detection := o.goals.DetectGoal(ctx, message); detection != nil {
		result.DetectedGoal = true
		// Creation (including subtask decomposition) happens off the
		// critical path; the turn never waits on it.
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := o.goals.CreateGoal(bgCtx, tenantID, userID, detection); err != nil {
				log.Printf("orchestrator: failed to create detected goal: %v", err)
			}
		}()
	}

	// Additions are idempotent: nothing is appended twice, and nothing is
	// appended that the model already said on its own.
	if o.engagement.ShouldOfferHelp(level, state) {
		offer := o.engagement.GenerateHelpOffer(level, state)
		if offer != "" && !strings.Contains(result.Response, offer) {
			result.Response += "\n\n" + offer
			result.ProactiveHelpOffered = true
		}
	}
	if o.engagement.ShouldCheckIn(level, interactionCount) {
		checkIn := o.engagement.CheckInMessage(level)
		if !strings.Contains(result.Response, checkIn) {
			result.Response += "\n\n" + checkIn
		}
	}

	o.persistExchange(ctx, tenantID, userID, message, result.Response)

	// Knowledge extraction and insight generation are off the critical path.
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		o.knowledge.ProcessConversation(bgCtx, tenantID, message, result.Response)
		o.proactive.GenerateInsights(bgCtx, tenantID, userID, level)
	}()

	return result, nil
}

func (o *Orchestrator) persistExchange(ctx context.Context, tenantID, userID, userMessage, response string) {
	turns := []types.ConversationMessage{
		{TenantID: tenantID, UserID: userID, Role: "user", Content: userMessage},
		{TenantID: tenantID, UserID: userID, Role: "assistant", Content: response},
	}
	for i := range turns {
		if err := o.store.AppendMessage(ctx, &turns[i]); err != nil {
			log.Printf("orchestrator: failed to persist %s turn: %v", turns[i].Role, err)
		}
	}
}

// RecordFeedback routes user feedback into the continuous learner.
func (o *Orchestrator) RecordFeedback(ctx context.Context, entry *types.FeedbackEntry) error {
	return o.learner.RecordFeedback(ctx, entry)
}

// ExecuteComplexTask runs the multi-agent pipeline over an objective,
// seeding the plan with the user's goal context.
func (o *Orchestrator) ExecuteComplexTask(ctx context.Context, tenantID, userID, objective string) (*types.PlanResult, error) {
	if strings.TrimSpace(objective) == "" {
		return nil, fmt.Errorf("%w: objective is empty", storage.ErrInvalidInput)
	}

	contextInfo := o.goals.GoalContext(ctx, tenantID, userID)
	plan := o.planner.CreatePlan(ctx, objective, contextInfo)
	return o.planner.ExecutePlan(ctx, plan), nil
}

// CapabilitiesStatus reports which agentic modules are active and the
// model in use, for the stats API.
func (o *Orchestrator) CapabilitiesStatus() map[string]any {
	return map[string]any{
		"model": o.llmClient.GetModel(),
		"capabilities": []string{
			"engagement_levels",
			"goal_tracking",
			"knowledge_graph",
			"continuous_learning",
			"proactive_insights",
			"self_reflection",
			"multi_agent_planning",
		},
	}
}
