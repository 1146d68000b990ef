package agent

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/pkg/types"
)

// agentPrompts is the persona preamble for each specialized role.
var agentPrompts = map[types.AgentRole]string{
	types.RoleResearcher: `You are a research specialist. Gather the relevant facts, note what is uncertain, and cite what you are basing each claim on. Do not editorialize.`,
	types.RoleWriter: `You are a writing specialist. Turn the material you are given into clear, well-structured prose matched to the audience. Do not add facts that are not in the material.`,
	types.RoleAnalyst: `You are an analysis specialist. Weigh the evidence, compare the options, and state trade-offs explicitly. End with a concrete recommendation.`,
	types.RolePlanner: `You are a planning specialist. Turn objectives into ordered, actionable steps with rough effort estimates. Flag dependencies between steps.`,
	types.RoleCritic: `You are a quality reviewer. Find the weaknesses, gaps and errors in the work you are given, and propose specific fixes. Be direct but constructive.`,
	types.RoleCoordinator: `You are a generalist coordinator. Handle the task end to end with balanced judgment, pulling in whatever perspective the task needs.`,
}

const createPlanPromptTemplate = `Decompose this objective into a plan for a team of specialized agents.

Objective: %s
%s
Available roles: researcher, writer, analyst, planner, critic, coordinator.

Produce between 2 and 5 tasks. Order matters: later tasks see earlier results.

Respond with ONLY a JSON object:
{"tasks": [{"role": "researcher", "objective": "", "expected_output": ""}], "estimated_time": "5-10 minutes"}`

const executeTaskPromptTemplate = `%s

Task: %s
%s
Expected output: %s

Respond with ONLY a JSON object:
{"output": "your full work product", "confidence": 0, "reasoning": "one sentence", "suggested_follow_up": ""}`

const synthesizePromptTemplate = `Combine these specialist results into one cohesive answer for the user.

Original objective: %s

Specialist results:
%s

Write the final answer directly. Do not mention the specialists or the process.`

// taskContextDigestLimit caps how much of each prior result is fed forward.
const taskContextDigestLimit = 500

// Planner decomposes complex objectives into multi-agent plans and executes
// them sequentially, feeding each task a digest of prior results. Planning
// failures degrade to a single coordinator task so execution always has
// something to run.
type Planner struct {
	llmClient llm.TextGenerator
}

// NewPlanner creates a planner.
func NewPlanner(llmClient llm.TextGenerator) *Planner {
	return &Planner{llmClient: llmClient}
}

type planResponse struct {
	Tasks []struct {
		Role           string `json:"role"`
		Objective      string `json:"objective"`
		ExpectedOutput string `json:"expected_output"`
	} `json:"tasks"`
	EstimatedTime string `json:"estimated_time"`
}

// CreatePlan asks the model to decompose an objective. On failure it falls
// back to a single coordinator task covering the whole objective.
func (p *Planner) CreatePlan(ctx context.Context, objective, contextInfo string) *types.TaskPlan {
	ctxSection := ""
	if contextInfo != "" {
		ctxSection = "Context: " + contextInfo + "\n"
	}

	raw, err := p.llmClient.Complete(ctx, fmt.Sprintf(createPlanPromptTemplate, objective, ctxSection), 0.5)
	if err != nil {
		log.Printf("planner: plan creation failed: %v", err)
		return p.fallbackPlan(objective)
	}

	var resp planResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		log.Printf("planner: failed to parse plan: %v", err)
		return p.fallbackPlan(objective)
	}
	if len(resp.Tasks) == 0 {
		return p.fallbackPlan(objective)
	}
	if len(resp.Tasks) > 5 {
		resp.Tasks = resp.Tasks[:5]
	}

	plan := &types.TaskPlan{
		ID:            uuid.NewString(),
		Objective:     objective,
		EstimatedTime: resp.EstimatedTime,
		CreatedAt:     time.Now(),
	}
	for i, t := range resp.Tasks {
		role := types.AgentRole(t.Role)
		if !types.IsValidAgentRole(role) {
			role = types.RoleCoordinator
		}
		task := types.AgentTask{
			ID:             fmt.Sprintf("task_%d", i+1),
			Role:           role,
			Objective:      t.Objective,
			ExpectedOutput: t.ExpectedOutput,
		}
		plan.Tasks = append(plan.Tasks, task)
		plan.ExecutionOrder = append(plan.ExecutionOrder, task.ID)
	}
	return plan
}

// fallbackPlan is the degraded single-task plan used when decomposition
// fails.
func (p *Planner) fallbackPlan(objective string) *types.TaskPlan {
	task := types.AgentTask{
		ID:             "task_1",
		Role:           types.RoleCoordinator,
		Objective:      objective,
		ExpectedOutput: "A complete response to the objective",
	}
	return &types.TaskPlan{
		ID:             uuid.NewString(),
		Objective:      objective,
		Tasks:          []types.AgentTask{task},
		ExecutionOrder: []string{task.ID},
		EstimatedTime:  "1-2 minutes",
		CreatedAt:      time.Now(),
	}
}

type taskResponse struct {
	Output            string `json:"output"`
	Confidence        int    `json:"confidence"`
	Reasoning         string `json:"reasoning"`
	SuggestedFollowUp string `json:"suggested_follow_up"`
}

// ExecuteTask runs one task under its role persona. An unparseable model
// reply is still usable output; a hard call failure produces a zero
// confidence placeholder so the plan can continue.
func (p *Planner) ExecuteTask(ctx context.Context, task types.AgentTask) types.TaskResult {
	persona, ok := agentPrompts[task.Role]
	if !ok {
		persona = agentPrompts[types.RoleCoordinator]
	}

	ctxSection := ""
	if task.Context != "" {
		ctxSection = "Context from earlier work:\n" + task.Context + "\n"
	}
	expected := task.ExpectedOutput
	if expected == "" {
		expected = "A complete result for the task"
	}

	prompt := fmt.Sprintf(executeTaskPromptTemplate, persona, task.Objective, ctxSection, expected)
	raw, err := p.llmClient.Complete(ctx, prompt, 0.7)
	if err != nil {
		log.Printf("planner: task %s failed: %v", task.ID, err)
		return types.TaskResult{
			TaskID:     task.ID,
			Role:       task.Role,
			Output:     "Task execution failed",
			Confidence: 0,
		}
	}

	var resp taskResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil || resp.Output == "" {
		// Model answered in prose; take it as-is.
		return types.TaskResult{
			TaskID:     task.ID,
			Role:       task.Role,
			Output:     strings.TrimSpace(raw),
			Confidence: 70,
		}
	}

	return types.TaskResult{
		TaskID:            task.ID,
		Role:              task.Role,
		Output:            resp.Output,
		Confidence:        clampScore(resp.Confidence),
		Reasoning:         resp.Reasoning,
		SuggestedFollowUp: resp.SuggestedFollowUp,
	}
}

// ExecutePlan runs a plan's tasks in order, feeding each task a truncated
// digest of every prior result, then synthesizes the final answer. Overall
// confidence is the rounded mean across tasks.
func (p *Planner) ExecutePlan(ctx context.Context, plan *types.TaskPlan) *types.PlanResult {
	byID := make(map[string]types.AgentTask, len(plan.Tasks))
	for _, t := range plan.Tasks {
		byID[t.ID] = t
	}

	result := &types.PlanResult{PlanID: plan.ID}
	var digests []string
	confidenceSum := 0

	for _, taskID := range plan.ExecutionOrder {
		task, ok := byID[taskID]
		if !ok {
			continue
		}
		task.Context = strings.Join(digests, "\n\n")

		taskResult := p.ExecuteTask(ctx, task)
		result.Results = append(result.Results, taskResult)
		confidenceSum += taskResult.Confidence

		digest := taskResult.Output
		if len(digest) > taskContextDigestLimit {
			digest = digest[:taskContextDigestLimit]
		}
		digests = append(digests, fmt.Sprintf("[%s]: %s", task.ID, digest))
	}

	if len(result.Results) > 0 {
		result.OverallConfidence = int(math.Round(float64(confidenceSum) / float64(len(result.Results))))
	}
	result.FinalOutput = p.SynthesizeResults(ctx, plan.Objective, result.Results)
	return result
}

// SynthesizeResults merges task outputs into one answer. On failure the
// raw outputs are concatenated under role headers.
func (p *Planner) SynthesizeResults(ctx context.Context, objective string, results []types.TaskResult) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) == 1 {
		return results[0].Output
	}

	var sections []string
	for _, r := range results {
		sections = append(sections, fmt.Sprintf("[%s]\n%s", r.Role, r.Output))
	}

	prompt := fmt.Sprintf(synthesizePromptTemplate, objective, strings.Join(sections, "\n\n"))
	synthesized, err := p.llmClient.Complete(ctx, prompt, 0.5)
	if err != nil {
		log.Printf("planner: synthesis failed: %v", err)
		var fallback []string
		for _, r := range results {
			fallback = append(fallback, fmt.Sprintf("**%s**: %s", r.Role, r.Output))
		}
		return strings.Join(fallback, "\n\n")
	}
	return strings.TrimSpace(synthesized)
}
