package agent

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

const evaluatePromptTemplate = `You are a strict quality grader for an AI assistant's responses.

User query:
%s

Assistant response:
%s

Grade the response on these dimensions, each 0-100:
- accuracy: is the content correct and free of fabrication?
- helpfulness: does it actually move the user forward?
- completeness: does it address everything the user asked?
- clarity: is it easy to follow?
- empathy: does the tone fit the user's situation?

Set should_revise to true if you would rewrite the response before sending it.

Respond with ONLY a JSON object:
{"accuracy": 0, "helpfulness": 0, "completeness": 0, "clarity": 0, "empathy": 0, "should_revise": false, "improvements": ["specific improvement"], "reasoning": "one sentence"}`

const revisePromptTemplate = `Your previous response to the user needs improvement.

User query:
%s

Your response:
%s

Apply these improvements:
%s

Write the improved response directly. Do not mention that this is a revision.`

// Reflector evaluates draft responses before delivery and revises the
// weak ones. Evaluation failures never block a response: grading falls
// back to a passing score so the pipeline degrades to pass-through.
type Reflector struct {
	llmClient llm.TextGenerator
	store     storage.ReflectionStore

	// Threshold is the overall score below which a revision is attempted.
	Threshold int
}

// NewReflector creates a reflector with the default revision threshold.
func NewReflector(llmClient llm.TextGenerator, store storage.ReflectionStore) *Reflector {
	return &Reflector{
		llmClient: llmClient,
		store:     store,
		Threshold: 70,
	}
}

type evaluationResponse struct {
	Accuracy     int      `json:"accuracy"`
	Helpfulness  int      `json:"helpfulness"`
	Completeness int      `json:"completeness"`
	Clarity      int      `json:"clarity"`
	Empathy      int      `json:"empathy"`
	Overall      int      `json:"overall"`
	ShouldRevise bool     `json:"should_revise"`
	Improvements []string `json:"improvements"`
	Reasoning    string   `json:"reasoning"`
}

// Evaluate grades a draft response. On any LLM or parse failure it returns
// a neutral passing result so the caller ships the draft unchanged.
func (r *Reflector) Evaluate(ctx context.Context, userQuery, response string) types.ReflectionResult {
	prompt := fmt.Sprintf(evaluatePromptTemplate, userQuery, response)

	raw, err := r.llmClient.Complete(ctx, prompt, 0.2)
	if err != nil {
		log.Printf("reflection: evaluation call failed: %v", err)
		return passingResult()
	}

	var eval evaluationResponse
	if err := llm.DecodeJSON(raw, &eval); err != nil {
		log.Printf("reflection: failed to parse evaluation: %v", err)
		return passingResult()
	}

	scores := types.ReflectionScores{
		Accuracy:     clampScore(eval.Accuracy),
		Helpfulness:  clampScore(eval.Helpfulness),
		Completeness: clampScore(eval.Completeness),
		Clarity:      clampScore(eval.Clarity),
		Empathy:      clampScore(eval.Empathy),
	}
	// Overall is always recomputed from the dimensions; any overall the
	// grader returned is discarded.
	scores.ComputeOverall()

	return types.ReflectionResult{
		Scores:       scores,
		Improvements: eval.Improvements,
		// The grader's own revise verdict is honored even when the
		// numbers clear the threshold.
		ShouldRevise: eval.ShouldRevise || scores.Overall < r.Threshold,
		Reasoning:    eval.Reasoning,
	}
}

// Revise rewrites a response applying the evaluator's improvement notes.
// Returns the original response when revision fails.
func (r *Reflector) Revise(ctx context.Context, userQuery, response string, improvements []string) string {
	var notes strings.Builder
	for _, imp := range improvements {
		notes.WriteString("- ")
		notes.WriteString(imp)
		notes.WriteString("\n")
	}

	prompt := fmt.Sprintf(revisePromptTemplate, userQuery, response, notes.String())

	revised, err := r.llmClient.Complete(ctx, prompt, 0.7)
	if err != nil {
		log.Printf("reflection: revision call failed: %v", err)
		return response
	}

	revised = strings.TrimSpace(revised)
	if revised == "" {
		return response
	}
	return revised
}

// EvaluateAndRevise runs the full reflection pass: grade the draft, revise
// it when it scores below threshold, and persist an audit record either way.
func (r *Reflector) EvaluateAndRevise(ctx context.Context, tenantID, userID, userQuery, response string) types.ReflectionResult {
	result := r.Evaluate(ctx, userQuery, response)

	if result.ShouldRevise && len(result.Improvements) > 0 {
		revised := r.Revise(ctx, userQuery, response, result.Improvements)
		if revised != response {
			result.RevisedResponse = revised
		}
	}

	record := types.ReflectionRecord{
		TenantID:   tenantID,
		UserID:     userID,
		UserQuery:  userQuery,
		Response:   response,
		Scores:     result.Scores,
		WasRevised: result.RevisedResponse != "",
	}
	record.Improvements = result.Improvements
	if err := r.store.InsertReflection(ctx, &record); err != nil {
		log.Printf("reflection: failed to persist record: %v", err)
	}

	return result
}

// AverageScores computes per-dimension averages over the trailing window.
func (r *Reflector) AverageScores(ctx context.Context, tenantID string, window time.Duration) (types.ReflectionAverages, error) {
	records, err := r.store.ListReflectionsSince(ctx, tenantID, time.Now().Add(-window))
	if err != nil {
		return types.ReflectionAverages{}, fmt.Errorf("failed to load reflections: %w", err)
	}
	if len(records) == 0 {
		return types.ReflectionAverages{}, nil
	}

	var avg types.ReflectionAverages
	revised := 0
	for _, rec := range records {
		avg.Accuracy += float64(rec.Scores.Accuracy)
		avg.Helpfulness += float64(rec.Scores.Helpfulness)
		avg.Completeness += float64(rec.Scores.Completeness)
		avg.Clarity += float64(rec.Scores.Clarity)
		avg.Empathy += float64(rec.Scores.Empathy)
		avg.Overall += float64(rec.Scores.Overall)
		if rec.WasRevised {
			revised++
		}
	}

	n := float64(len(records))
	avg.Accuracy /= n
	avg.Helpfulness /= n
	avg.Completeness /= n
	avg.Clarity /= n
	avg.Empathy /= n
	avg.Overall /= n
	avg.SampleSize = len(records)
	avg.RevisionRate = float64(revised) / n
	return avg, nil
}

// ImprovementTrends tallies how often each improvement note recurs across
// recent reflections. Notes are normalized to lowercase and truncated so
// near-duplicates bucket together.
func (r *Reflector) ImprovementTrends(ctx context.Context, tenantID string, limit int) ([]types.ImprovementTrend, error) {
	records, err := r.store.ListRecentReflections(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load reflections: %w", err)
	}

	counts := make(map[string]int)
	for _, rec := range records {
		for _, imp := range rec.Improvements {
			key := strings.ToLower(strings.TrimSpace(imp))
			if len(key) > 50 {
				key = key[:50]
			}
			if key == "" {
				continue
			}
			counts[key]++
		}
	}

	trends := make([]types.ImprovementTrend, 0, len(counts))
	for theme, count := range counts {
		trends = append(trends, types.ImprovementTrend{Theme: theme, Count: count})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Count > trends[j].Count })
	return trends, nil
}

// passingResult is the fail-open evaluation used when grading is
// unavailable.
func passingResult() types.ReflectionResult {
	scores := types.ReflectionScores{
		Accuracy:     75,
		Helpfulness:  75,
		Completeness: 75,
		Clarity:      75,
		Empathy:      75,
	}
	scores.ComputeOverall()
	return types.ReflectionResult{
		Scores:       scores,
		ShouldRevise: false,
		Reasoning:    "Evaluation failed, defaulting to pass",
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
