package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

const patternsPromptTemplate = `You are analyzing user feedback on an AI assistant to find what works and what does not.

Feedback comments (polarity: comment):
%s

Overall: %d positive, %d negative.

Identify up to 5 recurring patterns in what the user responds well or badly to. Success rate is your estimate (0-100) of how often following the pattern leads to positive feedback.

Respond with ONLY a JSON object:
{"patterns": [{"pattern": "", "success_rate": 0, "occurrences": 0}]}`

const preferencesPromptTemplate = `You are distilling a user's stylistic preferences from their positive feedback on an AI assistant.

Positive comments:
%s

Identify up to 5 preferences about response style, length, tone or content. Confidence is 0-100.

Respond with ONLY a JSON object:
{"preferences": [{"preference": "", "confidence": 0}]}`

// learningsRefreshInterval is how many feedback entries accumulate between
// learnings recomputes.
const learningsRefreshInterval = 10

// minFeedbackForLearnings is the floor below which no learnings are derived.
const minFeedbackForLearnings = 5

// Learner accumulates feedback and periodically distills it into patterns
// and preferences that personalize future responses. Every Nth feedback
// entry for a tenant triggers a full recompute that overwrites the
// tenant's learnings row.
type Learner struct {
	llmClient llm.TextGenerator
	store     storage.FeedbackStore
}

// NewLearner creates a learner.
func NewLearner(llmClient llm.TextGenerator, store storage.FeedbackStore) *Learner {
	return &Learner{llmClient: llmClient, store: store}
}

// RecordFeedback appends a feedback entry. When the insert lands the
// tenant's total on a refresh boundary, learnings are recomputed inline.
func (l *Learner) RecordFeedback(ctx context.Context, entry *types.FeedbackEntry) error {
	if !types.IsValidFeedbackType(entry.Feedback) {
		return fmt.Errorf("%w: feedback %q", storage.ErrInvalidInput, entry.Feedback)
	}

	count, err := l.store.InsertFeedback(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	if count%learningsRefreshInterval == 0 {
		if err := l.UpdateLearnings(ctx, entry.TenantID); err != nil {
			log.Printf("learning: learnings refresh failed: %v", err)
		}
	}
	return nil
}

type patternsResponse struct {
	Patterns []types.LearningPattern `json:"patterns"`
}

type preferencesResponse struct {
	Preferences []types.UserPreference `json:"preferences"`
}

// UpdateLearnings recomputes the tenant's learnings row from recent
// feedback and overwrites it wholesale. Tenants with too little feedback
// keep whatever row they had.
func (l *Learner) UpdateLearnings(ctx context.Context, tenantID string) error {
	entries, err := l.store.ListRecentFeedback(ctx, tenantID, 100)
	if err != nil {
		return fmt.Errorf("failed to load feedback: %w", err)
	}
	if len(entries) < minFeedbackForLearnings {
		return nil
	}

	positive, negative := 0, 0
	var commented []types.FeedbackEntry
	var positiveComments []string
	for _, e := range entries {
		if e.Feedback == types.FeedbackPositive {
			positive++
			if e.Comment != "" {
				positiveComments = append(positiveComments, e.Comment)
			}
		} else {
			negative++
		}
		if e.Comment != "" {
			commented = append(commented, e)
		}
	}

	learnings := types.UserLearnings{
		TenantID:    tenantID,
		Patterns:    l.derivePatterns(ctx, commented, positive, negative),
		Preferences: l.derivePreferences(ctx, positiveComments),
		UpdatedAt:   time.Now(),
	}
	if err := l.store.UpsertLearnings(ctx, &learnings); err != nil {
		return fmt.Errorf("failed to store learnings: %w", err)
	}
	return nil
}

// derivePatterns distills feedback into patterns. With too few comments to
// say anything specific, it falls back to a single coarse ratio pattern
// computed without an LLM call.
func (l *Learner) derivePatterns(ctx context.Context, commented []types.FeedbackEntry, positive, negative int) []types.LearningPattern {
	total := positive + negative

	if len(commented) < 3 {
		rate := 0
		if total > 0 {
			rate = int(math.Round(100 * float64(positive) / float64(total)))
		}
		pattern := "Responses are generally well received"
		if rate < 50 {
			pattern = "Responses often miss the mark"
		}
		return []types.LearningPattern{{
			Pattern:     pattern,
			SuccessRate: rate,
			Occurrences: total,
		}}
	}

	if len(commented) > 15 {
		commented = commented[:15]
	}
	var lines []string
	for _, e := range commented {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Feedback, e.Comment))
	}

	prompt := fmt.Sprintf(patternsPromptTemplate, strings.Join(lines, "\n"), positive, negative)
	raw, err := l.llmClient.Complete(ctx, prompt, 0.3)
	if err != nil {
		log.Printf("learning: pattern analysis failed: %v", err)
		return nil
	}

	var resp patternsResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		log.Printf("learning: failed to parse patterns: %v", err)
		return nil
	}
	if len(resp.Patterns) > 5 {
		resp.Patterns = resp.Patterns[:5]
	}
	return resp.Patterns
}

// derivePreferences extracts stylistic preferences from positive comments.
// Fewer than 3 comments is not enough signal.
func (l *Learner) derivePreferences(ctx context.Context, positiveComments []string) []types.UserPreference {
	if len(positiveComments) < 3 {
		return nil
	}

	prompt := fmt.Sprintf(preferencesPromptTemplate, "- "+strings.Join(positiveComments, "\n- "))
	raw, err := l.llmClient.Complete(ctx, prompt, 0.3)
	if err != nil {
		log.Printf("learning: preference analysis failed: %v", err)
		return nil
	}

	var resp preferencesResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		log.Printf("learning: failed to parse preferences: %v", err)
		return nil
	}

	examples := positiveComments
	if len(examples) > 3 {
		examples = examples[:3]
	}
	if len(resp.Preferences) > 5 {
		resp.Preferences = resp.Preferences[:5]
	}
	for i := range resp.Preferences {
		resp.Preferences[i].Examples = examples
	}
	return resp.Preferences
}

// PersonalizationContext renders learned patterns and preferences into a
// prompt section. Only patterns with a success rate above 60 are included.
// Empty string when nothing has been learned yet.
func (l *Learner) PersonalizationContext(ctx context.Context, tenantID string) string {
	learnings, err := l.store.GetLearnings(ctx, tenantID)
	if err != nil {
		return ""
	}

	var b strings.Builder
	written := 0
	for _, p := range learnings.Patterns {
		if p.SuccessRate <= 60 {
			continue
		}
		if written == 0 {
			b.WriteString("What works for this user:\n")
		}
		fmt.Fprintf(&b, "- %s (%d%% success)\n", p.Pattern, p.SuccessRate)
		written++
		if written == 3 {
			break
		}
	}

	prefs := learnings.Preferences
	if len(prefs) > 3 {
		prefs = prefs[:3]
	}
	if len(prefs) > 0 {
		b.WriteString("User preferences:\n")
		for _, p := range prefs {
			fmt.Fprintf(&b, "- %s\n", p.Preference)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Stats returns the tenant's feedback tallies and overall success rate.
func (l *Learner) Stats(ctx context.Context, tenantID string) (*types.FeedbackStats, error) {
	counts, err := l.store.FeedbackCounts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback counts: %w", err)
	}

	stats := &types.FeedbackStats{
		Total:    counts.Total,
		Positive: counts.Positive,
		Negative: counts.Negative,
	}
	if counts.Total > 0 {
		stats.SuccessRate = int(math.Round(100 * float64(counts.Positive) / float64(counts.Total)))
	}
	return stats, nil
}

// Learnings returns the tenant's current learnings row, or nil if never
// computed.
func (l *Learner) Learnings(ctx context.Context, tenantID string) (*types.UserLearnings, error) {
	learnings, err := l.store.GetLearnings(ctx, tenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return learnings, nil
}
