// Package llm provides the text-generation client used by every agent
// subsystem, plus the best-effort JSON decoding helpers those subsystems
// rely on. All HTTP calls are wrapped with circuit breaker protection.
package llm

import "context"

// TextGenerator abstracts a single-shot completion call against a language
// model. Temperature is per-call because different subsystems want
// different sampling behavior (grading runs cold, creative rewrites run
// warm).
type TextGenerator interface {
	// Complete sends a prompt and returns the model's text reply.
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)

	// GetModel returns the configured model identifier.
	GetModel() string
}
