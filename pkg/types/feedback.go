package types

import "time"

// FeedbackEntry records a thumbs-up/down on a single interaction.
// Entries are append-only; every 10th entry for a tenant triggers a
// learnings refresh.
type FeedbackEntry struct {
	ID            string       `json:"id"`
	InteractionID string       `json:"interaction_id"`
	UserID        string       `json:"user_id"`
	TenantID      string       `json:"tenant_id"`
	Feedback      FeedbackType `json:"feedback"`
	Comment       string       `json:"comment,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// LearningPattern is a distilled observation about what works for a tenant,
// recomputed from accumulated feedback.
type LearningPattern struct {
	Pattern     string `json:"pattern"`
	SuccessRate int    `json:"success_rate"`
	Occurrences int    `json:"occurrences"`
}

// UserPreference is a distilled stylistic preference extracted from
// positive feedback comments.
type UserPreference struct {
	Preference string   `json:"preference"`
	Confidence int      `json:"confidence"`
	Examples   []string `json:"examples,omitempty"`
}

// UserLearnings is the single per-tenant learnings row. Each recompute
// overwrites the whole row rather than merging incrementally.
type UserLearnings struct {
	TenantID    string            `json:"tenant_id"`
	Patterns    []LearningPattern `json:"patterns"`
	Preferences []UserPreference  `json:"preferences"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// FeedbackStats aggregates a tenant's feedback counts.
type FeedbackStats struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`

	// SuccessRate is round(100 * positive / total), 0 when empty.
	SuccessRate int `json:"success_rate"`
}
