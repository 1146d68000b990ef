package types

import "time"

// ProactiveInsight is a system-generated, time-bounded suggestion surfaced
// to the user without being asked for. Insights are append-only and are
// filtered at read time by ExpiresAt (nil or future).
type ProactiveInsight struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	TenantID        string          `json:"tenant_id"`
	Type            InsightType     `json:"type"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	Priority        InsightPriority `json:"priority"`
	RelatedGoalID   string          `json:"related_goal_id,omitempty"`
	Actionable      bool            `json:"actionable"`
	SuggestedAction string          `json:"suggested_action,omitempty"`
	Delivered       bool            `json:"delivered"`
	Dismissed       bool            `json:"dismissed"`
	CreatedAt       time.Time       `json:"created_at"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
}

// Pending reports whether the insight is still surfaceable at the given time.
func (i *ProactiveInsight) Pending(now time.Time) bool {
	if i.Dismissed {
		return false
	}
	return i.ExpiresAt == nil || i.ExpiresAt.After(now)
}
