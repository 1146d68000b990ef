package types

import "time"

// Memory is a single remembered fact about a user, extracted from
// conversation outside this core. The orchestrator consumes memories as
// read-only context, ordered by importance descending; the core never
// mutates them.
type Memory struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TenantID   string     `json:"tenant_id"`
	Content    string     `json:"content"`
	MemoryType MemoryType `json:"memory_type"`

	// Importance ranks the memory for context selection (0-100).
	Importance int `json:"importance"`

	// Embedding is an optional vector used by the postgres backend for
	// similarity recall. The sqlite backend leaves it nil.
	Embedding []float32 `json:"embedding,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ConversationMessage is one stored turn of a conversation, used for
// interaction counting, engagement check-in timing, and as raw material
// for contextual tips.
type ConversationMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
