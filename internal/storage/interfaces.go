// Package storage provides composable storage interfaces for the Eve
// agentic core.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. Every persisted entity
// is scoped by tenant; reads for a missing row return ErrNotFound rather
// than empty values so callers can distinguish absence from emptiness.
package storage

import (
	"context"
	"time"

	"github.com/tailored-ai/eve/pkg/types"
)

// MemoryStore persists user memories. Memories are written by the
// extraction path and consumed read-only as conversation context.
type MemoryStore interface {
	// StoreMemory inserts a memory, filling ID and CreatedAt if unset.
	StoreMemory(ctx context.Context, memory *types.Memory) error

	// ListMemories returns up to limit memories for the user ordered by
	// importance descending, then recency.
	ListMemories(ctx context.Context, tenantID, userID string, limit int) ([]types.Memory, error)

	// DeleteMemory removes a memory by ID. Returns ErrNotFound if absent.
	DeleteMemory(ctx context.Context, tenantID, id string) error
}

// GoalStore persists goals together with their embedded subtasks.
type GoalStore interface {
	// CreateGoal inserts a new goal.
	CreateGoal(ctx context.Context, goal *types.Goal) error

	// GetGoal retrieves a goal by ID. Returns ErrNotFound if absent.
	GetGoal(ctx context.Context, tenantID, id string) (*types.Goal, error)

	// UpdateGoal overwrites an existing goal row, subtasks included.
	// Returns ErrNotFound if absent.
	UpdateGoal(ctx context.Context, goal *types.Goal) error

	// ListGoals returns all of a user's goals, newest first.
	ListGoals(ctx context.Context, tenantID, userID string) ([]types.Goal, error)

	// ListGoalsByStatus returns a user's goals with the given status.
	ListGoalsByStatus(ctx context.Context, tenantID, userID string, status types.GoalStatus) ([]types.Goal, error)
}

// KnowledgeStore persists the extracted entity/relationship graph.
type KnowledgeStore interface {
	// FindEntityByName looks an entity up by case-insensitive name within
	// the tenant. Returns ErrNotFound if absent.
	FindEntityByName(ctx context.Context, tenantID, name string) (*types.KnowledgeEntity, error)

	// InsertEntity inserts a new entity.
	InsertEntity(ctx context.Context, entity *types.KnowledgeEntity) error

	// RecordMention increments an entity's mention count, bumps its
	// last-mentioned timestamp, and raises (never lowers) its confidence.
	RecordMention(ctx context.Context, tenantID, id string, confidence int, mentionedAt time.Time) error

	// RelationshipExists reports whether the exact
	// (source, target, relationshipType) tuple is already stored.
	RelationshipExists(ctx context.Context, tenantID, sourceID, targetID, relType string) (bool, error)

	// InsertRelationship inserts a new relationship.
	InsertRelationship(ctx context.Context, rel *types.KnowledgeRelationship) error

	// SearchEntities returns entities whose name or description matches any
	// keyword, ordered by mention count descending.
	SearchEntities(ctx context.Context, tenantID string, keywords []string, limit int) ([]types.KnowledgeEntity, error)

	// TopEntities returns the most-mentioned entities for the tenant.
	TopEntities(ctx context.Context, tenantID string, limit int) ([]types.KnowledgeEntity, error)

	// ListRelationshipsForEntity returns relationships where the entity is
	// source or target, newest first.
	ListRelationshipsForEntity(ctx context.Context, tenantID, entityID string, limit int) ([]types.KnowledgeRelationship, error)

	// GetEntity retrieves an entity by ID. Returns ErrNotFound if absent.
	GetEntity(ctx context.Context, tenantID, id string) (*types.KnowledgeEntity, error)

	// KnowledgeStats returns entity/relationship totals and per-type counts.
	KnowledgeStats(ctx context.Context, tenantID string) (*types.KnowledgeStats, error)
}

// FeedbackStore persists feedback entries and the derived per-tenant
// learnings row.
type FeedbackStore interface {
	// InsertFeedback appends a feedback entry and returns the tenant's
	// total feedback count after the insert. The count drives the every-Nth
	// learnings refresh trigger.
	InsertFeedback(ctx context.Context, entry *types.FeedbackEntry) (int, error)

	// ListRecentFeedback returns up to limit entries, newest first.
	ListRecentFeedback(ctx context.Context, tenantID string, limit int) ([]types.FeedbackEntry, error)

	// FeedbackCounts returns the tenant's raw feedback tallies.
	FeedbackCounts(ctx context.Context, tenantID string) (*FeedbackCounts, error)

	// GetLearnings retrieves the tenant's learnings row.
	// Returns ErrNotFound if never computed.
	GetLearnings(ctx context.Context, tenantID string) (*types.UserLearnings, error)

	// UpsertLearnings overwrites the tenant's learnings row wholesale.
	UpsertLearnings(ctx context.Context, learnings *types.UserLearnings) error
}

// InsightStore persists proactive insights (append-only).
type InsightStore interface {
	// InsertInsight appends an insight.
	InsertInsight(ctx context.Context, insight *types.ProactiveInsight) error

	// ListPendingInsights returns up to limit undismissed insights whose
	// expiry is nil or after now, newest first.
	ListPendingInsights(ctx context.Context, tenantID, userID string, limit int, now time.Time) ([]types.ProactiveInsight, error)

	// MarkInsightDelivered flags an insight as surfaced to the user.
	MarkInsightDelivered(ctx context.Context, tenantID, id string) error

	// DismissInsight hides an insight from future pending reads.
	// Returns ErrNotFound if absent.
	DismissInsight(ctx context.Context, tenantID, id string) error
}

// ReflectionStore persists self-reflection audit records (append-only).
type ReflectionStore interface {
	// InsertReflection appends an audit record.
	InsertReflection(ctx context.Context, record *types.ReflectionRecord) error

	// ListReflectionsSince returns records created at or after since.
	ListReflectionsSince(ctx context.Context, tenantID string, since time.Time) ([]types.ReflectionRecord, error)

	// ListRecentReflections returns up to limit records, newest first.
	ListRecentReflections(ctx context.Context, tenantID string, limit int) ([]types.ReflectionRecord, error)
}

// ConversationStore persists conversation turns and the per-user
// interaction counter.
type ConversationStore interface {
	// AppendMessage stores one conversation turn.
	AppendMessage(ctx context.Context, msg *types.ConversationMessage) error

	// ListRecentUserMessages returns up to limit of the user's own turns,
	// newest first.
	ListRecentUserMessages(ctx context.Context, tenantID, userID string, limit int) ([]types.ConversationMessage, error)

	// LastActivityAt returns the timestamp of the user's most recent turn.
	// Returns ErrNotFound if the user has no stored turns.
	LastActivityAt(ctx context.Context, tenantID, userID string) (time.Time, error)

	// InteractionCount returns the user's persisted interaction counter.
	// A user with no counter yet reads as 0.
	InteractionCount(ctx context.Context, tenantID, userID string) (int, error)

	// IncrementInteractionCount atomically bumps the counter and returns
	// the new value.
	IncrementInteractionCount(ctx context.Context, tenantID, userID string) (int, error)
}

// SettingsStore persists per-user engagement configuration and free-form
// key/value settings used as a config fallback.
type SettingsStore interface {
	// GetEngagementLevel returns the user's stored tier.
	// Returns ErrNotFound if never set.
	GetEngagementLevel(ctx context.Context, tenantID, userID string) (types.EngagementLevel, error)

	// SetEngagementLevel stores the user's tier.
	SetEngagementLevel(ctx context.Context, tenantID, userID string, level types.EngagementLevel) error

	// GetSetting returns a raw setting value. Returns ErrNotFound if unset.
	GetSetting(ctx context.Context, key string) (string, error)

	// SetSetting upserts a raw setting value.
	SetSetting(ctx context.Context, key, value string) error
}

// Store is the composite interface implemented by each backend.
type Store interface {
	MemoryStore
	GoalStore
	KnowledgeStore
	FeedbackStore
	InsightStore
	ReflectionStore
	ConversationStore
	SettingsStore

	// Close releases the underlying database handle.
	Close() error
}
