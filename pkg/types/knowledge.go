package types

import "time"

// KnowledgeEntity is a named thing extracted from conversation. Identity is
// the case-insensitive name within a tenant: re-mentions increment
// MentionCount and bump LastMentioned instead of creating new rows, and the
// first stored description wins. Confidence only ever rises on re-mention.
type KnowledgeEntity struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	Name        string            `json:"name"`
	Type        EntityType        `json:"type"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`

	// Confidence is the extractor's certainty (0-100). Candidates below 50
	// are dropped before storage.
	Confidence int `json:"confidence"`

	FirstMentioned time.Time `json:"first_mentioned"`
	LastMentioned  time.Time `json:"last_mentioned"`
	MentionCount   int       `json:"mention_count"`
}

// KnowledgeRelationship links two stored entities. The tuple
// (SourceEntityID, TargetEntityID, RelationshipType) is unique within a
// tenant; duplicate extractions are suppressed, not merged.
type KnowledgeRelationship struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	SourceEntityID   string    `json:"source_entity_id"`
	TargetEntityID   string    `json:"target_entity_id"`
	RelationshipType string    `json:"relationship_type"`
	Description      string    `json:"description,omitempty"`
	Confidence       int       `json:"confidence"`
	CreatedAt        time.Time `json:"created_at"`
}

// KnowledgeStats summarizes a tenant's knowledge graph.
type KnowledgeStats struct {
	TotalEntities      int            `json:"total_entities"`
	TotalRelationships int            `json:"total_relationships"`
	EntityTypes        map[string]int `json:"entity_types"`
}
