package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

const extractKnowledgePromptTemplate = `Extract the named entities and their relationships from this conversation exchange.

User: %s
Assistant: %s

Entity types: person, organization, project, concept, location, date, product, other.
Only include entities the user actually mentioned or clearly cares about. Confidence is 0-100.

Respond with ONLY a JSON object:
{"entities": [{"name": "", "type": "", "description": "", "confidence": 0}], "relationships": [{"source": "entity name", "target": "entity name", "type": "works_on", "description": "", "confidence": 0}]}`

// minEntityConfidence is the storage cutoff for extracted entities.
const minEntityConfidence = 50

// KnowledgeBuilder grows a per-tenant knowledge graph from conversation.
// Extraction is LLM-backed and fail-soft: a failed extraction simply stores
// nothing for that turn.
type KnowledgeBuilder struct {
	llmClient llm.TextGenerator
	store     storage.KnowledgeStore
}

// NewKnowledgeBuilder creates a knowledge builder.
func NewKnowledgeBuilder(llmClient llm.TextGenerator, store storage.KnowledgeStore) *KnowledgeBuilder {
	return &KnowledgeBuilder{llmClient: llmClient, store: store}
}

// ExtractedEntity is one entity candidate from the extractor.
type ExtractedEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
}

// ExtractedRelationship links two entity candidates by name. Names are
// resolved to stored entity IDs before persistence.
type ExtractedRelationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
}

type extractionResponse struct {
	Entities      []ExtractedEntity       `json:"entities"`
	Relationships []ExtractedRelationship `json:"relationships"`
}

// ExtractKnowledge runs the extraction call over one exchange. Failure
// returns empty results, never an error.
func (b *KnowledgeBuilder) ExtractKnowledge(ctx context.Context, userMessage, assistantResponse string) ([]ExtractedEntity, []ExtractedRelationship) {
	prompt := fmt.Sprintf(extractKnowledgePromptTemplate, userMessage, assistantResponse)
	raw, err := b.llmClient.Complete(ctx, prompt, 0.3)
	if err != nil {
		log.Printf("knowledge: extraction call failed: %v", err)
		return nil, nil
	}

	var resp extractionResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		log.Printf("knowledge: failed to parse extraction: %v", err)
		return nil, nil
	}
	return resp.Entities, resp.Relationships
}

// StoreEntities persists extracted entities, deduplicating on
// case-insensitive name. Known entities get a mention recorded; confidence
// only ever rises. Candidates below the confidence cutoff are dropped.
// Returns a name-to-ID map for relationship resolution.
func (b *KnowledgeBuilder) StoreEntities(ctx context.Context, tenantID string, entities []ExtractedEntity) map[string]string {
	resolved := make(map[string]string)
	now := time.Now()

	for _, candidate := range entities {
		name := strings.TrimSpace(candidate.Name)
		if name == "" || candidate.Confidence < minEntityConfidence {
			continue
		}

		existing, err := b.store.FindEntityByName(ctx, tenantID, name)
		if err == nil {
			if err := b.store.RecordMention(ctx, tenantID, existing.ID, candidate.Confidence, now); err != nil {
				log.Printf("knowledge: failed to record mention for %q: %v", name, err)
				continue
			}
			resolved[strings.ToLower(name)] = existing.ID
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("knowledge: entity lookup failed for %q: %v", name, err)
			continue
		}

		entityType := types.EntityType(candidate.Type)
		if !types.IsValidEntityType(entityType) {
			entityType = types.EntityTypeOther
		}
		entity := types.KnowledgeEntity{
			TenantID:       tenantID,
			Name:           name,
			Type:           entityType,
			Description:    candidate.Description,
			Confidence:     candidate.Confidence,
			FirstMentioned: now,
			LastMentioned:  now,
			MentionCount:   1,
		}
		if err := b.store.InsertEntity(ctx, &entity); err != nil {
			log.Printf("knowledge: failed to insert entity %q: %v", name, err)
			continue
		}
		resolved[strings.ToLower(name)] = entity.ID
	}
	return resolved
}

// storeRelationships persists extracted relationships whose endpoints both
// resolved to stored entities. The (source, target, type) tuple is unique;
// repeats are skipped.
func (b *KnowledgeBuilder) storeRelationships(ctx context.Context, tenantID string, rels []ExtractedRelationship, resolved map[string]string) {
	for _, candidate := range rels {
		sourceID, okSource := resolved[strings.ToLower(strings.TrimSpace(candidate.Source))]
		targetID, okTarget := resolved[strings.ToLower(strings.TrimSpace(candidate.Target))]
		if !okSource || !okTarget || candidate.Type == "" {
			continue
		}

		exists, err := b.store.RelationshipExists(ctx, tenantID, sourceID, targetID, candidate.Type)
		if err != nil {
			log.Printf("knowledge: relationship lookup failed: %v", err)
			continue
		}
		if exists {
			continue
		}

		rel := types.KnowledgeRelationship{
			TenantID:         tenantID,
			SourceEntityID:   sourceID,
			TargetEntityID:   targetID,
			RelationshipType: candidate.Type,
			Description:      candidate.Description,
			Confidence:       candidate.Confidence,
		}
		if err := b.store.InsertRelationship(ctx, &rel); err != nil {
			log.Printf("knowledge: failed to insert relationship: %v", err)
		}
	}
}

// ProcessConversation extracts and stores knowledge from one exchange.
// Relationships whose endpoints did not survive entity storage are dropped.
func (b *KnowledgeBuilder) ProcessConversation(ctx context.Context, tenantID, userMessage, assistantResponse string) {
	entities, rels := b.ExtractKnowledge(ctx, userMessage, assistantResponse)
	if len(entities) == 0 {
		return
	}

	resolved := b.StoreEntities(ctx, tenantID, entities)
	if len(rels) > 0 {
		b.storeRelationships(ctx, tenantID, rels, resolved)
	}
}

// QueryRelevantKnowledge finds entities relevant to a message by keyword
// match, falling back to the most-mentioned entities when the message
// yields no usable keywords or no matches.
func (b *KnowledgeBuilder) QueryRelevantKnowledge(ctx context.Context, tenantID, message string, limit int) ([]types.KnowledgeEntity, error) {
	var keywords []string
	for _, token := range strings.Fields(message) {
		token = strings.Trim(token, ".,!?;:\"'()")
		if len(token) > 3 {
			keywords = append(keywords, token)
		}
	}

	if len(keywords) > 0 {
		entities, err := b.store.SearchEntities(ctx, tenantID, keywords, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search entities: %w", err)
		}
		if len(entities) > 0 {
			return entities, nil
		}
	}
	return b.store.TopEntities(ctx, tenantID, limit)
}

// KnowledgeContext renders up to 5 relevant entities and a couple of
// relationships each into a prompt section. Empty string when the graph has
// nothing relevant.
func (b *KnowledgeBuilder) KnowledgeContext(ctx context.Context, tenantID, message string) string {
	entities, err := b.QueryRelevantKnowledge(ctx, tenantID, message, 5)
	if err != nil {
		log.Printf("knowledge: failed to load context: %v", err)
		return ""
	}
	if len(entities) == 0 {
		return ""
	}

	byID := make(map[string]string, len(entities))
	for _, e := range entities {
		byID[e.ID] = e.Name
	}

	var b2 strings.Builder
	b2.WriteString("Known context:\n")
	for _, e := range entities {
		fmt.Fprintf(&b2, "- %s (%s)", e.Name, e.Type)
		if e.Description != "" {
			fmt.Fprintf(&b2, ": %s", e.Description)
		}
		b2.WriteString("\n")

		rels, err := b.store.ListRelationshipsForEntity(ctx, tenantID, e.ID, 2)
		if err != nil {
			continue
		}
		for _, rel := range rels {
			source := b.entityName(ctx, tenantID, byID, rel.SourceEntityID)
			target := b.entityName(ctx, tenantID, byID, rel.TargetEntityID)
			if source == "" || target == "" {
				continue
			}
			fmt.Fprintf(&b2, "  %s %s %s\n", source, rel.RelationshipType, target)
		}
	}
	return strings.TrimRight(b2.String(), "\n")
}

// entityName resolves an entity ID to its name, caching lookups in seen.
func (b *KnowledgeBuilder) entityName(ctx context.Context, tenantID string, seen map[string]string, id string) string {
	if name, ok := seen[id]; ok {
		return name
	}
	entity, err := b.store.GetEntity(ctx, tenantID, id)
	if err != nil {
		seen[id] = ""
		return ""
	}
	seen[id] = entity.Name
	return entity.Name
}

// Stats returns the tenant's knowledge graph totals.
func (b *KnowledgeBuilder) Stats(ctx context.Context, tenantID string) (*types.KnowledgeStats, error) {
	return b.store.KnowledgeStats(ctx, tenantID)
}
