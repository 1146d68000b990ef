package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/pkg/types"
)

func TestExtractKnowledgeParses(t *testing.T) {
	mock := newMockLLM().respondTo("named entities",
		`{"entities": [{"name": "Acme Corp", "type": "organization", "confidence": 90}],
		  "relationships": [{"source": "Acme Corp", "target": "Project X", "type": "owns", "confidence": 80}]}`)
	b := agent.NewKnowledgeBuilder(mock, openAgentTestDB(t))

	entities, rels := b.ExtractKnowledge(context.Background(), "user msg", "assistant msg")

	require.Len(t, entities, 1)
	assert.Equal(t, "Acme Corp", entities[0].Name)
	require.Len(t, rels, 1)
	assert.Equal(t, "owns", rels[0].Type)
}

func TestExtractKnowledgeFailSoft(t *testing.T) {
	mock := newMockLLM()
	mock.err = errors.New("backend down")
	b := agent.NewKnowledgeBuilder(mock, openAgentTestDB(t))

	entities, rels := b.ExtractKnowledge(context.Background(), "u", "a")
	assert.Empty(t, entities)
	assert.Empty(t, rels)
}

func TestStoreEntitiesSkipsLowConfidence(t *testing.T) {
	store := openAgentTestDB(t)
	b := agent.NewKnowledgeBuilder(newMockLLM(), store)

	resolved := b.StoreEntities(context.Background(), "t1", []agent.ExtractedEntity{
		{Name: "Keeper", Type: "person", Confidence: 75},
		{Name: "Dropped", Type: "person", Confidence: 49},
		{Name: "", Type: "person", Confidence: 90},
	})

	assert.Len(t, resolved, 1)
	_, ok := resolved["keeper"]
	assert.True(t, ok)

	_, err := store.FindEntityByName(context.Background(), "t1", "Dropped")
	assert.Error(t, err)
}

func TestStoreEntitiesRecordsMentions(t *testing.T) {
	store := openAgentTestDB(t)
	b := agent.NewKnowledgeBuilder(newMockLLM(), store)
	ctx := context.Background()

	b.StoreEntities(ctx, "t1", []agent.ExtractedEntity{{Name: "Max", Type: "person", Confidence: 70}})
	// Same entity, different case: recorded as a mention, not a new row.
	b.StoreEntities(ctx, "t1", []agent.ExtractedEntity{{Name: "max", Type: "person", Confidence: 90}})

	entity, err := store.FindEntityByName(ctx, "t1", "MAX")
	require.NoError(t, err)
	assert.Equal(t, 2, entity.MentionCount)
	assert.Equal(t, 90, entity.Confidence)

	stats, err := store.KnowledgeStats(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntities)
}

func TestStoreEntitiesNormalizesUnknownType(t *testing.T) {
	store := openAgentTestDB(t)
	b := agent.NewKnowledgeBuilder(newMockLLM(), store)

	b.StoreEntities(context.Background(), "t1", []agent.ExtractedEntity{
		{Name: "Mystery", Type: "galaxy", Confidence: 80},
	})

	entity, err := store.FindEntityByName(context.Background(), "t1", "Mystery")
	require.NoError(t, err)
	assert.Equal(t, types.EntityTypeOther, entity.Type)
}

func TestProcessConversationStoresGraph(t *testing.T) {
	store := openAgentTestDB(t)
	mock := newMockLLM().respondTo("named entities",
		`{"entities": [
			{"name": "Max", "type": "person", "confidence": 85},
			{"name": "Acme", "type": "organization", "confidence": 80},
			{"name": "Ghost", "type": "person", "confidence": 30}
		 ],
		 "relationships": [
			{"source": "Max", "target": "Acme", "type": "works_at", "confidence": 80},
			{"source": "Max", "target": "Ghost", "type": "knows", "confidence": 80}
		 ]}`)
	b := agent.NewKnowledgeBuilder(mock, store)
	ctx := context.Background()

	b.ProcessConversation(ctx, "t1", "Max works at Acme", "Noted!")

	stats, err := store.KnowledgeStats(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntities)
	// The relationship to the dropped low-confidence entity is dropped too.
	assert.Equal(t, 1, stats.TotalRelationships)

	// Reprocessing the same exchange does not duplicate the relationship.
	b.ProcessConversation(ctx, "t1", "Max works at Acme", "Noted!")
	stats, err = store.KnowledgeStats(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRelationships)
}

func TestQueryRelevantKnowledgeKeywordMatch(t *testing.T) {
	store := openAgentTestDB(t)
	b := agent.NewKnowledgeBuilder(newMockLLM(), store)
	ctx := context.Background()

	b.StoreEntities(ctx, "t1", []agent.ExtractedEntity{
		{Name: "Kubernetes", Type: "concept", Description: "container orchestration", Confidence: 90},
		{Name: "Gardening", Type: "concept", Confidence: 90},
	})

	entities, err := b.QueryRelevantKnowledge(ctx, "t1", "tell me about Kubernetes", 5)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Kubernetes", entities[0].Name)
}

func TestQueryRelevantKnowledgeFallsBackToTop(t *testing.T) {
	store := openAgentTestDB(t)
	b := agent.NewKnowledgeBuilder(newMockLLM(), store)
	ctx := context.Background()

	b.StoreEntities(ctx, "t1", []agent.ExtractedEntity{
		{Name: "Gardening", Type: "concept", Confidence: 90},
	})

	// No token longer than 3 chars matches anything stored.
	entities, err := b.QueryRelevantKnowledge(ctx, "t1", "zzzzz qqqqq", 5)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Gardening", entities[0].Name)
}

func TestKnowledgeContextEmptyGraph(t *testing.T) {
	b := agent.NewKnowledgeBuilder(newMockLLM(), openAgentTestDB(t))
	assert.Empty(t, b.KnowledgeContext(context.Background(), "t1", "anything"))
}

func TestKnowledgeContextRendersRelationships(t *testing.T) {
	store := openAgentTestDB(t)
	mock := newMockLLM().respondTo("named entities",
		`{"entities": [
			{"name": "Max", "type": "person", "confidence": 85},
			{"name": "Acme", "type": "organization", "confidence": 80}
		 ],
		 "relationships": [{"source": "Max", "target": "Acme", "type": "works_at", "confidence": 80}]}`)
	b := agent.NewKnowledgeBuilder(mock, store)
	ctx := context.Background()

	b.ProcessConversation(ctx, "t1", "Max works at Acme", "Noted!")

	contextText := b.KnowledgeContext(ctx, "t1", "what do you know about Max?")
	assert.Contains(t, contextText, "Max (person)")
	assert.Contains(t, contextText, "works_at")
}
