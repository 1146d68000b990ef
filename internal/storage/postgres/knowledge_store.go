package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

const entityColumns = `id, tenant_id, name, type, description, attributes,
	confidence, first_mentioned, last_mentioned, mention_count`

// FindEntityByName looks an entity up by case-insensitive name.
func (s *Store) FindEntityByName(ctx context.Context, tenantID, name string) (*types.KnowledgeEntity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM knowledge_entities
		WHERE tenant_id = $1 AND LOWER(name) = LOWER($2)`,
		tenantID, name,
	)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entity: %w", err)
	}
	return entity, nil
}

// GetEntity retrieves an entity by ID.
func (s *Store) GetEntity(ctx context.Context, tenantID, id string) (*types.KnowledgeEntity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM knowledge_entities
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return entity, nil
}

// InsertEntity inserts a new entity, filling ID and timestamps if unset.
func (s *Store) InsertEntity(ctx context.Context, entity *types.KnowledgeEntity) error {
	if entity.Name == "" {
		return fmt.Errorf("%w: entity name is required", storage.ErrInvalidInput)
	}
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	now := time.Now()
	if entity.FirstMentioned.IsZero() {
		entity.FirstMentioned = now
	}
	if entity.LastMentioned.IsZero() {
		entity.LastMentioned = now
	}
	if entity.MentionCount == 0 {
		entity.MentionCount = 1
	}
	if entity.Type == "" {
		entity.Type = types.EntityTypeOther
	}

	var attributesJSON []byte
	var err error
	if len(entity.Attributes) > 0 {
		attributesJSON, err = json.Marshal(entity.Attributes)
		if err != nil {
			return fmt.Errorf("failed to marshal attributes: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO knowledge_entities (
			id, tenant_id, name, type, description, attributes,
			confidence, first_mentioned, last_mentioned, mention_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entity.ID, entity.TenantID, entity.Name, entity.Type,
		nullableString(entity.Description), nullableString(string(attributesJSON)),
		entity.Confidence, entity.FirstMentioned, entity.LastMentioned, entity.MentionCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}
	return nil
}

// RecordMention increments mention_count, bumps last_mentioned, and raises
// confidence to the new value only if it is higher than the stored one.
func (s *Store) RecordMention(ctx context.Context, tenantID, id string, confidence int, mentionedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE knowledge_entities SET
			mention_count = mention_count + 1,
			last_mentioned = $1,
			confidence = GREATEST(confidence, $2)
		WHERE tenant_id = $3 AND id = $4`,
		mentionedAt, confidence, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to record mention: %w", err)
	}
	return requireRowAffected(result)
}

// RelationshipExists reports whether the exact tuple is already stored.
func (s *Store) RelationshipExists(ctx context.Context, tenantID, sourceID, targetID, relType string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM knowledge_relationships
		WHERE tenant_id = $1 AND source_entity_id = $2 AND target_entity_id = $3 AND relationship_type = $4`,
		tenantID, sourceID, targetID, relType,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check relationship: %w", err)
	}
	return count > 0, nil
}

// InsertRelationship inserts a new relationship, filling ID and CreatedAt
// if unset.
func (s *Store) InsertRelationship(ctx context.Context, rel *types.KnowledgeRelationship) error {
	if rel.SourceEntityID == "" || rel.TargetEntityID == "" || rel.RelationshipType == "" {
		return fmt.Errorf("%w: relationship endpoints and type are required", storage.ErrInvalidInput)
	}
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_relationships (
			id, tenant_id, source_entity_id, target_entity_id,
			relationship_type, description, confidence, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rel.ID, rel.TenantID, rel.SourceEntityID, rel.TargetEntityID,
		rel.RelationshipType, nullableString(rel.Description), rel.Confidence, rel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert relationship: %w", err)
	}
	return nil
}

// SearchEntities returns entities whose name or description matches any
// keyword, ordered by mention count descending.
func (s *Store) SearchEntities(ctx context.Context, tenantID string, keywords []string, limit int) ([]types.KnowledgeEntity, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	var conditions []string
	args := []interface{}{tenantID}
	placeholder := 2
	for _, kw := range keywords {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", placeholder, placeholder+1))
		pattern := "%" + kw + "%"
		args = append(args, pattern, pattern)
		placeholder += 2
	}
	args = append(args, limit)

	query := `
		SELECT ` + entityColumns + `
		FROM knowledge_entities
		WHERE tenant_id = $1 AND (` + strings.Join(conditions, " OR ") + `)
		ORDER BY mention_count DESC
		LIMIT $` + strconv.Itoa(placeholder)

	return s.queryEntities(ctx, query, args...)
}

// TopEntities returns the most-mentioned entities for the tenant.
func (s *Store) TopEntities(ctx context.Context, tenantID string, limit int) ([]types.KnowledgeEntity, error) {
	return s.queryEntities(ctx, `
		SELECT `+entityColumns+`
		FROM knowledge_entities
		WHERE tenant_id = $1
		ORDER BY mention_count DESC
		LIMIT $2`,
		tenantID, limit,
	)
}

// ListRelationshipsForEntity returns relationships touching the entity,
// newest first.
func (s *Store) ListRelationshipsForEntity(ctx context.Context, tenantID, entityID string, limit int) ([]types.KnowledgeRelationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, source_entity_id, target_entity_id,
		       relationship_type, description, confidence, created_at
		FROM knowledge_relationships
		WHERE tenant_id = $1 AND (source_entity_id = $2 OR target_entity_id = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		tenantID, entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var rels []types.KnowledgeRelationship
	for rows.Next() {
		var rel types.KnowledgeRelationship
		var description sql.NullString
		if err := rows.Scan(
			&rel.ID, &rel.TenantID, &rel.SourceEntityID, &rel.TargetEntityID,
			&rel.RelationshipType, &description, &rel.Confidence, &rel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rel.Description = description.String
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// KnowledgeStats returns entity/relationship totals and per-type counts.
func (s *Store) KnowledgeStats(ctx context.Context, tenantID string) (*types.KnowledgeStats, error) {
	stats := &types.KnowledgeStats{EntityTypes: make(map[string]int)}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM knowledge_entities WHERE tenant_id = $1", tenantID,
	).Scan(&stats.TotalEntities)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM knowledge_relationships WHERE tenant_id = $1", tenantID,
	).Scan(&stats.TotalRelationships)
	if err != nil {
		return nil, fmt.Errorf("failed to count relationships: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM knowledge_entities
		WHERE tenant_id = $1 GROUP BY type`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count entity types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityType string
		var count int
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan entity type count: %w", err)
		}
		stats.EntityTypes[entityType] = count
	}
	return stats, rows.Err()
}

func (s *Store) queryEntities(ctx context.Context, query string, args ...interface{}) ([]types.KnowledgeEntity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []types.KnowledgeEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *entity)
	}
	return entities, rows.Err()
}

func scanEntity(row rowScanner) (*types.KnowledgeEntity, error) {
	var entity types.KnowledgeEntity
	var description, attributesJSON sql.NullString

	err := row.Scan(
		&entity.ID, &entity.TenantID, &entity.Name, &entity.Type, &description,
		&attributesJSON, &entity.Confidence, &entity.FirstMentioned,
		&entity.LastMentioned, &entity.MentionCount,
	)
	if err != nil {
		return nil, err
	}

	entity.Description = description.String
	if attributesJSON.Valid && attributesJSON.String != "" {
		if err := json.Unmarshal([]byte(attributesJSON.String), &entity.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
		}
	}
	return &entity, nil
}
