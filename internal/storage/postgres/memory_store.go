package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

// StoreMemory inserts a memory, filling ID and CreatedAt if unset. When
// pgvector is available and the memory carries an embedding, the vector is
// persisted for similarity recall.
func (s *Store) StoreMemory(ctx context.Context, memory *types.Memory) error {
	if memory.Content == "" {
		return fmt.Errorf("%w: memory content is required", storage.ErrInvalidInput)
	}
	if memory.ID == "" {
		memory.ID = uuid.NewString()
	}
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now()
	}
	if memory.MemoryType == "" {
		memory.MemoryType = types.MemoryTypeOther
	}

	if s.pgvectorAvailable && len(memory.Embedding) > 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO memories (id, tenant_id, user_id, content, memory_type, importance, created_at, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			memory.ID, memory.TenantID, memory.UserID, memory.Content,
			memory.MemoryType, memory.Importance, memory.CreatedAt,
			pgvector.NewVector(memory.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to store memory: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, tenant_id, user_id, content, memory_type, importance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		memory.ID, memory.TenantID, memory.UserID, memory.Content,
		memory.MemoryType, memory.Importance, memory.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}
	return nil
}

// ListMemories returns up to limit memories ordered by importance
// descending, then recency.
func (s *Store) ListMemories(ctx context.Context, tenantID, userID string, limit int) ([]types.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, content, memory_type, importance, created_at
		FROM memories
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY importance DESC, created_at DESC
		LIMIT $3`,
		tenantID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var memories []types.Memory
	for rows.Next() {
		var m types.Memory
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Content, &m.MemoryType, &m.Importance, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// SearchSimilarMemories returns memories nearest to the query embedding by
// cosine distance. Returns nil when pgvector is unavailable.
func (s *Store) SearchSimilarMemories(ctx context.Context, tenantID, userID string, embedding []float32, limit int) ([]types.Memory, error) {
	if !s.pgvectorAvailable {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, content, memory_type, importance, created_at
		FROM memories
		WHERE tenant_id = $1 AND user_id = $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> $3
		LIMIT $4`,
		tenantID, userID, pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}
	defer rows.Close()

	var memories []types.Memory
	for rows.Next() {
		var m types.Memory
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Content, &m.MemoryType, &m.Importance, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// DeleteMemory removes a memory by ID.
func (s *Store) DeleteMemory(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM memories WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return requireRowAffected(result)
}
