package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

// StoreMemory inserts a memory, filling ID and CreatedAt if unset.
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, tenant_id, user_id, content, memory_type, importance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
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
		WHERE tenant_id = ? AND user_id = ?
		ORDER BY importance DESC, created_at DESC
		LIMIT ?`,
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

// DeleteMemory removes a memory by ID.
func (s *Store) DeleteMemory(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM memories WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return requireRowAffected(result)
}

// requireRowAffected maps a zero-row update/delete to ErrNotFound.
func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
