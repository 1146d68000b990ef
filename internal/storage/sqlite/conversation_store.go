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

// AppendMessage stores one conversation turn.
func (s *Store) AppendMessage(ctx context.Context, msg *types.ConversationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (id, tenant_id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.TenantID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListRecentUserMessages returns up to limit of the user's own turns,
// newest first.
func (s *Store) ListRecentUserMessages(ctx context.Context, tenantID, userID string, limit int) ([]types.ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, role, content, created_at
		FROM conversation_messages
		WHERE tenant_id = ? AND user_id = ? AND role = 'user'
		ORDER BY created_at DESC
		LIMIT ?`,
		tenantID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []types.ConversationMessage
	for rows.Next() {
		var msg types.ConversationMessage
		if err := rows.Scan(&msg.ID, &msg.TenantID, &msg.UserID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// LastActivityAt returns the timestamp of the user's most recent turn.
func (s *Store) LastActivityAt(ctx context.Context, tenantID, userID string) (time.Time, error) {
	var last time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at FROM conversation_messages
		WHERE tenant_id = ? AND user_id = ?
		ORDER BY created_at DESC
		LIMIT 1`,
		tenantID, userID,
	).Scan(&last)
	if err == sql.ErrNoRows {
		return time.Time{}, storage.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last activity: %w", err)
	}
	return last, nil
}

// InteractionCount returns the user's persisted interaction counter.
func (s *Store) InteractionCount(ctx context.Context, tenantID, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT count FROM interaction_counters WHERE tenant_id = ? AND user_id = ?",
		tenantID, userID,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get interaction count: %w", err)
	}
	return count, nil
}

// IncrementInteractionCount atomically bumps the counter and returns the
// new value.
func (s *Store) IncrementInteractionCount(ctx context.Context, tenantID, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO interaction_counters (tenant_id, user_id, count)
		VALUES (?, ?, 1)
		ON CONFLICT(tenant_id, user_id) DO UPDATE SET count = count + 1
		RETURNING count`,
		tenantID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment interaction count: %w", err)
	}
	return count, nil
}
