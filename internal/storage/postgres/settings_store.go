package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

// GetEngagementLevel returns the user's stored tier.
func (s *Store) GetEngagementLevel(ctx context.Context, tenantID, userID string) (types.EngagementLevel, error) {
	var level int
	err := s.db.QueryRowContext(ctx,
		"SELECT engagement_level FROM user_settings WHERE tenant_id = $1 AND user_id = $2",
		tenantID, userID,
	).Scan(&level)
	if err == sql.ErrNoRows {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get engagement level: %w", err)
	}
	return types.EngagementLevel(level), nil
}

// SetEngagementLevel stores the user's tier.
func (s *Store) SetEngagementLevel(ctx context.Context, tenantID, userID string, level types.EngagementLevel) error {
	if !types.IsValidEngagementLevel(level) {
		return fmt.Errorf("%w: engagement level %d out of range", storage.ErrInvalidInput, level)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (tenant_id, user_id, engagement_level, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET
			engagement_level = EXCLUDED.engagement_level,
			updated_at = EXCLUDED.updated_at`,
		tenantID, userID, int(level), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to set engagement level: %w", err)
	}
	return nil
}

// GetSetting returns a raw setting value.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = $1", key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// SetSetting upserts a raw setting value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
