package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

// InsertFeedback appends a feedback entry and returns the tenant's total
// feedback count after the insert, inside one transaction.
func (s *Store) InsertFeedback(ctx context.Context, entry *types.FeedbackEntry) (int, error) {
	if !types.IsValidFeedbackType(entry.Feedback) {
		return 0, fmt.Errorf("%w: unknown feedback type %q", storage.ErrInvalidInput, entry.Feedback)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO feedback (id, interaction_id, tenant_id, user_id, feedback, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.InteractionID, entry.TenantID, entry.UserID,
		entry.Feedback, nullableString(entry.Comment), entry.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert feedback: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM feedback WHERE tenant_id = $1", entry.TenantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit feedback: %w", err)
	}
	return count, nil
}

// ListRecentFeedback returns up to limit entries, newest first.
func (s *Store) ListRecentFeedback(ctx context.Context, tenantID string, limit int) ([]types.FeedbackEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, interaction_id, tenant_id, user_id, feedback, comment, created_at
		FROM feedback
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var entries []types.FeedbackEntry
	for rows.Next() {
		var entry types.FeedbackEntry
		var comment sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.InteractionID, &entry.TenantID, &entry.UserID,
			&entry.Feedback, &comment, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entry.Comment = comment.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FeedbackCounts returns the tenant's raw feedback tallies.
func (s *Store) FeedbackCounts(ctx context.Context, tenantID string) (*storage.FeedbackCounts, error) {
	counts := &storage.FeedbackCounts{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN feedback = 'positive' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN feedback = 'negative' THEN 1 ELSE 0 END), 0)
		FROM feedback
		WHERE tenant_id = $1`,
		tenantID,
	).Scan(&counts.Total, &counts.Positive, &counts.Negative)
	if err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}
	return counts, nil
}

// GetLearnings retrieves the tenant's learnings row.
func (s *Store) GetLearnings(ctx context.Context, tenantID string) (*types.UserLearnings, error) {
	var patternsJSON, preferencesJSON sql.NullString
	learnings := &types.UserLearnings{TenantID: tenantID}

	err := s.db.QueryRowContext(ctx,
		"SELECT patterns, preferences, updated_at FROM learnings WHERE tenant_id = $1", tenantID,
	).Scan(&patternsJSON, &preferencesJSON, &learnings.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learnings: %w", err)
	}

	if patternsJSON.Valid && patternsJSON.String != "" {
		if err := json.Unmarshal([]byte(patternsJSON.String), &learnings.Patterns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal patterns: %w", err)
		}
	}
	if preferencesJSON.Valid && preferencesJSON.String != "" {
		if err := json.Unmarshal([]byte(preferencesJSON.String), &learnings.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}
	return learnings, nil
}

// UpsertLearnings overwrites the tenant's learnings row wholesale.
func (s *Store) UpsertLearnings(ctx context.Context, learnings *types.UserLearnings) error {
	patternsJSON, err := json.Marshal(learnings.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	preferencesJSON, err := json.Marshal(learnings.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if learnings.UpdatedAt.IsZero() {
		learnings.UpdatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learnings (tenant_id, patterns, preferences, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id) DO UPDATE SET
			patterns = EXCLUDED.patterns,
			preferences = EXCLUDED.preferences,
			updated_at = EXCLUDED.updated_at`,
		learnings.TenantID, string(patternsJSON), string(preferencesJSON), learnings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert learnings: %w", err)
	}
	return nil
}
