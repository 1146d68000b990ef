package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-ai/eve/pkg/types"
)

// InsertInsight appends a proactive insight.
func (s *Store) InsertInsight(ctx context.Context, insight *types.ProactiveInsight) error {
	if insight.ID == "" {
		insight.ID = uuid.NewString()
	}
	if insight.CreatedAt.IsZero() {
		insight.CreatedAt = time.Now()
	}
	if insight.Priority == "" {
		insight.Priority = types.InsightPriorityMedium
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proactive_insights (
			id, tenant_id, user_id, type, title, content, priority,
			related_goal_id, actionable, suggested_action, delivered, dismissed,
			created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		insight.ID, insight.TenantID, insight.UserID, insight.Type, insight.Title,
		insight.Content, insight.Priority, nullableString(insight.RelatedGoalID),
		insight.Actionable, nullableString(insight.SuggestedAction),
		insight.Delivered, insight.Dismissed, insight.CreatedAt,
		nullableTime(insight.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}
	return nil
}

// ListPendingInsights returns up to limit undismissed, unexpired insights,
// newest first.
func (s *Store) ListPendingInsights(ctx context.Context, tenantID, userID string, limit int, now time.Time) ([]types.ProactiveInsight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, type, title, content, priority,
		       related_goal_id, actionable, suggested_action, delivered, dismissed,
		       created_at, expires_at
		FROM proactive_insights
		WHERE tenant_id = $1 AND user_id = $2 AND dismissed = FALSE
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at DESC
		LIMIT $4`,
		tenantID, userID, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	var insights []types.ProactiveInsight
	for rows.Next() {
		var insight types.ProactiveInsight
		var relatedGoalID, suggestedAction sql.NullString
		var expiresAt sql.NullTime
		if err := rows.Scan(
			&insight.ID, &insight.TenantID, &insight.UserID, &insight.Type,
			&insight.Title, &insight.Content, &insight.Priority, &relatedGoalID,
			&insight.Actionable, &suggestedAction, &insight.Delivered,
			&insight.Dismissed, &insight.CreatedAt, &expiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insight.RelatedGoalID = relatedGoalID.String
		insight.SuggestedAction = suggestedAction.String
		insight.ExpiresAt = timePtr(expiresAt)
		insights = append(insights, insight)
	}
	return insights, rows.Err()
}

// MarkInsightDelivered flags an insight as surfaced to the user.
func (s *Store) MarkInsightDelivered(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE proactive_insights SET delivered = TRUE WHERE tenant_id = $1 AND id = $2",
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark insight delivered: %w", err)
	}
	return requireRowAffected(result)
}

// DismissInsight hides an insight from future pending reads.
func (s *Store) DismissInsight(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE proactive_insights SET dismissed = TRUE WHERE tenant_id = $1 AND id = $2",
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to dismiss insight: %w", err)
	}
	return requireRowAffected(result)
}
