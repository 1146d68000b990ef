package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-ai/eve/pkg/types"
)

const reflectionColumns = `id, tenant_id, user_id, user_query, response,
	accuracy, helpfulness, completeness, clarity, empathy, overall,
	improvements, was_revised, created_at`

// InsertReflection appends a self-reflection audit record.
func (s *Store) InsertReflection(ctx context.Context, record *types.ReflectionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	var improvementsJSON []byte
	var err error
	if len(record.Improvements) > 0 {
		improvementsJSON, err = json.Marshal(record.Improvements)
		if err != nil {
			return fmt.Errorf("failed to marshal improvements: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reflections (
			id, tenant_id, user_id, user_query, response,
			accuracy, helpfulness, completeness, clarity, empathy, overall,
			improvements, was_revised, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		record.ID, record.TenantID, record.UserID, record.UserQuery, record.Response,
		record.Scores.Accuracy, record.Scores.Helpfulness, record.Scores.Completeness,
		record.Scores.Clarity, record.Scores.Empathy, record.Scores.Overall,
		nullableString(string(improvementsJSON)), record.WasRevised, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reflection: %w", err)
	}
	return nil
}

// ListReflectionsSince returns records created at or after since.
func (s *Store) ListReflectionsSince(ctx context.Context, tenantID string, since time.Time) ([]types.ReflectionRecord, error) {
	return s.queryReflections(ctx, `
		SELECT `+reflectionColumns+`
		FROM reflections
		WHERE tenant_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`,
		tenantID, since,
	)
}

// ListRecentReflections returns up to limit records, newest first.
func (s *Store) ListRecentReflections(ctx context.Context, tenantID string, limit int) ([]types.ReflectionRecord, error) {
	return s.queryReflections(ctx, `
		SELECT `+reflectionColumns+`
		FROM reflections
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		tenantID, limit,
	)
}

func (s *Store) queryReflections(ctx context.Context, query string, args ...interface{}) ([]types.ReflectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reflections: %w", err)
	}
	defer rows.Close()

	var records []types.ReflectionRecord
	for rows.Next() {
		var record types.ReflectionRecord
		var improvementsJSON sql.NullString
		if err := rows.Scan(
			&record.ID, &record.TenantID, &record.UserID, &record.UserQuery, &record.Response,
			&record.Scores.Accuracy, &record.Scores.Helpfulness, &record.Scores.Completeness,
			&record.Scores.Clarity, &record.Scores.Empathy, &record.Scores.Overall,
			&improvementsJSON, &record.WasRevised, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reflection: %w", err)
		}
		if improvementsJSON.Valid && improvementsJSON.String != "" {
			if err := json.Unmarshal([]byte(improvementsJSON.String), &record.Improvements); err != nil {
				return nil, fmt.Errorf("failed to unmarshal improvements: %w", err)
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
