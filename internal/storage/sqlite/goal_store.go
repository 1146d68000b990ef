package sqlite

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

// CreateGoal inserts a new goal with its embedded subtasks.
func (s *Store) CreateGoal(ctx context.Context, goal *types.Goal) error {
	if goal.Title == "" {
		return fmt.Errorf("%w: goal title is required", storage.ErrInvalidInput)
	}
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := time.Now()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	if goal.UpdatedAt.IsZero() {
		goal.UpdatedAt = now
	}
	if goal.Status == "" {
		goal.Status = types.GoalStatusActive
	}
	if goal.Priority == "" {
		goal.Priority = types.GoalPriorityMedium
	}

	subtasksJSON, err := json.Marshal(goal.Subtasks)
	if err != nil {
		return fmt.Errorf("failed to marshal subtasks: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO goals (
			id, tenant_id, user_id, title, description, status, priority,
			category, subtasks, progress, target_date, created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.TenantID, goal.UserID, goal.Title, nullableString(goal.Description),
		goal.Status, goal.Priority, nullableString(goal.Category), string(subtasksJSON),
		goal.Progress, nullableTime(goal.TargetDate), goal.CreatedAt, goal.UpdatedAt,
		nullableTime(goal.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID.
func (s *Store) GetGoal(ctx context.Context, tenantID, id string) (*types.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, user_id, title, description, status, priority,
		       category, subtasks, progress, target_date, created_at, updated_at, completed_at
		FROM goals
		WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	)

	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// UpdateGoal overwrites an existing goal row, subtasks included.
func (s *Store) UpdateGoal(ctx context.Context, goal *types.Goal) error {
	subtasksJSON, err := json.Marshal(goal.Subtasks)
	if err != nil {
		return fmt.Errorf("failed to marshal subtasks: %w", err)
	}
	goal.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE goals SET
			title = ?, description = ?, status = ?, priority = ?, category = ?,
			subtasks = ?, progress = ?, target_date = ?, updated_at = ?, completed_at = ?
		WHERE tenant_id = ? AND id = ?`,
		goal.Title, nullableString(goal.Description), goal.Status, goal.Priority,
		nullableString(goal.Category), string(subtasksJSON), goal.Progress,
		nullableTime(goal.TargetDate), goal.UpdatedAt, nullableTime(goal.CompletedAt),
		goal.TenantID, goal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return requireRowAffected(result)
}

// ListGoals returns all of a user's goals, newest first.
func (s *Store) ListGoals(ctx context.Context, tenantID, userID string) ([]types.Goal, error) {
	return s.queryGoals(ctx, `
		SELECT id, tenant_id, user_id, title, description, status, priority,
		       category, subtasks, progress, target_date, created_at, updated_at, completed_at
		FROM goals
		WHERE tenant_id = ? AND user_id = ?
		ORDER BY created_at DESC`,
		tenantID, userID,
	)
}

// ListGoalsByStatus returns a user's goals with the given status.
func (s *Store) ListGoalsByStatus(ctx context.Context, tenantID, userID string, status types.GoalStatus) ([]types.Goal, error) {
	return s.queryGoals(ctx, `
		SELECT id, tenant_id, user_id, title, description, status, priority,
		       category, subtasks, progress, target_date, created_at, updated_at, completed_at
		FROM goals
		WHERE tenant_id = ? AND user_id = ? AND status = ?
		ORDER BY created_at DESC`,
		tenantID, userID, status,
	)
}

func (s *Store) queryGoals(ctx context.Context, query string, args ...interface{}) ([]types.Goal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []types.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(row rowScanner) (*types.Goal, error) {
	var goal types.Goal
	var description, category, subtasksJSON sql.NullString
	var targetDate, completedAt sql.NullTime

	err := row.Scan(
		&goal.ID, &goal.TenantID, &goal.UserID, &goal.Title, &description,
		&goal.Status, &goal.Priority, &category, &subtasksJSON, &goal.Progress,
		&targetDate, &goal.CreatedAt, &goal.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	goal.Description = description.String
	goal.Category = category.String
	goal.TargetDate = timePtr(targetDate)
	goal.CompletedAt = timePtr(completedAt)

	if subtasksJSON.Valid && subtasksJSON.String != "" {
		if err := json.Unmarshal([]byte(subtasksJSON.String), &goal.Subtasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subtasks: %w", err)
		}
	}
	return &goal, nil
}
