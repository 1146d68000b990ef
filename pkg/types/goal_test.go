package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/pkg/types"
)

func TestRecalcProgress(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		statuses     []types.SubtaskStatus
		wantProgress int
		wantStatus   types.GoalStatus
	}{
		{
			name:         "no subtasks",
			statuses:     nil,
			wantProgress: 0,
			wantStatus:   types.GoalStatusActive,
		},
		{
			name:         "none completed",
			statuses:     []types.SubtaskStatus{types.SubtaskStatusPending, types.SubtaskStatusInProgress},
			wantProgress: 0,
			wantStatus:   types.GoalStatusActive,
		},
		{
			name: "one of three completed rounds to 33",
			statuses: []types.SubtaskStatus{
				types.SubtaskStatusCompleted, types.SubtaskStatusPending, types.SubtaskStatusPending,
			},
			wantProgress: 33,
			wantStatus:   types.GoalStatusActive,
		},
		{
			name: "two of three completed rounds to 67",
			statuses: []types.SubtaskStatus{
				types.SubtaskStatusCompleted, types.SubtaskStatusCompleted, types.SubtaskStatusPending,
			},
			wantProgress: 67,
			wantStatus:   types.GoalStatusActive,
		},
		{
			name: "all completed auto-completes the goal",
			statuses: []types.SubtaskStatus{
				types.SubtaskStatusCompleted, types.SubtaskStatusCompleted,
			},
			wantProgress: 100,
			wantStatus:   types.GoalStatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := types.Goal{Status: types.GoalStatusActive}
			for i, s := range tt.statuses {
				goal.Subtasks = append(goal.Subtasks, types.Subtask{
					ID:     string(rune('a' + i)),
					Status: s,
				})
			}

			goal.RecalcProgress(now)

			assert.Equal(t, tt.wantProgress, goal.Progress)
			assert.Equal(t, tt.wantStatus, goal.Status)
			if tt.wantStatus == types.GoalStatusCompleted {
				require.NotNil(t, goal.CompletedAt)
				assert.Equal(t, now, *goal.CompletedAt)
			} else {
				assert.Nil(t, goal.CompletedAt)
			}
		})
	}
}

func TestRecalcProgressDoesNotReopenCompletedGoal(t *testing.T) {
	done := time.Now().Add(-time.Hour)
	goal := types.Goal{
		Status:      types.GoalStatusCompleted,
		CompletedAt: &done,
		Subtasks: []types.Subtask{
			{ID: "a", Status: types.SubtaskStatusCompleted},
			{ID: "b", Status: types.SubtaskStatusPending},
		},
	}

	goal.RecalcProgress(time.Now())

	// Progress reflects the subtasks, but the completed status is not
	// automatically reverted.
	assert.Equal(t, 50, goal.Progress)
	assert.Equal(t, types.GoalStatusCompleted, goal.Status)
	assert.Equal(t, done, *goal.CompletedAt)
}
