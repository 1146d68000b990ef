package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/pkg/types"
)

// backendProber is the optional LLM backend surface used by health and
// stats endpoints. The mock generator used in tests does not implement it.
type backendProber interface {
	HealthCheck(ctx context.Context) error
	CircuitState() string
}

// APIHandlers implements the Eve REST API over the orchestrator and store.
type APIHandlers struct {
	orchestrator *agent.Orchestrator
	store        storage.Store
	prober       backendProber
}

// NewAPIHandlers creates the API handler set. prober may be nil when the
// text generator does not expose health probing.
func NewAPIHandlers(orchestrator *agent.Orchestrator, store storage.Store, prober backendProber) *APIHandlers {
	return &APIHandlers{orchestrator: orchestrator, store: store, prober: prober}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /api/chat: one full agentic turn.
func (h *APIHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "message is required")
		return
	}

	tenantID, userID := scope(r)
	result, err := h.orchestrator.ProcessMessage(r.Context(), tenantID, userID, req.Message)
	if err != nil {
		writeError(w, http.StatusBadGateway, "LLM_UNAVAILABLE", "failed to generate response")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListGoals handles GET /api/goals.
func (h *APIHandlers) ListGoals(w http.ResponseWriter, r *http.Request) {
	tenantID, userID := scope(r)

	goals, err := h.orchestrator.Goals().ListGoals(r.Context(), tenantID, userID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	stats, err := h.orchestrator.Goals().Stats(r.Context(), tenantID, userID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"goals": goals,
		"stats": stats,
	})
}

type createGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// CreateGoal handles POST /api/goals: explicit goal creation, bypassing
// conversational detection. Subtasks are still generated.
func (h *APIHandlers) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "title is required")
		return
	}

	priority := types.GoalPriority(req.Priority)
	if !types.IsValidGoalPriority(priority) {
		priority = types.GoalPriorityMedium
	}

	tenantID, userID := scope(r)
	goal, err := h.orchestrator.Goals().CreateGoal(r.Context(), tenantID, userID, &agent.GoalDetection{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
	})
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

type updateSubtaskRequest struct {
	Status string `json:"status"`

	// Notes is optional; when absent the subtask's existing notes stay.
	Notes *string `json:"notes"`
}

// UpdateSubtask handles PATCH /api/goals/{id}/subtasks/{subtaskID}.
func (h *APIHandlers) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	var req updateSubtaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	tenantID, _ := scope(r)
	goal, err := h.orchestrator.Goals().UpdateSubtask(
		r.Context(), tenantID, r.PathValue("id"), r.PathValue("subtaskID"),
		types.SubtaskStatus(req.Status), req.Notes,
	)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// SuggestNextActions handles GET /api/goals/{id}/suggestions.
func (h *APIHandlers) SuggestNextActions(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := scope(r)

	goal, err := h.store.GetGoal(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	suggestions := h.orchestrator.Goals().SuggestNextActions(r.Context(), goal)
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

type feedbackRequest struct {
	InteractionID string `json:"interaction_id"`
	Feedback      string `json:"feedback"`
	Comment       string `json:"comment"`
}

// PostFeedback handles POST /api/feedback.
func (h *APIHandlers) PostFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	tenantID, userID := scope(r)
	entry := types.FeedbackEntry{
		InteractionID: req.InteractionID,
		TenantID:      tenantID,
		UserID:        userID,
		Feedback:      types.FeedbackType(req.Feedback),
		Comment:       req.Comment,
	}
	if err := h.orchestrator.RecordFeedback(r.Context(), &entry); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ListMemories handles GET /api/memories.
func (h *APIHandlers) ListMemories(w http.ResponseWriter, r *http.Request) {
	tenantID, userID := scope(r)

	memories, err := h.store.ListMemories(r.Context(), tenantID, userID, 100)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"memories": memories})
}

type createMemoryRequest struct {
	Content    string `json:"content"`
	MemoryType string `json:"memory_type"`
	Importance int    `json:"importance"`
}

// CreateMemory handles POST /api/memories: memories are written by
// external extraction, this endpoint is that write path.
func (h *APIHandlers) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "content is required")
		return
	}

	memType := types.MemoryType(req.MemoryType)
	if !types.IsValidMemoryType(memType) {
		memType = types.MemoryTypeOther
	}

	tenantID, userID := scope(r)
	memory := types.Memory{
		TenantID:   tenantID,
		UserID:     userID,
		Content:    req.Content,
		MemoryType: memType,
		Importance: req.Importance,
	}
	if err := h.store.StoreMemory(r.Context(), &memory); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, memory)
}

// DeleteMemory handles DELETE /api/memories/{id}.
func (h *APIHandlers) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := scope(r)
	if err := h.store.DeleteMemory(r.Context(), tenantID, r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEngagement handles GET /api/settings/engagement.
func (h *APIHandlers) GetEngagement(w http.ResponseWriter, r *http.Request) {
	tenantID, userID := scope(r)

	level := h.orchestrator.GetEngagementLevel(r.Context(), tenantID, userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level":  int(level),
		"levels": h.orchestrator.EngagementLevels(),
	})
}

type setEngagementRequest struct {
	Level int `json:"level"`
}

// PutEngagement handles PUT /api/settings/engagement.
func (h *APIHandlers) PutEngagement(w http.ResponseWriter, r *http.Request) {
	var req setEngagementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	tenantID, userID := scope(r)
	if err := h.orchestrator.SetEngagementLevel(r.Context(), tenantID, userID, types.EngagementLevel(req.Level)); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"level": req.Level})
}

// AgenticStats handles GET /api/agentic/stats.
func (h *APIHandlers) AgenticStats(w http.ResponseWriter, r *http.Request) {
	tenantID, userID := scope(r)
	ctx := r.Context()

	status := h.orchestrator.CapabilitiesStatus()
	if h.prober != nil {
		status["circuit_state"] = h.prober.CircuitState()
	}

	if goalStats, err := h.orchestrator.Goals().Stats(ctx, tenantID, userID); err == nil {
		status["goals"] = goalStats
	}
	if knowledgeStats, err := h.orchestrator.Knowledge().Stats(ctx, tenantID); err == nil {
		status["knowledge"] = knowledgeStats
	}
	if feedbackStats, err := h.orchestrator.Learner().Stats(ctx, tenantID); err == nil {
		status["feedback"] = feedbackStats
	}
	if averages, err := h.orchestrator.Reflector().AverageScores(ctx, tenantID, 30*24*time.Hour); err == nil {
		status["reflection"] = averages
	}

	writeJSON(w, http.StatusOK, status)
}

type agenticTaskRequest struct {
	Objective string `json:"objective"`
}

// ExecuteTask handles POST /api/agentic/task: the multi-agent pipeline.
func (h *APIHandlers) ExecuteTask(w http.ResponseWriter, r *http.Request) {
	var req agenticTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	tenantID, userID := scope(r)
	result, err := h.orchestrator.ExecuteComplexTask(r.Context(), tenantID, userID, req.Objective)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// LearningContext handles GET /api/learning/context.
func (h *APIHandlers) LearningContext(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := scope(r)
	ctx := r.Context()

	learnings, err := h.orchestrator.Learner().Learnings(ctx, tenantID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	stats, err := h.orchestrator.Learner().Stats(ctx, tenantID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"learnings": learnings,
		"stats":     stats,
	})
}

// ReflectionStats handles GET /api/reflection/stats.
func (h *APIHandlers) ReflectionStats(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := scope(r)
	ctx := r.Context()

	averages, err := h.orchestrator.Reflector().AverageScores(ctx, tenantID, 30*24*time.Hour)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	trends, err := h.orchestrator.Reflector().ImprovementTrends(ctx, tenantID, 100)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"averages": averages,
		"trends":   trends,
	})
}

// ListInsights handles GET /api/insights.
func (h *APIHandlers) ListInsights(w http.ResponseWriter, r *http.Request) {
	tenantID, userID := scope(r)

	insights, err := h.orchestrator.Proactive().PendingInsights(r.Context(), tenantID, userID, 20)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": insights})
}

// DismissInsight handles POST /api/insights/{id}/dismiss.
func (h *APIHandlers) DismissInsight(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := scope(r)
	if err := h.orchestrator.Proactive().Dismiss(r.Context(), tenantID, r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health. Storage is always checked; the LLM
// backend only when a prober is wired, and its failure degrades the report
// rather than the status code.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	report := map[string]interface{}{"status": "healthy"}

	if _, err := h.store.GetSetting(r.Context(), "health_probe"); err != nil && !errors.Is(err, storage.ErrNotFound) {
		report["status"] = "degraded"
		report["storage"] = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, report)
		return
	}
	report["storage"] = "ok"

	if h.prober != nil {
		if err := h.prober.HealthCheck(r.Context()); err != nil {
			report["status"] = "degraded"
			report["llm"] = "unreachable"
		} else {
			report["llm"] = "ok"
		}
		report["circuit_state"] = h.prober.CircuitState()
	}
	writeJSON(w, http.StatusOK, report)
}
