package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ybhrdwj/mittens-bot/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

// ListGoals handles GET /goals?user_id=<id>. It returns the user's current
// goals with period progress as a JSON array; unknown users get an empty
// array rather than a 404.
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id must be a numeric id"})
		return
	}

	goals, err := h.goalService.Goals(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load goals", "error", err, "user_id", userID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
