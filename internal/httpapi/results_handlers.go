package httpapi

import (
	"net/http"
	"strconv"
)

// handleListResults returns the player's recent game results, newest first.
func (r *Router) handleListResults(w http.ResponseWriter, req *http.Request) {
	player := getAuthPlayer(req.Context())
	if player == nil {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	limit := 20
	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, `{"error": "limit must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	results, err := r.store.ListGameResults(req.Context(), player.ID, limit)
	if err != nil {
		r.logger.Printf("results: failed to list for player %s: %v", player.ID, err)
		captureError(req, err, "results: list failed")
		http.Error(w, `{"error": "failed to load results"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleGetStats returns aggregate stats: games played, best score per game,
// and the current practice streak in days.
func (r *Router) handleGetStats(w http.ResponseWriter, req *http.Request) {
	player := getAuthPlayer(req.Context())
	if player == nil {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	stats, err := r.store.GetPlayerStats(req.Context(), player.ID)
	if err != nil {
		r.logger.Printf("results: failed to load stats for player %s: %v", player.ID, err)
		captureError(req, err, "results: stats failed")
		http.Error(w, `{"error": "failed to load stats"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
