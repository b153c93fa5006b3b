package httpapi

import (
	"encoding/json"
	"net/http"
)

// handlePushRegister registers a device push token
func (r *Router) handlePushRegister(w http.ResponseWriter, req *http.Request) {
	player := getAuthPlayer(req.Context())
	if player == nil {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var body struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if body.Token == "" {
		http.Error(w, `{"error": "token is required"}`, http.StatusBadRequest)
		return
	}

	if body.Platform != "ios" && body.Platform != "android" {
		http.Error(w, `{"error": "platform must be 'ios' or 'android'"}`, http.StatusBadRequest)
		return
	}

	if err := r.store.RegisterPushToken(req.Context(), player.ID, body.Token, body.Platform); err != nil {
		r.logger.Printf("push: failed to register token: %v", err)
		http.Error(w, `{"error": "failed to register token"}`, http.StatusInternalServerError)
		return
	}

	r.logger.Printf("push: registered %s token for player %s", body.Platform, player.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handlePushUnregister removes a device push token
func (r *Router) handlePushUnregister(w http.ResponseWriter, req *http.Request) {
	player := getAuthPlayer(req.Context())
	if player == nil {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var body struct {
		Token string `json:"token"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if body.Token == "" {
		http.Error(w, `{"error": "token is required"}`, http.StatusBadRequest)
		return
	}

	if err := r.store.UnregisterPushToken(req.Context(), body.Token); err != nil {
		r.logger.Printf("push: failed to unregister token: %v", err)
		http.Error(w, `{"error": "failed to unregister token"}`, http.StatusInternalServerError)
		return
	}

	r.logger.Printf("push: unregistered token for player %s", player.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handlePushTest sends a test notification to one of the player's own
// devices, for verifying APNs setup from the app's settings screen.
func (r *Router) handlePushTest(w http.ResponseWriter, req *http.Request) {
	player := getAuthPlayer(req.Context())
	if player == nil {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if r.apns == nil {
		http.Error(w, `{"error": "push notifications are not configured"}`, http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if body.Token == "" {
		http.Error(w, `{"error": "token is required"}`, http.StatusBadRequest)
		return
	}

	if body.Message == "" {
		body.Message = "Push notifications are working."
	}

	if err := r.apns.SendTestNotification(body.Token, body.Message); err != nil {
		r.logger.Printf("push: test notification failed: %v", err)
		http.Error(w, `{"error": "failed to send notification"}`, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
