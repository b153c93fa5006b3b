package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lukasbauer/blabber/internal/store"
)

// Context key for player data
type contextKey string

const playerContextKey contextKey = "player"

// maxNicknameLen keeps nicknames displayable on the result screen.
const maxNicknameLen = 40

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	jwt.RegisteredClaims
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Guest    bool   `json:"guest"`
}

// AuthPlayer represents the authenticated player in request context
type AuthPlayer struct {
	ID       string
	Nickname string
	Guest    bool
}

// withAuth is middleware that requires valid JWT authentication
func (r *Router) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		// Get token from Authorization header
		authHeader := req.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, `{"error": "missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, `{"error": "invalid authorization format"}`, http.StatusUnauthorized)
			return
		}

		player, err := r.playerFromToken(parts[1])
		if err != nil {
			http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(req.Context(), playerContextKey, player)
		next.ServeHTTP(w, req.WithContext(ctx))
	}
}

// playerFromToken validates a JWT and returns the player it names. The game
// WebSocket uses it too, where the token arrives as a query parameter.
func (r *Router) playerFromToken(tokenString string) (*AuthPlayer, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(r.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &AuthPlayer{
		ID:       claims.PlayerID,
		Nickname: claims.Nickname,
		Guest:    claims.Guest,
	}, nil
}

// getAuthPlayer extracts the authenticated player from context
func getAuthPlayer(ctx context.Context) *AuthPlayer {
	player, _ := ctx.Value(playerContextKey).(*AuthPlayer)
	return player
}

// generateJWT creates a new JWT token for a player
func (r *Router) generateJWT(player *store.Player) (string, time.Time, error) {
	expiresAt := time.Now().Add(r.cfg.JWTExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   player.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		PlayerID: player.ID,
		Nickname: player.Nickname,
		Guest:    player.Guest,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(r.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// handleGuestLogin creates a guest player and issues a JWT. No password, no
// verification: the games are playable the moment the page loads.
func (r *Router) handleGuestLogin(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Nickname string `json:"nickname"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	nickname := strings.TrimSpace(body.Nickname)
	if nickname == "" {
		nickname = "Player-" + uuid.NewString()[:8]
	}
	if len(nickname) > maxNicknameLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("nickname must be at most %d characters", maxNicknameLen),
		})
		return
	}

	player, err := r.store.CreatePlayer(req.Context(), nickname, true)
	if err != nil {
		r.logger.Printf("auth: failed to create guest player: %v", err)
		captureError(req, err, "auth: guest player creation failed")
		http.Error(w, `{"error": "failed to create player"}`, http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := r.generateJWT(player)
	if err != nil {
		r.logger.Printf("auth: failed to generate JWT: %v", err)
		http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
		return
	}

	r.discord.NotifyNewPlayer(req.Context(), player.Nickname, player.Guest)
	r.logger.Printf("auth: guest player %s created (%s)", player.Nickname, player.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"player":     player,
	})
}

// handleGetMe returns the current player's data
func (r *Router) handleGetMe(w http.ResponseWriter, req *http.Request) {
	authPlayer := getAuthPlayer(req.Context())
	if authPlayer == nil {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	player, err := r.store.GetPlayerByID(req.Context(), authPlayer.ID)
	if err != nil {
		http.Error(w, `{"error": "player not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, player)
}

// handleDeleteMe removes the player and everything attached to them. Guests
// have no recovery path, so this is a hard delete.
func (r *Router) handleDeleteMe(w http.ResponseWriter, req *http.Request) {
	player := getAuthPlayer(req.Context())
	if player == nil {
		http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
		return
	}

	if err := r.store.UnregisterPlayerPushTokens(req.Context(), player.ID); err != nil {
		r.logger.Printf("auth: failed to drop push tokens for %s: %v", player.ID, err)
	}

	if err := r.store.DeletePlayer(req.Context(), player.ID); err != nil {
		r.logger.Printf("auth: failed to delete player %s: %v", player.ID, err)
		captureError(req, err, "auth: player deletion failed")
		http.Error(w, `{"error": "failed to delete player"}`, http.StatusInternalServerError)
		return
	}

	r.logger.Printf("auth: deleted player %s", player.ID)
	w.WriteHeader(http.StatusNoContent)
}
