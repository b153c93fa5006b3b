package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lukasbauer/blabber/internal/eventlog"
	"github.com/lukasbauer/blabber/internal/llm"
	"github.com/lukasbauer/blabber/internal/notifications"
	"github.com/lukasbauer/blabber/internal/recognition"
	"github.com/lukasbauer/blabber/internal/store"
	"github.com/lukasbauer/blabber/internal/tts"
)

type RouterConfig struct {
	// Voice AI providers
	DeepgramAPIKey   string
	ElevenLabsAPIKey string

	// STT settings
	STTEndpointingMs int // Deepgram endpointing in ms (silence threshold)

	// Voice settings
	TTSVoiceID    string
	TTSStability  float64 // ElevenLabs voice stability (-1 for default)
	TTSSimilarity float64 // ElevenLabs voice similarity boost (-1 for default)

	// Pitch evaluation model
	OllamaURL   string
	OllamaModel string

	// JWT Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// Notifications
	DiscordWebhookURL string

	// APNs Push Notifications
	APNsKeyPath    string // Path to .p8 key file
	APNsKeyID      string // Key ID from Apple Developer Portal
	APNsTeamID     string // Team ID from Apple Developer Portal
	APNsBundleID   string // App bundle ID
	APNsProduction bool   // Use production environment
}

type Router struct {
	cfg      RouterConfig
	logger   *log.Logger
	store    *store.Store
	eventLog *eventlog.Logger
	discord  *notifications.Discord
	apns     *notifications.APNsClient
	llm      llm.Client
	tts      tts.Client
	mux      *http.ServeMux

	// newEngine builds one recognition engine per game session. Tests swap
	// this for a scripted engine; production dials Deepgram.
	newEngine func() recognitionEngine
}

// recognitionEngine is the recognition.Engine surface plus the audio feed the
// WebSocket session forwards browser frames into.
type recognitionEngine interface {
	recognition.Engine
	SendAudio(audio []byte) error
}

func NewRouter(cfg RouterConfig, logger *log.Logger, s *store.Store, eventLog *eventlog.Logger) http.Handler {
	// Initialize APNs client (may be nil if not configured)
	apnsClient, err := notifications.NewAPNsClient(notifications.APNsConfig{
		KeyPath:    cfg.APNsKeyPath,
		KeyID:      cfg.APNsKeyID,
		TeamID:     cfg.APNsTeamID,
		BundleID:   cfg.APNsBundleID,
		Production: cfg.APNsProduction,
	}, logger)
	if err != nil {
		logger.Printf("Warning: APNs client initialization failed: %v", err)
	}

	r := &Router{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		eventLog: eventLog,
		discord:  notifications.NewDiscord(cfg.DiscordWebhookURL, logger),
		apns:     apnsClient,
		llm: llm.NewOllamaClient(llm.OllamaConfig{
			URL:   cfg.OllamaURL,
			Model: cfg.OllamaModel,
		}),
		mux: http.NewServeMux(),
	}

	if cfg.ElevenLabsAPIKey != "" {
		r.tts = tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:     cfg.ElevenLabsAPIKey,
			VoiceID:    cfg.TTSVoiceID,
			Stability:  cfg.TTSStability,
			Similarity: cfg.TTSSimilarity,
		})
	}

	r.newEngine = func() recognitionEngine {
		return recognition.NewDeepgramEngine(recognition.DeepgramConfig{
			APIKey:      cfg.DeepgramAPIKey,
			Language:    "en-US",
			Model:       "nova-3",
			SampleRate:  16000,
			Encoding:    "linear16",
			Channels:    1,
			Punctuate:   true,
			Endpointing: cfg.STTEndpointingMs,
			Logger:      logger,
		})
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Auth endpoints (public)
	r.mux.HandleFunc("POST /auth/guest", r.handleGuestLogin)

	// Pitch evaluation (public: the sales controller calls it server-side,
	// the browser calls it on "try again" re-scores)
	r.mux.HandleFunc("POST /api/evaluate-pitch", r.handleEvaluatePitch)

	// Game WebSocket (token passed as query parameter)
	r.mux.HandleFunc("GET /games/ws", r.handleGameWS)

	// Protected API endpoints
	r.mux.HandleFunc("GET /api/me", r.withAuth(r.handleGetMe))
	r.mux.HandleFunc("DELETE /api/me", r.withAuth(r.handleDeleteMe))
	r.mux.HandleFunc("GET /api/results", r.withAuth(r.handleListResults))
	r.mux.HandleFunc("GET /api/stats", r.withAuth(r.handleGetStats))

	// Push notifications (protected)
	r.mux.HandleFunc("POST /api/push/register", r.withAuth(r.handlePushRegister))
	r.mux.HandleFunc("POST /api/push/unregister", r.withAuth(r.handlePushUnregister))
	r.mux.HandleFunc("POST /api/push/test", r.withAuth(r.handlePushTest))
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
