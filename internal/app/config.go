package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	SentryDSN   string

	// Voice AI providers
	DeepgramAPIKey   string
	ElevenLabsAPIKey string

	// STT settings
	STTEndpointingMs int // Deepgram endpointing in ms (silence threshold)

	// Voice settings
	TTSVoiceID    string // ElevenLabs voice ID
	TTSStability  float64
	TTSSimilarity float64

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

	// Practice reminder job
	ReminderInterval time.Duration
}

func LoadConfigFromEnv() Config {
	// A local .env is a dev convenience; missing is fine in production.
	_ = godotenv.Load()

	jwtExpiry, err := time.ParseDuration(getenv("JWT_EXPIRY", "24h"))
	if err != nil {
		jwtExpiry = 24 * time.Hour
	}

	reminderInterval, err := time.ParseDuration(getenv("REMINDER_INTERVAL", "1h"))
	if err != nil {
		reminderInterval = time.Hour
	}

	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		SentryDSN:   getenv("SENTRY_DSN", ""),

		// Voice AI providers
		DeepgramAPIKey:   getenv("DEEPGRAM_API_KEY", ""),
		ElevenLabsAPIKey: getenv("ELEVENLABS_API_KEY", ""),

		// STT settings. Endpointing below 100ms fires mid-word, above 5s
		// feels broken, so out-of-range values are clamped.
		STTEndpointingMs: getenvIntClamped("STT_ENDPOINTING_MS", 800, 100, 5000),

		// Voice settings
		TTSVoiceID:    getenv("TTS_VOICE_ID", ""), // ElevenLabs voice ID
		TTSStability:  getenvFloatClamped("TTS_STABILITY", 0.5, 0.0, 1.0),
		TTSSimilarity: getenvFloatClamped("TTS_SIMILARITY", 0.75, 0.0, 1.0),

		// Pitch evaluation model
		OllamaURL:   getenv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getenv("OLLAMA_MODEL", "mistral"),

		// JWT Authentication
		JWTSecret: os.Getenv("JWT_SECRET"), // Required - no fallback for security
		JWTExpiry: jwtExpiry,

		// Notifications
		DiscordWebhookURL: getenv("DISCORD_WEBHOOK_URL", ""),

		// APNs Push Notifications
		APNsKeyPath:    getenv("APNS_KEY_PATH", ""),
		APNsKeyID:      getenv("APNS_KEY_ID", ""),
		APNsTeamID:     getenv("APNS_TEAM_ID", ""),
		APNsBundleID:   getenv("APNS_BUNDLE_ID", ""),
		APNsProduction: getenvBool("APNS_PRODUCTION", false),

		// Practice reminder job
		ReminderInterval: reminderInterval,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvIntClamped(k string, def, min, max int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func getenvFloatClamped(k string, def, min, max float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}
