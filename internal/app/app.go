package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lukasbauer/blabber/internal/eventlog"
	"github.com/lukasbauer/blabber/internal/httpapi"
	"github.com/lukasbauer/blabber/internal/store"
)

type App struct {
	cfg      Config
	logger   *log.Logger
	db       *pgxpool.Pool
	store    *store.Store
	eventLog *eventlog.Logger
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// Migrations are applied externally by the CI deploy job (docker exec psql).
	// No automatic migration runner at startup.

	return &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		store:    store.New(db),
		eventLog: eventlog.New(db),
	}, nil
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		DeepgramAPIKey:    a.cfg.DeepgramAPIKey,
		ElevenLabsAPIKey:  a.cfg.ElevenLabsAPIKey,
		STTEndpointingMs:  a.cfg.STTEndpointingMs,
		TTSVoiceID:        a.cfg.TTSVoiceID,
		TTSStability:      a.cfg.TTSStability,
		TTSSimilarity:     a.cfg.TTSSimilarity,
		OllamaURL:         a.cfg.OllamaURL,
		OllamaModel:       a.cfg.OllamaModel,
		JWTSecret:         a.cfg.JWTSecret,
		JWTExpiry:         a.cfg.JWTExpiry,
		DiscordWebhookURL: a.cfg.DiscordWebhookURL,
		APNsKeyPath:       a.cfg.APNsKeyPath,
		APNsKeyID:         a.cfg.APNsKeyID,
		APNsTeamID:        a.cfg.APNsTeamID,
		APNsBundleID:      a.cfg.APNsBundleID,
		APNsProduction:    a.cfg.APNsProduction,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.store, a.eventLog)
}

// Store exposes the persistence layer for background jobs wired up in main.
func (a *App) Store() *store.Store {
	return a.store
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
