package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"headshot/internal/catalog"
	"headshot/internal/domain"
	"headshot/internal/generation"
	"headshot/internal/infra"
	"headshot/internal/storage"
)

// Runner executes a validated generation request.
type Runner interface {
	Run(ctx context.Context, req *domain.GenerationRequest, emit generation.Emitter) error
}

type App struct {
	Config  *infra.Config
	Logger  infra.Logger
	Catalog *catalog.Catalog
	Runner  Runner
	Uploads *storage.FileStore
	Results *storage.ResultStore

	// KeepAlive is the SSE comment interval; zero disables it.
	KeepAlive time.Duration
	now       func() time.Time
}

func NewApp(cfg *infra.Config, logger infra.Logger, cat *catalog.Catalog, runner Runner, uploads *storage.FileStore, results *storage.ResultStore) *App {
	return &App{
		Config:    cfg,
		Logger:    logger,
		Catalog:   cat,
		Runner:    runner,
		Uploads:   uploads,
		Results:   results,
		KeepAlive: 15 * time.Second,
		now:       time.Now,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (a *App) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}
