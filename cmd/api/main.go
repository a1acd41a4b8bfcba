package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"headshot/internal/catalog"
	"headshot/internal/generation"
	"headshot/internal/http/handlers"
	httpapi "headshot/internal/http/httpapi"
	"headshot/internal/infra"
	"headshot/internal/infra/geoip"
	"headshot/internal/providers/genai"
	"headshot/internal/providers/image"
	"headshot/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := infra.InitTracer(ctx, infra.TracerConfig{
		ServiceName: "headshot",
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TraceSampleRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracer")
	}

	styles, err := catalog.Load(cfg.StyleCatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load style catalog")
	}
	logger.Info().Int("styles", styles.Len()).Msg("style catalog loaded")

	uploads, err := storage.NewFileStore(filepath.Join(cfg.StoragePath, "uploads"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload storage")
	}
	resultFiles, err := storage.NewFileStore(filepath.Join(cfg.StoragePath, "results"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare result storage")
	}
	results := storage.NewResultStore(resultFiles, cfg.StorageBaseURL, cfg.ResultTTL, logger)
	if removed, err := results.Sweep(time.Now()); err != nil {
		logger.Warn().Err(err).Msg("result storage sweep failed")
	} else if removed > 0 {
		logger.Info().Int("removed", removed).Msg("stale results removed")
	}

	geminiClient, err := genai.NewClient(ctx, genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GeminiTimeout,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create gemini client")
	}

	orchestrator := generation.New(styles, image.NewGeminiGenerator(geminiClient), results, generation.Options{
		MinInterval: cfg.GenerationPacing,
		Logger:      &logger,
	})

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		resolver = nil
	}
	defer resolver.Close()
	var countryLookup func(string) (string, error)
	if resolver.Enabled() {
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(cfg, logger, styles, orchestrator, uploads, results)
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
		StaticDir:       resultFiles.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", server.Addr()).
			Str("model", geminiClient.Model()).
			Bool("synthetic", geminiClient.Synthetic()).
			Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server")
		}
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
