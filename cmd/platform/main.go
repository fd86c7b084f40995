package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/clinsafe/platform/internal/adapters/druglabel"
	"github.com/clinsafe/platform/internal/adapters/druglabel/formulary"
	"github.com/clinsafe/platform/internal/adapters/druglabel/openfda"
	"github.com/clinsafe/platform/internal/adapters/interactions/rxnorm"
	"github.com/clinsafe/platform/internal/adapters/knowledge"
	"github.com/clinsafe/platform/internal/adapters/literature/pubmed"
	"github.com/clinsafe/platform/internal/cascade"
	"github.com/clinsafe/platform/internal/grounding"
	"github.com/clinsafe/platform/internal/phi"
	"github.com/clinsafe/platform/internal/pipeline"
	"github.com/clinsafe/platform/internal/safety"
	"github.com/clinsafe/platform/internal/severity"
	"github.com/clinsafe/platform/internal/shared/auth"
	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/database"
	"github.com/clinsafe/platform/internal/shared/events"
	"github.com/clinsafe/platform/internal/shared/logging"
	"github.com/clinsafe/platform/internal/shared/metrics"
	secmiddleware "github.com/clinsafe/platform/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	DB        *database.DB
	Bus       *events.Bus
	Formulary *formulary.Adapter
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server.Env)
	app := &App{Config: cfg, Logger: logger}

	// Postgres backs the severe-condition catalog (optional; the classifier
	// falls back to the built-in catalog without it)
	var conditionRepo severity.ConditionRepository
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("database not available, using built-in condition catalog")
		conditionRepo = severity.NewStaticConditionRepository(severity.DefaultSevereConditions())
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			logger.Warn().Err(err).Msg("migration failed")
		}
		conditionRepo = severity.NewPostgresConditionRepository(db.Pool)
	}

	// Event bus (optional; the pipeline runs without streaming)
	var publisher events.Publisher
	bus, err := events.NewBus(ctx, cfg.EventStore)
	if err != nil {
		logger.Warn().Err(err).Msg("event store not available, running without event streaming")
	} else {
		app.Bus = bus
		defer bus.Close()
		publisher = bus
		logger.Info().Msg("event bus initialized")
	}

	// Drug labels: openFDA-style API first, hospital formulary as fallback
	var labels druglabel.Adapter = openfda.NewClient(cfg.DrugLabel)
	if cfg.Formulary.Enabled {
		formularyAdapter, err := formulary.New(cfg.Formulary)
		if err != nil {
			logger.Warn().Err(err).Msg("formulary database not available")
		} else {
			app.Formulary = formularyAdapter
			defer formularyAdapter.Close()
			labels = druglabel.NewFallback(labels, formularyAdapter)
			logger.Info().Msg("formulary fallback enabled")
		}
	}

	conditionCache := severity.NewConditionCache(conditionRepo, cfg.Severity.ConditionCacheTTL, logger)
	classifier, err := severity.NewClassifier(conditionCache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load severity keyword tiers")
	}
	engine := safety.NewEngine(logger)

	knowledgeClient := knowledge.NewClient(cfg.Knowledge)
	sources := []cascade.Source{
		cascade.NewDrugLabelSource(labels),
		cascade.NewInteractionSource(rxnorm.NewClient(cfg.Interactions)),
		cascade.NewGuidelineSource(knowledgeClient),
		cascade.NewLiteratureSource(pubmed.NewClient(cfg.Literature), cfg.Literature.MaxResults),
	}
	validator := cascade.NewValidator(sources, cfg.Cascade.SourceTimeout, logger)

	verifier := grounding.NewVerifier(logger)

	tokenStore := phi.NewMemoryTokenStore(cfg.PHI.MaxSessions)
	tokenizer, err := phi.NewTokenizer(cfg.PHI, tokenStore, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load PHI pattern library")
	}

	orchestrator := pipeline.NewOrchestrator(
		tokenizer, classifier, engine, validator, verifier,
		knowledgeClient, publisher, logger,
	)

	rateLimiter := secmiddleware.NewIPRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.InputSanitizer)
	r.Use(metrics.Middleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		if cfg.Auth.Enabled {
			r.Use(auth.Middleware(cfg.Auth))
		}

		r.Mount("/severity", severity.NewHandler(classifier).Routes())
		r.Mount("/safety", safety.NewHandler(engine).Routes())
		r.Mount("/phi", phi.NewHandler(tokenizer, publisher).Routes())
		r.Mount("/pipeline", pipeline.NewHandler(orchestrator).Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info().Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		close(done)
	}()

	logger.Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Bool("database", app.DB != nil).
		Bool("event_bus", app.Bus != nil).
		Bool("formulary", app.Formulary != nil).
		Bool("auth", cfg.Auth.Enabled).
		Msg("clinical safety pipeline started")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}

	<-done
	logger.Info().Msg("server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Clinical Safety Validation Pipeline",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["event_bus"] = "not ready: " + err.Error()
			} else {
				checks["event_bus"] = "ready"
			}
		} else {
			checks["event_bus"] = "not configured"
		}

		if app.Formulary != nil {
			if err := app.Formulary.Ping(r.Context()); err != nil {
				checks["formulary"] = "not ready: " + err.Error()
			} else {
				checks["formulary"] = "ready"
			}
		} else {
			checks["formulary"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
