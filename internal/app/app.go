package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lectura/features/runs"
	"lectura/features/search"
	"lectura/features/source"
	"lectura/features/stats"
	"lectura/internal/config"
	"lectura/internal/middleware"
	"lectura/internal/pipeline"
	"lectura/internal/retrieval"
	"lectura/internal/settings"
	"lectura/internal/worker"
)

type App struct {
	Handler       http.Handler
	IndexConsumer *worker.IndexConsumer
	SourceService *source.Service

	port int
}

func New(cfg *config.Config, deps *Dependencies) (*App, error) {
	// Feature: Settings
	settingsRepo := settings.NewPostgresRepo(deps.DB)
	settingsService := settings.NewService(settingsRepo)
	settingsHandler := settings.NewHandler(settingsService)

	// Pipeline
	indexer := pipeline.NewIndexer(deps.Objects, deps.Embedder, deps.Chunks, deps.Schema, settingsService, pipeline.Options{
		MaxChunkLength:    cfg.MaxChunkLength,
		MaxSegmentSeconds: cfg.MaxSegmentSeconds,
		EmbedBatchSize:    cfg.EmbedBatchSize,
		Lenient:           cfg.ParserLenient,
	})

	// Feature: Runs
	runsRepo := runs.NewPostgresRepo(deps.DB)
	runsService := runs.NewService(runsRepo)
	runsHandler := runs.NewHandler(runsService)

	// Feature: Source
	sourceService := source.NewService(deps.Chunks, indexer, deps.Objects, deps.NSQProducer)
	sourceHandler := source.NewHandler(sourceService)

	// Feature: Stats
	statsHandler := stats.NewHandler(deps.Chunks, runsService)

	// Feature: Search
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(deps.Embedder, deps.Chunks, settingsService, queryLogger)
	searchHandler := search.NewHandler(retrievalService)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /sources", middleware.CorrelationID(enableCORS(sourceHandler.List)))
	mux.Handle("GET /sources/{id}", middleware.CorrelationID(enableCORS(sourceHandler.Get)))
	mux.Handle("DELETE /sources/{id}", middleware.CorrelationID(enableCORS(sourceHandler.Delete)))
	mux.Handle("POST /sources/{id}/reindex", middleware.CorrelationID(enableCORS(sourceHandler.Reindex)))
	mux.Handle("POST /index", middleware.CorrelationID(enableCORS(sourceHandler.Index)))

	mux.Handle("POST /search", middleware.CorrelationID(enableCORS(searchHandler.Search)))

	mux.Handle("GET /settings", middleware.CorrelationID(enableCORS(settingsHandler.GetSettings)))
	mux.Handle("PUT /settings", middleware.CorrelationID(enableCORS(settingsHandler.UpdateSettings)))

	mux.Handle("GET /runs", middleware.CorrelationID(enableCORS(runsHandler.List)))
	mux.Handle("GET /runs/{id}", middleware.CorrelationID(enableCORS(runsHandler.Get)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	indexConsumer := worker.NewIndexConsumer(indexer, runsService, deps.Objects)

	return &App{
		Handler:       mux,
		IndexConsumer: indexConsumer,
		SourceService: sourceService,
		port:          cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
