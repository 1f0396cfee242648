// Package main implements the RAG API server: document ingestion,
// similarity retrieval, and document management over a Qdrant collection.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bendlabs/bend-rag/engine/extract"
	"github.com/bendlabs/bend-rag/engine/ingest"
	"github.com/bendlabs/bend-rag/engine/rag"
	"github.com/bendlabs/bend-rag/engine/registry"
	"github.com/bendlabs/bend-rag/engine/semantic"
	"github.com/bendlabs/bend-rag/pkg/metrics"
	"github.com/bendlabs/bend-rag/pkg/mid"
	"github.com/bendlabs/bend-rag/pkg/ollama"
	"github.com/bendlabs/bend-rag/pkg/openai"
	"github.com/bendlabs/bend-rag/pkg/resilience"
	"github.com/bendlabs/bend-rag/pkg/tika"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	QdrantURL     string
	Collection    string
	EmbedProvider string // ollama or openai
	EmbedModel    string
	EmbedDim      int
	OllamaURL     string
	OpenAIBaseURL string
	OpenAIKey     string
	TikaURL       string
	APIKey        string
	CORSOrigin    string
	RatePerSec    float64
	RateBurst     int
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		QdrantURL:     envOr("QDRANT_URL", "localhost:6334"),
		Collection:    envOr("QDRANT_COLLECTION", "bend-docs"),
		EmbedProvider: envOr("EMBED_PROVIDER", "ollama"),
		EmbedModel:    envOr("EMBED_MODEL", "all-minilm"),
		EmbedDim:      envInt("EMBED_DIM", 384),
		OllamaURL:     envOr("OLLAMA_URL", "http://localhost:11434"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", openai.DefaultBaseURL),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		TikaURL:       envOr("TIKA_URL", "http://localhost:9998"),
		APIKey:        os.Getenv("BEND_API_KEY"),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
		RatePerSec:    envFloat("RATE_PER_SEC", 50),
		RateBurst:     envInt("RATE_BURST", 100),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// embedder is the union of the batch and single-text embedding contracts.
type embedder interface {
	ingest.Embedder
	rag.Embedder
}

func newEmbedder(cfg Config) embedder {
	if cfg.EmbedProvider == "openai" {
		return openai.NewEmbedClient(openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.EmbedModel,
		})
	}
	return ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Qdrant ---
	store, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = store.EnsureCollection(ensureCtx, cfg.EmbedDim)
	cancel()
	if err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	// --- Build services ---
	emb := newEmbedder(cfg)
	pipeline := ingest.New(emb, store, ingest.DefaultConfig(), logger)
	retrieval := rag.New(emb, store, logger)
	docs := registry.New(store, logger)
	extractor := extract.New(tika.New(cfg.TikaURL))

	met := metrics.New()
	srv := newServer(pipeline, retrieval, docs, extractor, met, logger)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	srv.routes(mux)
	mux.Handle("GET /metrics", met.Handler())

	limiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.RatePerSec, Burst: cfg.RateBurst})
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("bend-rag"),
		mid.CORS(cfg.CORSOrigin),
		mid.APIKey(cfg.APIKey),
		mid.RateLimit(limiter),
	)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "collection", cfg.Collection)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	return httpSrv.Shutdown(shutCtx)
}
