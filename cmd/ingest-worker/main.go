// Package main implements the async ingestion worker. It consumes
// documents from a NATS subject, runs them through the ingestion pipeline,
// and publishes failures to a dead-letter subject. Failures are not
// retried in-band: a document either indexes in full or lands on the DLQ
// with its error.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bendlabs/bend-rag/engine/domain"
	"github.com/bendlabs/bend-rag/engine/ingest"
	"github.com/bendlabs/bend-rag/engine/semantic"
	"github.com/bendlabs/bend-rag/pkg/metrics"
	"github.com/bendlabs/bend-rag/pkg/natsutil"
	"github.com/bendlabs/bend-rag/pkg/ollama"
	"github.com/nats-io/nats.go"
)

const (
	// IngestSubject carries documents to index.
	IngestSubject = "rag.ingest"
	// DLQSubject receives documents that failed to index.
	DLQSubject = "rag.ingest.dlq"
)

// Config holds all environment-based configuration.
type Config struct {
	NATSURL     string
	QdrantURL   string
	Collection  string
	OllamaURL   string
	EmbedModel  string
	EmbedDim    int
	MetricsPort int
}

func loadConfig() Config {
	return Config{
		NATSURL:     envOr("NATS_URL", nats.DefaultURL),
		QdrantURL:   envOr("QDRANT_URL", "localhost:6334"),
		Collection:  envOr("QDRANT_COLLECTION", "bend-docs"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:  envOr("EMBED_MODEL", "all-minilm"),
		EmbedDim:    envInt("EMBED_DIM", 384),
		MetricsPort: envInt("METRICS_PORT", 9091),
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
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

// dlqMessage is published to the DLQ on pipeline failure.
type dlqMessage struct {
	Request domain.IngestRequest `json:"request"`
	Error   string               `json:"error"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()
	mDocs := met.Counter("bendrag_worker_docs_total", "Documents consumed")
	mFailed := met.Counter("bendrag_worker_docs_failed_total", "Documents sent to DLQ")
	mPipelineDur := met.Histogram("bendrag_worker_pipeline_duration_seconds", "Per-document pipeline time", nil)
	go func() {
		if err := met.Serve(cfg.MetricsPort); err != nil {
			logger.Error("metrics server failed", "err", err)
		}
	}()

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

	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
	pipeline := ingest.New(embedder, store, ingest.DefaultConfig(), logger)

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Drain()

	sub, err := natsutil.Subscribe(nc, IngestSubject, func(msgCtx context.Context, req domain.IngestRequest) {
		mDocs.Inc()
		start := time.Now()
		n, err := pipeline.Ingest(msgCtx, req.Source, req.Text)
		mPipelineDur.Since(start)
		if err != nil {
			mFailed.Inc()
			logger.Error("worker: ingest failed", "source", req.Source, "err", err)
			dlq := dlqMessage{Request: req, Error: err.Error()}
			if pubErr := natsutil.Publish(msgCtx, nc, DLQSubject, dlq); pubErr != nil {
				logger.Error("worker: DLQ publish failed", "err", pubErr)
			}
			return
		}
		logger.Info("worker: document indexed", "source", req.Source, "chunks", n)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", IngestSubject, err)
	}
	defer sub.Unsubscribe()

	logger.Info("ingest worker started", "subject", IngestSubject, "collection", cfg.Collection)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}
