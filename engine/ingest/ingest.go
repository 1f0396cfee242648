// Package ingest provides the ingestion pipeline that turns one document
// into indexed passages: validation, chunking, batch embedding, and a
// single upsert into the vector store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bendlabs/bend-rag/engine/domain"
	"github.com/bendlabs/bend-rag/engine/semantic"
	"github.com/bendlabs/bend-rag/pkg/fn"
	"github.com/google/uuid"
)

// Embedder maps a batch of texts to one fixed-dimension vector each, in
// input order. Ingestion makes exactly one call per document.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the slice of the vector store the pipeline writes through.
type Store interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
	DeleteBySource(ctx context.Context, source string) (string, error)
}

// Config controls chunking and re-ingestion behaviour.
type Config struct {
	ChunkSize int
	Overlap   int
	// Replace deletes the source's existing chunks before upserting, so
	// re-ingestion swaps the document instead of appending stale passages.
	// Off by default: append is the historically observed behaviour.
	Replace bool
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize, Overlap: DefaultOverlap}
}

// Pipeline orchestrates extraction output into the vector store. Safe for
// concurrent use; each Ingest call is independent end-to-end.
type Pipeline struct {
	stage  fn.Stage[domain.IngestRequest, int]
	logger *slog.Logger
}

// New wires the pipeline stages: Validate → Chunk → Embed → Store, each
// under its own trace span. A failure in any stage aborts the whole
// ingestion; because storage is a single upsert call, no partial set of
// chunks is ever left indexed from a failed call.
func New(embed Embedder, store Store, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Overlap <= 0 || cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = DefaultOverlap
	}

	validated := fn.TracedStage("ingest.validate", validate)
	chunked := fn.Then(validated, fn.TracedStage("ingest.chunk", chunk(cfg)))
	embedded := fn.Then(chunked, fn.TracedStage("ingest.embed", embedStage(embed)))
	stored := fn.Then(embedded, fn.TracedStage("ingest.upsert", storeStage(store, cfg.Replace)))

	return &Pipeline{stage: stored, logger: logger}
}

// Ingest indexes one document under the given source tag and returns the
// number of chunks written.
func (p *Pipeline) Ingest(ctx context.Context, source, text string) (int, error) {
	n, err := p.stage(ctx, domain.IngestRequest{Source: source, Text: text}).Unwrap()
	if err != nil {
		return 0, err
	}
	p.logger.Info("ingest: document indexed", "source", source, "chunks", n)
	return n, nil
}

// --- stages ---

var validate fn.Stage[domain.IngestRequest, domain.IngestRequest] = func(_ context.Context, req domain.IngestRequest) fn.Result[domain.IngestRequest] {
	if err := domain.ValidateIngest(req.Source, req.Text); err != nil {
		return fn.Err[domain.IngestRequest](err)
	}
	return fn.Ok(req)
}

func chunk(cfg Config) fn.Stage[domain.IngestRequest, chunkedDoc] {
	return func(_ context.Context, req domain.IngestRequest) fn.Result[chunkedDoc] {
		return fn.Ok(chunkedDoc{
			Source: req.Source,
			Chunks: SplitText(req.Text, cfg.ChunkSize, cfg.Overlap),
		})
	}
}

func embedStage(embed Embedder) fn.Stage[chunkedDoc, embeddedDoc] {
	return func(ctx context.Context, doc chunkedDoc) fn.Result[embeddedDoc] {
		vectors, err := embed.EmbedBatch(ctx, doc.Chunks)
		if err != nil {
			return fn.Err[embeddedDoc](&domain.EmbedError{Cause: err})
		}
		if len(vectors) != len(doc.Chunks) {
			return fn.Err[embeddedDoc](&domain.EmbedError{
				Cause: fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(doc.Chunks)),
			})
		}
		return fn.Ok(embeddedDoc{chunkedDoc: doc, Vectors: vectors})
	}
}

func storeStage(store Store, replace bool) fn.Stage[embeddedDoc, int] {
	return func(ctx context.Context, doc embeddedDoc) fn.Result[int] {
		if replace {
			status, err := store.DeleteBySource(ctx, doc.Source)
			if err != nil {
				return fn.Err[int](&domain.IndexError{Op: "delete", Cause: err})
			}
			if status != semantic.StatusCompleted {
				return fn.Err[int](&domain.DeleteError{Source: doc.Source, Status: status})
			}
		}

		records := make([]semantic.VectorRecord, len(doc.Chunks))
		for i, text := range doc.Chunks {
			records[i] = semantic.VectorRecord{
				ID:        uuid.NewString(),
				Embedding: doc.Vectors[i],
				Payload: map[string]any{
					domain.PayloadText:   text,
					domain.PayloadSource: doc.Source,
				},
			}
		}
		if err := store.Upsert(ctx, records); err != nil {
			return fn.Err[int](&domain.IndexError{Op: "upsert", Cause: err})
		}
		return fn.Ok(len(records))
	}
}
