// Package rag answers similarity queries used to ground language-model
// responses: it embeds the query, searches the vector store, and returns
// passage payloads with their provenance.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bendlabs/bend-rag/engine/domain"
	"github.com/bendlabs/bend-rag/engine/semantic"
	"go.opentelemetry.io/otel"
)

// DefaultTopK bounds result count when the caller doesn't ask for one.
const DefaultTopK = 5

// contextTopK is the fixed hit count for the best-effort context block.
const contextTopK = 3

// Embedder maps a single query string to its vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the slice of the vector store retrieval reads through.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]semantic.SearchResult, error)
}

// Service orchestrates query embedding and similarity search. Safe for
// concurrent use.
type Service struct {
	embed  Embedder
	search Searcher
	logger *slog.Logger
}

// New creates a retrieval Service.
func New(embed Embedder, search Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embed: embed, search: search, logger: logger}
}

// Retrieve returns up to topK passages ranked by descending similarity.
// Vectors and scores are dropped at this boundary: augmentation callers
// only need provenance and text. Dependency failures surface wrapped in
// domain.ErrRetrievalUnavailable so callers can degrade instead of crash.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]domain.Passage, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	ctx, span := otel.Tracer("engine/rag").Start(ctx, "rag.retrieve")
	defer span.End()

	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, &domain.EmbedError{Cause: err})
	}

	hits, err := s.search.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, &domain.IndexError{Op: "search", Cause: err})
	}

	passages := make([]domain.Passage, len(hits))
	for i, h := range hits {
		passages[i] = domain.Passage{Text: h.Text, Source: h.Source}
	}
	return passages, nil
}

// BuildContext returns a pre-formatted context block from the top hits,
// labelled with their sources. This is the best-effort variant: any
// failure, including an invalid query, yields an empty block rather than
// an error, trading correctness signaling for availability of context.
func (s *Service) BuildContext(ctx context.Context, query string) string {
	passages, err := s.Retrieve(ctx, query, contextTopK)
	if err != nil {
		s.logger.Error("rag: context retrieval failed, returning empty block", "err", err)
		return ""
	}
	if len(passages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	for _, p := range passages {
		fmt.Fprintf(&b, "- Source: %s\n  Content: %s\n", p.Source, p.Text)
	}
	return b.String()
}
