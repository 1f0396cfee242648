// Package registry exposes the document-level view derived from the vector
// store's payload metadata. Documents have no identity of their own: one
// exists exactly while chunks tagged with its source exist, so listing and
// deletion are both expressed against the index rather than a second table
// that could drift from it.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/bendlabs/bend-rag/engine/domain"
	"github.com/bendlabs/bend-rag/engine/semantic"
	"go.opentelemetry.io/otel"
)

// ScanPageSize bounds each payload scan call.
const ScanPageSize = 1000

// Store is the slice of the vector store the registry reads through.
type Store interface {
	ScrollPayload(ctx context.Context, field string, limit uint32, offset string) (values []string, next string, err error)
	DeleteBySource(ctx context.Context, source string) (status string, err error)
}

// Registry lists and deletes documents by source tag.
type Registry struct {
	store  Store
	logger *slog.Logger
}

// New creates a Registry over the given store.
func New(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// Sources returns the distinct source tags in the collection, sorted. The
// scan pages through the whole collection; a single page is never assumed
// to be exhaustive.
func (r *Registry) Sources(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("engine/registry").Start(ctx, "registry.sources")
	defer span.End()

	seen := make(map[string]struct{})
	offset := ""
	for {
		values, next, err := r.store.ScrollPayload(ctx, domain.PayloadSource, ScanPageSize, offset)
		if err != nil {
			return nil, &domain.IndexError{Op: "scroll", Cause: err}
		}
		for _, v := range values {
			seen[v] = struct{}{}
		}
		if next == "" {
			break
		}
		offset = next
	}

	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources, nil
}

// DeleteDocument removes every chunk of the given source in one filtered
// delete. Success requires the store to report full completion, not merely
// acceptance. Deleting a source that doesn't exist completes without
// error: the delete is an idempotent no-op.
func (r *Registry) DeleteDocument(ctx context.Context, source string) error {
	if strings.TrimSpace(source) == "" {
		return domain.NewValidationError("source", domain.ErrEmptySource)
	}

	ctx, span := otel.Tracer("engine/registry").Start(ctx, "registry.delete")
	defer span.End()

	status, err := r.store.DeleteBySource(ctx, source)
	if err != nil {
		return &domain.IndexError{Op: "delete", Cause: err}
	}
	if status != semantic.StatusCompleted {
		return &domain.DeleteError{Source: source, Status: status}
	}
	r.logger.Info("registry: document deleted", "source", source)
	return nil
}
