package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bendlabs/bend-rag/engine/domain"
	"github.com/bendlabs/bend-rag/engine/semantic"
)

// --- fakes ---

type fakeEmbedder struct {
	dim   int
	err   error
	calls int
	texts [][]string
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.texts = append(f.texts, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
		out[i][0] = float32(i)
	}
	return out, nil
}

type fakeStore struct {
	upsertErr    error
	deleteErr    error
	deleteStatus string
	upserts      [][]semantic.VectorRecord
	deleted      []string
}

func (f *fakeStore) Upsert(_ context.Context, records []semantic.VectorRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, records)
	return nil
}

func (f *fakeStore) DeleteBySource(_ context.Context, source string) (string, error) {
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	f.deleted = append(f.deleted, source)
	status := f.deleteStatus
	if status == "" {
		status = semantic.StatusCompleted
	}
	return status, nil
}

// --- tests ---

func TestIngest_Success(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	store := &fakeStore{}
	p := New(emb, store, DefaultConfig(), nil)

	text := strings.Repeat("passage content here. ", 60) // > one chunk
	n, err := p.Ingest(context.Background(), "doc1", text)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n < 2 {
		t.Fatalf("expected multiple chunks, got %d", n)
	}

	if emb.calls != 1 {
		t.Fatalf("expected one batch embed call per document, got %d", emb.calls)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected one upsert call per document, got %d", len(store.upserts))
	}

	records := store.upserts[0]
	if len(records) != n {
		t.Fatalf("expected %d records, got %d", n, len(records))
	}
	seen := make(map[string]bool)
	for i, r := range records {
		if r.ID == "" || seen[r.ID] {
			t.Fatalf("record %d has empty or duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
		if len(r.Embedding) != 4 {
			t.Fatalf("record %d has dim %d, want 4", i, len(r.Embedding))
		}
		if r.Payload[domain.PayloadSource] != "doc1" {
			t.Fatalf("record %d has wrong source payload: %v", i, r.Payload[domain.PayloadSource])
		}
		if txt, _ := r.Payload[domain.PayloadText].(string); txt == "" {
			t.Fatalf("record %d has empty text payload", i)
		}
	}
}

func TestIngest_Validation(t *testing.T) {
	cases := []struct {
		name   string
		source string
		text   string
	}{
		{"empty text", "doc1", ""},
		{"empty source", "", "some text"},
		{"blank source", "   ", "some text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emb := &fakeEmbedder{dim: 4}
			store := &fakeStore{}
			p := New(emb, store, DefaultConfig(), nil)

			_, err := p.Ingest(context.Background(), tc.source, tc.text)
			if !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if emb.calls != 0 {
				t.Fatal("embedder must not be called on invalid input")
			}
			if len(store.upserts) != 0 {
				t.Fatal("store must not be called on invalid input")
			}
		})
	}
}

func TestIngest_EmbedFailureAborts(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("model unavailable")}
	store := &fakeStore{}
	p := New(emb, store, DefaultConfig(), nil)

	_, err := p.Ingest(context.Background(), "doc1", "some text")
	var ee *domain.EmbedError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EmbedError, got %v", err)
	}
	if len(store.upserts) != 0 {
		t.Fatal("no chunks may be indexed when embedding fails")
	}
}

func TestIngest_UpsertFailureSurfaces(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	store := &fakeStore{upsertErr: errors.New("qdrant down")}
	p := New(emb, store, DefaultConfig(), nil)

	_, err := p.Ingest(context.Background(), "doc1", "some text")
	var ie *domain.IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if ie.Op != "upsert" {
		t.Fatalf("expected upsert op, got %q", ie.Op)
	}
}

func TestIngest_ReplaceDeletesFirst(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	store := &fakeStore{}
	cfg := DefaultConfig()
	cfg.Replace = true
	p := New(emb, store, cfg, nil)

	if _, err := p.Ingest(context.Background(), "doc1", "fresh text"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "doc1" {
		t.Fatalf("expected delete of doc1 before upsert, got %v", store.deleted)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(store.upserts))
	}
}

func TestIngest_AppendByDefault(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	store := &fakeStore{}
	p := New(emb, store, DefaultConfig(), nil)

	if _, err := p.Ingest(context.Background(), "doc1", "first version"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := p.Ingest(context.Background(), "doc1", "second version"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("default mode must not delete existing chunks")
	}
	if len(store.upserts) != 2 {
		t.Fatalf("expected two upserts, got %d", len(store.upserts))
	}
}

func TestIngest_VectorCountMismatch(t *testing.T) {
	emb := &shortEmbedder{}
	store := &fakeStore{}
	p := New(emb, store, DefaultConfig(), nil)

	_, err := p.Ingest(context.Background(), "doc1", "some text")
	var ee *domain.EmbedError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EmbedError on count mismatch, got %v", err)
	}
}

// shortEmbedder returns fewer vectors than inputs.
type shortEmbedder struct{}

func (*shortEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, 0), nil
}
