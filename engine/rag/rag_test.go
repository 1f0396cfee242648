package rag

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
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, f.err
}

type fakeSearcher struct {
	results  []semantic.SearchResult
	err      error
	lastTopK int
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, topK int) ([]semantic.SearchResult, error) {
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > topK {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func hits(n int) []semantic.SearchResult {
	out := make([]semantic.SearchResult, n)
	for i := range out {
		out[i] = semantic.SearchResult{
			ID:     "id",
			Score:  float32(n-i) / float32(n), // descending
			Text:   "passage",
			Source: "s1",
		}
	}
	return out
}

// --- tests ---

func TestRetrieve_Success(t *testing.T) {
	search := &fakeSearcher{results: []semantic.SearchResult{
		{Score: 0.95, Text: "The sky is blue. Grass is green.", Source: "s1"},
		{Score: 0.40, Text: "unrelated", Source: "s2"},
	}}
	svc := New(&fakeEmbedder{vec: []float32{0.1, 0.2}}, search, nil)

	passages, err := svc.Retrieve(context.Background(), "sky color", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].Source != "s1" || passages[0].Text != "The sky is blue. Grass is green." {
		t.Fatalf("top passage wrong: %+v", passages[0])
	}
}

func TestRetrieve_TopKBound(t *testing.T) {
	search := &fakeSearcher{results: hits(10)}
	svc := New(&fakeEmbedder{vec: []float32{0.1}}, search, nil)

	passages, err := svc.Retrieve(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(passages) > 3 {
		t.Fatalf("got %d passages, want <= 3", len(passages))
	}
	if search.lastTopK != 3 {
		t.Fatalf("search called with topK=%d, want 3", search.lastTopK)
	}
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	search := &fakeSearcher{results: hits(10)}
	svc := New(&fakeEmbedder{vec: []float32{0.1}}, search, nil)

	if _, err := svc.Retrieve(context.Background(), "query", 0); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if search.lastTopK != DefaultTopK {
		t.Fatalf("search called with topK=%d, want %d", search.lastTopK, DefaultTopK)
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := New(&fakeEmbedder{vec: []float32{0.1}}, &fakeSearcher{}, nil)

	for _, q := range []string{"", "   "} {
		if _, err := svc.Retrieve(context.Background(), q, 5); !domain.IsValidation(err) {
			t.Fatalf("query %q: expected validation error, got %v", q, err)
		}
	}
}

func TestRetrieve_EmbedFailure(t *testing.T) {
	svc := New(&fakeEmbedder{err: errors.New("model down")}, &fakeSearcher{}, nil)

	_, err := svc.Retrieve(context.Background(), "query", 5)
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestRetrieve_SearchFailure(t *testing.T) {
	svc := New(&fakeEmbedder{vec: []float32{0.1}}, &fakeSearcher{err: errors.New("qdrant down")}, nil)

	_, err := svc.Retrieve(context.Background(), "query", 5)
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
	var ie *domain.IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("expected wrapped IndexError, got %v", err)
	}
}

func TestBuildContext_Format(t *testing.T) {
	search := &fakeSearcher{results: []semantic.SearchResult{
		{Score: 0.9, Text: "The sky is blue.", Source: "s1"},
		{Score: 0.8, Text: "Grass is green.", Source: "s2"},
	}}
	svc := New(&fakeEmbedder{vec: []float32{0.1}}, search, nil)

	got := svc.BuildContext(context.Background(), "sky color")
	if !strings.HasPrefix(got, "CONTEXT:\n") {
		t.Fatalf("missing header: %q", got)
	}
	if !strings.Contains(got, "- Source: s1\n  Content: The sky is blue.\n") {
		t.Fatalf("missing first entry: %q", got)
	}
	if !strings.Contains(got, "- Source: s2\n  Content: Grass is green.\n") {
		t.Fatalf("missing second entry: %q", got)
	}
	if search.lastTopK != 3 {
		t.Fatalf("context search topK=%d, want 3", search.lastTopK)
	}
}

func TestBuildContext_SwallowsFailures(t *testing.T) {
	cases := []struct {
		name string
		svc  *Service
	}{
		{"embed failure", New(&fakeEmbedder{err: errors.New("down")}, &fakeSearcher{}, nil)},
		{"search failure", New(&fakeEmbedder{vec: []float32{0.1}}, &fakeSearcher{err: errors.New("down")}, nil)},
		{"no hits", New(&fakeEmbedder{vec: []float32{0.1}}, &fakeSearcher{}, nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.svc.BuildContext(context.Background(), "query"); got != "" {
				t.Fatalf("expected empty block, got %q", got)
			}
		})
	}
}

func TestBuildContext_EmptyQuery(t *testing.T) {
	svc := New(&fakeEmbedder{vec: []float32{0.1}}, &fakeSearcher{results: hits(3)}, nil)
	if got := svc.BuildContext(context.Background(), ""); got != "" {
		t.Fatalf("expected empty block for empty query, got %q", got)
	}
}
