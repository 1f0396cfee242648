package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bendlabs/bend-rag/engine/domain"
	"github.com/bendlabs/bend-rag/pkg/metrics"
)

// maxUploadBytes caps multipart uploads held in memory.
const maxUploadBytes = 32 << 20

// Ingestor indexes one document.
type Ingestor interface {
	Ingest(ctx context.Context, source, text string) (int, error)
}

// Retriever answers similarity queries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.Passage, error)
	BuildContext(ctx context.Context, query string) string
}

// DocumentRegistry lists and deletes documents by source.
type DocumentRegistry interface {
	Sources(ctx context.Context) ([]string, error)
	DeleteDocument(ctx context.Context, source string) error
}

// Extractor converts an uploaded file into plain text.
type Extractor interface {
	Text(ctx context.Context, filename string, r io.Reader) (string, error)
}

type server struct {
	ingest   Ingestor
	retrieve Retriever
	registry DocumentRegistry
	extract  Extractor
	logger   *slog.Logger

	mDocsIngested  *metrics.Counter
	mChunksWritten *metrics.Counter
	mRetrieveDur   *metrics.Histogram
}

func newServer(ingest Ingestor, retrieve Retriever, registry DocumentRegistry, extract Extractor, met *metrics.Registry, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	if met == nil {
		met = metrics.New()
	}
	return &server{
		ingest:   ingest,
		retrieve: retrieve,
		registry: registry,
		extract:  extract,
		logger:   logger,

		mDocsIngested:  met.Counter("bendrag_ingest_docs_total", "Documents ingested"),
		mChunksWritten: met.Counter("bendrag_ingest_chunks_total", "Chunks written to the vector store"),
		mRetrieveDur:   met.Histogram("bendrag_retrieve_duration_seconds", "Retrieval latency", nil),
	}
}

func (s *server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ingest", s.handleIngestFile)
	mux.HandleFunc("POST /ingest/text", s.handleIngestText)
	mux.HandleFunc("POST /retrieve", s.handleRetrieve)
	mux.HandleFunc("POST /context", s.handleContext)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /documents", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/health", handleHealth)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	text, err := s.extract.Text(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("extract failed", "file", header.Filename, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to extract document text")
		return
	}

	s.runIngest(w, r, header.Filename, text)
}

func (s *server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	var req domain.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runIngest(w, r, req.Source, req.Text)
}

func (s *server) runIngest(w http.ResponseWriter, r *http.Request, source, text string) {
	n, err := s.ingest.Ingest(r.Context(), source, text)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("ingest failed", "source", source, "err", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to ingest document: %s", err))
		return
	}
	s.mDocsIngested.Inc()
	s.mChunksWritten.Add(int64(n))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%q ingested successfully (%d chunks)", source, n),
	})
}

// RetrieveRequest is the JSON body for POST /retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (s *server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	passages, err := s.retrieve.Retrieve(r.Context(), req.Query, req.TopK)
	s.mRetrieveDur.Since(start)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("retrieve failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "failed to retrieve from vector store")
		return
	}
	if passages == nil {
		passages = []domain.Passage{}
	}
	writeJSON(w, http.StatusOK, passages)
}

// ContextRequest is the JSON body for POST /context. Extra fields sent by
// augmentation callers are accepted and ignored.
type ContextRequest struct {
	Query string `json:"query"`
}

// handleContext is the best-effort variant: it never returns an error
// status. Any internal failure yields an empty context block.
func (s *server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"content": ""})
		return
	}
	content := s.retrieve.BuildContext(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	sources, err := s.registry.Sources(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "failed to list documents")
		return
	}
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, sources)
}

// DeleteDocRequest is the JSON body for DELETE /documents.
type DeleteDocRequest struct {
	Source string `json:"source"`
}

func (s *server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	var req DeleteDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.registry.DeleteDocument(r.Context(), req.Source)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("document with source %q deleted successfully", req.Source),
		})
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case isDeleteIncomplete(err):
		s.logger.Error("delete incomplete", "source", req.Source, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("delete failed", "source", req.Source, "err", err)
		writeError(w, http.StatusServiceUnavailable, "failed to delete document from vector store")
	}
}

func isDeleteIncomplete(err error) bool {
	var de *domain.DeleteError
	return errors.As(err, &de)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
