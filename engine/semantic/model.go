package semantic

// VectorRecord is a single point to store: one chunk of one document.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // text, source
}

// SearchResult is a single vector search hit, ordered by descending score.
type SearchResult struct {
	ID     string  `json:"id"`
	Score  float32 `json:"score"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
}

// StatusCompleted is the update status Qdrant reports when a write has been
// fully applied, not merely accepted.
const StatusCompleted = "Completed"
