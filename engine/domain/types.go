// Package domain holds the shared types and error taxonomy for the
// ingestion and retrieval engine.
package domain

// Payload field names stored with every point in the collection.
const (
	PayloadText   = "text"
	PayloadSource = "source"
)

// Passage is a retrieved chunk projected down to what augmentation callers
// need: the passage content and the document it came from. Vectors and
// similarity scores stay behind the retrieval boundary.
type Passage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// IngestRequest is a document submitted for ingestion, either over HTTP or
// through the async worker subject.
type IngestRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}
