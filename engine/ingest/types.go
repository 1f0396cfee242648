package ingest

// chunkedDoc is a validated document split into embeddable passages.
type chunkedDoc struct {
	Source string
	Chunks []string
}

// embeddedDoc is a chunked document with one vector per passage, in
// passage order.
type embeddedDoc struct {
	chunkedDoc
	Vectors [][]float32
}
