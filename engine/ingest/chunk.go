package ingest

const (
	// DefaultChunkSize is the passage window size in characters, sized to
	// keep each passage within the embedding model's effective context.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of characters shared between adjacent
	// windows, preserving recall across chunk boundaries.
	DefaultOverlap = 50
)

// SplitText walks a sliding window over the text by character offsets:
// each window covers chunkSize characters and the start advances by
// chunkSize-overlap. The final window may be shorter. Output is a pure
// function of the inputs, so re-ingesting the same text reproduces the
// same chunk sequence.
//
// Callers must keep 0 < overlap < chunkSize; an out-of-range chunkSize
// falls back to the default and an out-of-range overlap to a tenth of the
// window. Empty text yields no chunks, and text no longer than one window
// is returned as a single chunk.
func SplitText(text string, chunkSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap <= 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); start += chunkSize - overlap {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
