// Package extract turns uploaded files into plain text ahead of the
// ingestion pipeline. Plain-text formats are read directly; rich formats
// are handed to a document converter. Unrecognized extensions are rejected
// up front, before any converter is invoked.
package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bendlabs/bend-rag/engine/domain"
)

// Converter extracts plain text from a rich document format (PDF, Word,
// slide decks).
type Converter interface {
	ExtractText(ctx context.Context, r io.Reader, filename string) (string, error)
}

// Dispatcher routes a file to the right extractor based on its extension.
type Dispatcher struct {
	conv Converter
}

// New creates a Dispatcher backed by the given converter.
func New(conv Converter) *Dispatcher {
	return &Dispatcher{conv: conv}
}

// Text extracts the plain text of the named file.
func (d *Dispatcher) Text(ctx context.Context, filename string, r io.Reader) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("extract: read %s: %w", filename, err)
		}
		return string(data), nil
	case ".pdf", ".docx", ".pptx":
		text, err := d.conv.ExtractText(ctx, r, filename)
		if err != nil {
			return "", fmt.Errorf("extract: convert %s: %w", filename, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("extract %s: %w (supported: .pdf, .docx, .pptx, .txt, .md)", filename, domain.ErrUnsupportedFormat)
	}
}
