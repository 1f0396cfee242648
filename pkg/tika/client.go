// Package tika provides a client for an Apache Tika server, used to pull
// plain text out of PDF, Word, and slide-deck uploads.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
)

// Client talks to a Tika server over HTTP. Safe for concurrent use.
type Client struct {
	serverURL string
	client    *http.Client
}

// New creates a Tika client for the given server URL.
func New(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		client:    &http.Client{},
	}
}

// ExtractText sends the file body to Tika and returns the extracted plain
// text. The MIME type is inferred from the filename extension.
func (c *Client) ExtractText(ctx context.Context, r io.Reader, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+"/tika", r)
	if err != nil {
		return "", fmt.Errorf("tika: build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", detectMimeType(filename))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tika: extract %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("tika: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tika: read response: %w", err)
	}
	return string(text), nil
}

// detectMimeType maps a filename extension to a Content-Type, falling back
// to octet-stream for unknown extensions.
func detectMimeType(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return "application/octet-stream"
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
