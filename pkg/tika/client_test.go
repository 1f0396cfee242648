package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractText_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tika" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "text/plain" {
			t.Errorf("unexpected Accept header %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/pdf" {
			t.Errorf("unexpected Content-Type %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "raw bytes" {
			t.Errorf("body not forwarded: %q", body)
		}
		w.Write([]byte("extracted text"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.ExtractText(context.Background(), strings.NewReader("raw bytes"), "report.pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "extracted text" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "cannot parse", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.ExtractText(context.Background(), strings.NewReader("x"), "broken.pdf"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestDetectMimeType(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"report.pdf", "application/pdf"},
		{"noext", "application/octet-stream"},
		{"weird.zzz9", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := detectMimeType(tc.filename); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.filename, got, tc.want)
		}
	}
}
