package extract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bendlabs/bend-rag/engine/domain"
)

type fakeConverter struct {
	text  string
	err   error
	calls []string
}

func (f *fakeConverter) ExtractText(_ context.Context, _ io.Reader, filename string) (string, error) {
	f.calls = append(f.calls, filename)
	return f.text, f.err
}

func TestText_PlainFormats(t *testing.T) {
	conv := &fakeConverter{}
	d := New(conv)

	for _, name := range []string{"notes.txt", "readme.md", "NOTES.TXT", "Readme.MD"} {
		got, err := d.Text(context.Background(), name, strings.NewReader("plain contents"))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != "plain contents" {
			t.Fatalf("%s: got %q", name, got)
		}
	}
	if len(conv.calls) != 0 {
		t.Fatal("converter must not be invoked for plain-text formats")
	}
}

func TestText_RichFormats(t *testing.T) {
	conv := &fakeConverter{text: "extracted body"}
	d := New(conv)

	for _, name := range []string{"report.pdf", "memo.docx", "deck.pptx"} {
		got, err := d.Text(context.Background(), name, strings.NewReader("binary"))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != "extracted body" {
			t.Fatalf("%s: got %q", name, got)
		}
	}
	if len(conv.calls) != 3 {
		t.Fatalf("expected 3 converter calls, got %d", len(conv.calls))
	}
}

func TestText_UnsupportedFormat(t *testing.T) {
	conv := &fakeConverter{}
	d := New(conv)

	for _, name := range []string{"image.png", "archive.zip", "noext", "script.exe"} {
		_, err := d.Text(context.Background(), name, strings.NewReader("x"))
		if !errors.Is(err, domain.ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
	if len(conv.calls) != 0 {
		t.Fatal("converter must never run for unrecognized extensions")
	}
}

func TestText_ConverterFailure(t *testing.T) {
	conv := &fakeConverter{err: errors.New("tika unreachable")}
	d := New(conv)

	_, err := d.Text(context.Background(), "report.pdf", strings.NewReader("binary"))
	if err == nil || errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected converter error, got %v", err)
	}
}
