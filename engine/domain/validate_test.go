package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateIngest(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		text    string
		wantErr error
	}{
		{"valid", "doc1", "content", nil},
		{"empty text", "doc1", "", ErrEmptyText},
		{"empty source", "", "content", ErrEmptySource},
		{"whitespace source", "  \t", "content", ErrEmptySource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateIngest(tc.source, tc.text)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if !IsValidation(err) {
				t.Fatalf("%v should be a ValidationError", err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	if err := ValidateQuery("sky color"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, q := range []string{"", " ", "\n\t"} {
		err := ValidateQuery(q)
		if !errors.Is(err, ErrEmptyQuery) {
			t.Fatalf("query %q: got %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestErrorUnwrapping(t *testing.T) {
	embed := &EmbedError{Cause: errors.New("model down")}
	if !errors.Is(embed, embed.Cause) {
		t.Fatal("EmbedError should unwrap to its cause")
	}

	index := &IndexError{Op: "search", Cause: errors.New("conn refused")}
	if !errors.Is(index, index.Cause) {
		t.Fatal("IndexError should unwrap to its cause")
	}

	del := &DeleteError{Source: "doc1", Status: "Acknowledged"}
	for _, want := range []string{"doc1", "Acknowledged"} {
		if !strings.Contains(del.Error(), want) {
			t.Fatalf("DeleteError message %q should mention %q", del.Error(), want)
		}
	}
}
