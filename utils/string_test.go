package utils

import (
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty string", input: ""},
		{name: "short string", input: "hello"},
		{name: "json document", input: `{"id":"duga-abc001","title":"Listing","price":980}`},
		{name: "repetitive payload", input: strings.Repeat("listing data ", 500)},
		{name: "multibyte text", input: "価格 1,380円〜 サンプル動画"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := CompressString(tt.input)
			if err != nil {
				t.Fatalf("CompressString failed: %v", err)
			}

			decompressed, err := DecompressString(compressed)
			if err != nil {
				t.Fatalf("DecompressString failed: %v", err)
			}

			if decompressed != tt.input {
				t.Errorf("Round trip mismatch: got %q, want %q", decompressed, tt.input)
			}
		})
	}
}

func TestCompressShrinksRepetitiveInput(t *testing.T) {
	input := strings.Repeat(`{"title":"same listing over and over"}`, 200)

	compressed, err := CompressString(input)
	if err != nil {
		t.Fatalf("CompressString failed: %v", err)
	}

	if len(compressed) >= len(input) {
		t.Errorf("Expected compressed size (%d) to be smaller than input (%d)", len(compressed), len(input))
	}
}

func TestDecompressInvalidInput(t *testing.T) {
	if _, err := DecompressString("not base64!!!"); err == nil {
		t.Error("Expected error for invalid base64 input")
	}

	// Valid base64 but not gzip data
	if _, err := DecompressString("aGVsbG8gd29ybGQ="); err == nil {
		t.Error("Expected error for non-gzip payload")
	}
}
