package extract

import (
	"context"
	"testing"
)

func TestTextPlain(t *testing.T) {
	got, err := Text(context.Background(), []byte("  line one\nline two  "), "text/plain", "notes.txt")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "line one\nline two" {
		t.Fatalf("Text = %q", got)
	}
}

func TestTextRejectsBinaryWithoutTextLayer(t *testing.T) {
	if _, err := Text(context.Background(), []byte{0xff, 0xfe, 0x00, 0x81}, "application/octet-stream", "scan.tiff"); err == nil {
		t.Fatal("expected error for invalid utf-8 payload")
	}
}

func TestLineCount(t *testing.T) {
	payload := []byte("first\n\n  \nsecond\nthird\n")
	if got := LineCount(context.Background(), payload, "text/plain", "notes.txt"); got != 3 {
		t.Fatalf("LineCount = %d, want 3", got)
	}
	// A payload with no extractable text layer counts as zero, not an error.
	if got := LineCount(context.Background(), []byte{0xff, 0xfe}, "", "scan.bin"); got != 0 {
		t.Fatalf("LineCount binary = %d, want 0", got)
	}
}

func TestTextCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Text(ctx, []byte("hello"), "text/plain", "a.txt"); err == nil {
		t.Fatal("expected context error")
	}
}
