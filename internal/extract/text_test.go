package extract

import "testing"

func TestLooksBinary_DetectsHighNULDensity(t *testing.T) {
	content := make([]byte, 1000)
	for i := range content {
		if i%10 == 0 {
			content[i] = 0
		} else {
			content[i] = 'a'
		}
	}
	if !looksBinary(content) {
		t.Error("expected content with 10% NUL density to be flagged binary")
	}
}

func TestLooksBinary_AllowsPlainText(t *testing.T) {
	content := []byte("package main\n\nfunc main() {}\n")
	if looksBinary(content) {
		t.Error("expected plain source text not to be flagged binary")
	}
}

func TestExtractText_RejectsBinaryContent(t *testing.T) {
	content := make([]byte, 100)
	for i := range content {
		content[i] = 0
	}
	_, err := extractText("data.bin", content)
	if err == nil {
		t.Fatal("expected binary content to be skipped")
	}
	if _, ok := err.(*SkippedError); !ok {
		t.Errorf("expected *SkippedError, got %T", err)
	}
}

func TestExtractText_DecodesValidUTF8(t *testing.T) {
	body, err := extractText("README.md", []byte("hello world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Text != "hello world" {
		t.Errorf("unexpected text: %q", body.Text)
	}
	if body.Extractor != "text" {
		t.Errorf("unexpected extractor kind: %s", body.Extractor)
	}
}

func TestExtractText_ReplacesInvalidUTF8(t *testing.T) {
	content := []byte{'h', 'i', 0xff, 0xfe, 'x'}
	body, err := extractText("bad.txt", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Text == string(content) {
		t.Error("expected invalid UTF-8 bytes to be replaced")
	}
}
