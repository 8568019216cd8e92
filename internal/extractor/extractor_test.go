package extractor

import (
	"context"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	d := New()
	text, err := d.Extract(context.Background(), strings.NewReader("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Extract() = %q, want %q", text, "hello world")
	}
}

func TestExtractEmptyInputShortCircuits(t *testing.T) {
	d := New()
	text, err := d.Extract(context.Background(), strings.NewReader(""), "application/pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Errorf("Extract() of empty input = %q, want empty string", text)
	}
}

func TestExtractUnsupportedMimeReturnsEmpty(t *testing.T) {
	d := New()
	text, err := d.Extract(context.Background(), strings.NewReader("binary junk"), "application/octet-stream")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Errorf("Extract() for unsupported mime = %q, want empty string", text)
	}
}

func TestStripDocxXMLExtractsRunsAndParagraphBreaks(t *testing.T) {
	xmlContent := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t> world</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	got := stripDocxXML(xmlContent)
	if !strings.Contains(got, "Hello world") {
		t.Errorf("stripDocxXML() = %q, want it to contain %q", got, "Hello world")
	}
	if !strings.Contains(got, "Second paragraph") {
		t.Errorf("stripDocxXML() = %q, want it to contain %q", got, "Second paragraph")
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Errorf("stripDocxXML() produced %d lines, want 2 (one per paragraph)", len(lines))
	}
}
