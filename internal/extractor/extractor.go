// Package extractor implements the TextExtractor capability per the MIME
// dispatch table: PDF, DOCX, XLSX, and plain-text strategies behind one
// entry point.
package extractor

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/driveagent/driveagent/internal/mimemap"
	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/rs/zerolog/log"
)

// Dispatcher implements contracts.TextExtractor, routing by MIME type to a
// format-specific strategy. It buffers the reader to a temp file because the
// PDF/DOCX/XLSX libraries this package builds on require file-backed access.
type Dispatcher struct{}

// New constructs a Dispatcher.
func New() *Dispatcher { return &Dispatcher{} }

var _ contracts.TextExtractor = (*Dispatcher)(nil)

// Extract dispatches on mimeType and returns plain text, or "" when no text
// is extractable. Never returns an error for unsupported or corrupt input —
// failures are logged and treated as empty extraction, per spec.
func (d *Dispatcher) Extract(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	tmp, err := os.CreateTemp("", "driveagent-extract-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	switch {
	case mimeType == "application/pdf", mimemap.IsNativePresentation(mimeType):
		// Native presentations are already exported to PDF bytes by
		// DriveClient.Download before reaching here.
		return extractPDF(tmp.Name(), size)
	case strings.Contains(mimeType, "wordprocessingml.document") || mimemap.IsNativeDocument(mimeType):
		text, err := extractDOCX(tmp.Name())
		if err != nil {
			log.Warn().Err(err).Str("mimeType", mimeType).Int64("size", size).Msg("docx extraction failed, falling back to utf-8")
			return extractPlainFallback(tmp.Name())
		}
		return text, nil
	case strings.Contains(mimeType, "spreadsheetml.sheet") || mimemap.IsNativeSpreadsheet(mimeType):
		text, err := extractXLSX(tmp.Name())
		if err != nil {
			log.Warn().Err(err).Str("mimeType", mimeType).Int64("size", size).Msg("xlsx extraction failed, returning empty text")
			return "", nil
		}
		return text, nil
	case strings.HasPrefix(mimeType, "text/"):
		return extractPlainFallback(tmp.Name())
	default:
		log.Debug().Str("mimeType", mimeType).Msg("no extraction strategy for mime type, returning empty text")
		return "", nil
	}
}

func extractPlainFallback(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
