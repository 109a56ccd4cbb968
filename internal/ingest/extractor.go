// Package ingest converts heterogeneous input documents into a single plain
// text blob for the translation pipeline. Image content (standalone images
// and rasters embedded in PDFs) goes through the OCR collaborator.
package ingest

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/medlingua/medlingua/internal/ocr"
)

const defaultOCRWorkers = 4

// Extractor dispatches documents by kind to format-specific extraction.
type Extractor struct {
	ocr     ocr.Client
	workers int
	logger  *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOCR sets the OCR collaborator used for image content. Without it,
// image documents fail and embedded PDF images are skipped.
func WithOCR(c ocr.Client) Option {
	return func(e *Extractor) { e.ocr = c }
}

// WithWorkers bounds the per-document OCR worker pool.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns an extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{workers: defaultOCRWorkers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText extracts plain text from content according to kind.
// The caller always receives either text or an error; faults while reading
// malformed documents are wrapped, never propagated as panics, and no
// error text is ever returned as content.
func (e *Extractor) ExtractText(ctx context.Context, content []byte, kind Kind) (string, error) {
	switch kind {
	case KindText:
		return extractPlain(content)
	case KindCSV:
		return extractCSV(content)
	case KindXLSX:
		return extractXLSX(content)
	case KindDOCX:
		return extractDOCX(content)
	case KindPDF:
		return e.extractPDF(ctx, content)
	case KindImage:
		return e.extractImage(ctx, content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, string(kind))
	}
}

// ExtractFile reads the file at path and extracts text, resolving the kind
// from the file extension.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return e.ExtractText(ctx, content, KindForFile(path))
}

// extractImage hands the whole document to the OCR collaborator.
func (e *Extractor) extractImage(ctx context.Context, content []byte) (string, error) {
	if e.ocr == nil {
		return "", fmt.Errorf("image document: ocr collaborator not configured")
	}
	text, err := e.ocr.ExtractImage(ctx, content)
	if err != nil {
		return "", fmt.Errorf("image document: %w", err)
	}
	return text, nil
}
