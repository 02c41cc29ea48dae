// Package extract turns uploaded PDF, Excel and Word files into plain text
// that can be used as chat context.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"go.uber.org/zap"
)

// SentinelText replaces the text of a document that could not be read, so
// the file record is still created and usable as context.
const SentinelText = "[Text extraction failed - file may be corrupted]"

// Format is a normalized, supported file extension
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
)

var formats = map[string]Format{
	"pdf":  FormatPDF,
	"xlsx": FormatXLSX,
	"xls":  FormatXLS,
	"docx": FormatDOCX,
	"doc":  FormatDOC,
}

// FormatOf normalizes a declared type (".PDF", "pdf", "report.pdf") to a
// supported Format.
func FormatOf(declaredType string) (Format, error) {
	ext := strings.ToLower(strings.TrimSpace(declaredType))
	if e := filepath.Ext(ext); e != "" {
		ext = e
	}
	ext = strings.TrimPrefix(ext, ".")

	format, ok := formats[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedType, declaredType)
	}
	return format, nil
}

// IsSupported reports whether declaredType has an extractor
func IsSupported(declaredType string) bool {
	_, err := FormatOf(declaredType)
	return err == nil
}

// ExtractionError reports a parse failure for a supported format
type ExtractionError struct {
	Format Format
	Path   string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s %s: %v", e.Format, filepath.Base(e.Path), e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{domain.ErrExtractionFailed, e.Err}
}

// Extractor dispatches files to per-format text extractors
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract returns the plain text of the file at path. Unsupported types fail
// with domain.ErrUnsupportedType before the file is touched; parse failures
// are *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, path, declaredType string) (string, error) {
	format, err := FormatOf(declaredType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var fn func(string) (string, error)
	switch format {
	case FormatPDF:
		fn = extractPDF
	case FormatXLSX:
		fn = extractXLSX
	case FormatXLS:
		fn = extractXLS
	case FormatDOCX:
		fn = extractDOCX
	case FormatDOC:
		fn = extractDOC
	}

	text, err := safeExtract(fn, path)
	if err != nil {
		return "", &ExtractionError{Format: format, Path: path, Err: err}
	}
	return text, nil
}

// ExtractDocument never fails: broken or unsupported files come back with
// Status failed and SentinelText as their text.
func (e *Extractor) ExtractDocument(ctx context.Context, path, declaredType string) domain.ExtractedDocument {
	doc := domain.ExtractedDocument{
		SourcePath:   path,
		DeclaredType: declaredType,
		Status:       domain.ExtractionOK,
	}

	text, err := e.Extract(ctx, path, declaredType)
	if err != nil {
		e.logger.Warn("text extraction failed",
			zap.String("path", path),
			zap.String("type", declaredType),
			zap.Error(err),
		)
		doc.Text = SentinelText
		doc.Status = domain.ExtractionFailed
		doc.Reason = err.Error()
		return doc
	}

	doc.Text = text
	return doc
}

// The parsers panic on some malformed inputs
func safeExtract(fn func(string) (string, error), path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return fn(path)
}
