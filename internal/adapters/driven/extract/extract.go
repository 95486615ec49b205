// Package extract converts source files into plain text for chunking.
// Plain text and markdown are handled directly; PDFs go through the
// ledongthuc/pdf reader.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.Extractor = (*Service)(nil)

// Service extracts text from supported file formats.
type Service struct{}

// New creates a file extractor.
func New() *Service {
	return &Service{}
}

// Supports reports whether the file name has a supported extension.
func (s *Service) Supports(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown", ".pdf":
		return true
	}
	return false
}

// Extract reads a file from disk and returns its plain text.
func (s *Service) Extract(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return s.ExtractBytes(ctx, filepath.Base(path), content)
}

// ExtractBytes returns the plain text of in-memory file content. The
// name is only used to pick the format by extension.
func (s *Service) ExtractBytes(_ context.Context, name string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return string(content), nil
	case ".md", ".markdown":
		return stripMarkdown(string(content)), nil
	case ".pdf":
		return extractPDF(content)
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
}

// extractPDF pulls the plain text out of a PDF. The reader panics on
// some malformed files, so the whole call is fenced with a recover.
func extractPDF(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pdf parser panicked: %v", domain.ErrCorruptFile, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	return buf.String(), nil
}
