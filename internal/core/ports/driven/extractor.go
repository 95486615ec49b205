package driven

import "context"

// Extractor converts an uploaded file into plain text.
// Format-specific parsing lives behind this port; the core only ever
// consumes the returned text.
type Extractor interface {
	// Extract returns the plain text content of the file at path.
	// Unknown formats fail with domain.ErrUnsupportedFormat, broken
	// files with domain.ErrCorruptFile.
	Extract(ctx context.Context, path string) (string, error)

	// ExtractBytes extracts text from in-memory content, using name
	// to determine the format. Used by the upload endpoint.
	ExtractBytes(ctx context.Context, name string, content []byte) (string, error)

	// Supports reports whether the file name has a supported extension.
	Supports(name string) bool
}
