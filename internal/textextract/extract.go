// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textextract supplies raw document text to lookup strategies.
// Implements: prd001-resolution (R4: shared extraction context).
package textextract

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
)

// Extractor pulls plain text out of a source document. Different backends
// (pdftotext, raw) implement this interface.
type Extractor interface {
	// ExtractText reads the document at path and returns its text content.
	ExtractText(path string) (string, error)
}

// ExtractionError wraps an extractor failure for one file. Resolvers treat
// it as a lookup miss for that file rather than a fatal condition.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Backend identifies the text extraction tool.
type Backend string

const (
	BackendPdftotext Backend = "pdftotext"
	BackendRaw       Backend = "raw"
)

// NewExtractor returns the extractor for the named backend.
func NewExtractor(backend Backend) (Extractor, error) {
	switch backend {
	case BackendPdftotext, "":
		return &PdftotextExtractor{}, nil
	case BackendRaw:
		return &RawExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown extraction backend %q", backend)
	}
}

// PdftotextExtractor shells out to the pdftotext binary, writing the text
// to stdout. It requires poppler-utils on PATH.
type PdftotextExtractor struct {
	// Binary overrides the executable name. Empty means "pdftotext".
	Binary string
}

// ExtractText runs pdftotext on the document at path.
func (p *PdftotextExtractor) ExtractText(path string) (string, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftotext"
	}

	cmd := exec.Command(bin, path, "-")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return "", fmt.Errorf("running %s on %s: %w: %s", bin, path, err, msg)
		}
		return "", fmt.Errorf("running %s on %s: %w", bin, path, err)
	}

	return out.String(), nil
}

// RawExtractor reads the file bytes as-is. Useful for text-bearing formats
// and for tests.
type RawExtractor struct{}

// ExtractText returns the raw contents of the file at path.
func (r *RawExtractor) ExtractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
