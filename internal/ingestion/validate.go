package ingestion

import (
	"bytes"
	"fmt"
	"strings"
)

var pdfMagic = []byte("%PDF")

// ValidationLimits bound what the service accepts before any processing.
type ValidationLimits struct {
	MaxSizeBytes int64
	MaxPages     int
}

func DefaultValidationLimits() ValidationLimits {
	return ValidationLimits{
		MaxSizeBytes: 10 << 20, // 10 MB
		MaxPages:     50,
	}
}

// ValidateUpload checks the raw upload without touching poppler: filename,
// magic bytes, size. Page-count validation happens later, once pdfinfo has
// run against the stored file.
func ValidateUpload(filename string, data []byte, limits ValidationLimits) error {
	if strings.TrimSpace(filename) == "" {
		return &ValidationError{Reason: "filename is required"}
	}
	if len(data) == 0 {
		return &ValidationError{Reason: "empty file"}
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return &ValidationError{Reason: "not a PDF: missing %PDF header"}
	}
	if limits.MaxSizeBytes > 0 && int64(len(data)) > limits.MaxSizeBytes {
		return &ValidationError{
			Reason: fmt.Sprintf("file too large: %d bytes (max %d)", len(data), limits.MaxSizeBytes),
		}
	}
	return nil
}

// ValidatePageCount enforces the page cap after pdfinfo has counted pages.
func ValidatePageCount(pages int, limits ValidationLimits) error {
	if pages <= 0 {
		return &ValidationError{Reason: "document has no pages"}
	}
	if limits.MaxPages > 0 && pages > limits.MaxPages {
		return &ValidationError{
			Reason: fmt.Sprintf("too many pages: %d (max %d)", pages, limits.MaxPages),
		}
	}
	return nil
}
