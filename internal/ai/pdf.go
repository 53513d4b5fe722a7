package ai

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText means the PDF parsed but contained no extractable text
// (for example a scanned image).
var ErrNoText = errors.New("pdf: no extractable text")

// ExtractPDFText returns the plain text of every page.
func ExtractPDFText(data []byte) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: opening document: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: reading text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf: reading text: %w", err)
	}

	text = strings.TrimSpace(string(raw))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
