// Package document turns files on disk into retrieval-ready chunks.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/newthinker/finrag/internal/core"
)

// Supported file suffixes.
const (
	SuffixPDF = ".pdf"
	SuffixTXT = ".txt"
)

// Supported reports whether path has a suffix the extractor understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case SuffixPDF, SuffixTXT:
		return true
	}
	return false
}

// Extractor reads plain text out of supported files.
type Extractor struct{}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of path. PDF pages are joined with newlines and
// text files are returned verbatim. Unsupported suffixes yield "" and no error.
func (e *Extractor) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case SuffixPDF:
		return e.extractPDF(path)
	case SuffixTXT:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", core.WrapError(core.ErrExtractFailed, err)
		}
		return string(data), nil
	default:
		return "", nil
	}
}

// extractPDF concatenates the plain text of every page. The pdf reader panics
// on some malformed inputs, so panics are turned into errors.
func (e *Extractor) extractPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = core.WrapError(core.ErrExtractFailed, fmt.Errorf("reading %s: %v", path, r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", core.WrapError(core.ErrExtractFailed, fmt.Errorf("opening %s: %w", path, err))
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", core.WrapError(core.ErrExtractFailed, fmt.Errorf("page %d of %s: %w", i, path, err))
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
