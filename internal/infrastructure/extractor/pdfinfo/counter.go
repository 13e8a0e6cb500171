package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Counter reads the page count of PDF uploads. Other formats report 0.
type Counter struct{}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) CountPages(mimeType string, data []byte) (pages int, err error) {
	if !strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf") {
		return 0, nil
	}
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return reader.NumPage(), nil
}
