package pdfinfo

import "testing"

func TestCountPagesIgnoresNonPDF(t *testing.T) {
	pages, err := NewCounter().CountPages("image/png", []byte("png"))
	if err != nil || pages != 0 {
		t.Fatalf("expected 0 pages without error, got %d, %v", pages, err)
	}
}

func TestCountPagesRejectsBrokenPDF(t *testing.T) {
	pages, err := NewCounter().CountPages("application/pdf", []byte("not a pdf"))
	if err == nil {
		t.Fatalf("expected error, got %d pages", pages)
	}
}
