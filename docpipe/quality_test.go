package docpipe

import (
	"strings"
	"testing"
)

func TestNeedsOCR(t *testing.T) {
	tests := []struct {
		name    string
		quality ExtractionQuality
		want    bool
	}{
		{
			name:    "clean text layer",
			quality: ExtractionQuality{CharsPerPage: 1500, PrintableRatio: 0.99, WordlikeRatio: 0.9},
			want:    false,
		},
		{
			name:    "scan with images and no text",
			quality: ExtractionQuality{CharsPerPage: 10, PrintableRatio: 1.0, HasImageStreams: true},
			want:    true,
		},
		{
			name:    "sparse text but no images",
			quality: ExtractionQuality{CharsPerPage: 10, PrintableRatio: 1.0, HasImageStreams: false},
			want:    false,
		},
		{
			name:    "garbage glyphs",
			quality: ExtractionQuality{CharsPerPage: 2000, PrintableRatio: 0.5},
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quality.NeedsOCR(); got != tt.want {
				t.Errorf("NeedsOCR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputePrintableRatio(t *testing.T) {
	if r := computePrintableRatio("normal readable text\nwith lines"); r != 1.0 {
		t.Errorf("clean text should be fully printable, got %f", r)
	}
	garbage := strings.Repeat("", 50) + "ok"
	if r := computePrintableRatio(garbage); r > 0.1 {
		t.Errorf("PUA glyphs must count as garbage, got %f", r)
	}
	if r := computePrintableRatio(""); r != 1.0 {
		t.Errorf("empty text defaults to 1.0, got %f", r)
	}
}

func TestComputeWordlikeRatio(t *testing.T) {
	if r := computeWordlikeRatio("these are normal words here"); r != 1.0 {
		t.Errorf("expected 1.0, got %f", r)
	}
	if r := computeWordlikeRatio("x " + strings.Repeat("q", 40)); r != 0 {
		t.Errorf("single chars and overlong tokens are not wordlike, got %f", r)
	}
	if r := computeWordlikeRatio(""); r != 0 {
		t.Errorf("empty text has no words, got %f", r)
	}
}
