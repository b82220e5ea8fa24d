package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hazyhaar/docforge/ocr"
)

// imageExtractor runs OCR over raster images. The decode step only sniffs
// the header so unreadable files fail before hitting the OCR engine.
type imageExtractor struct {
	recognizer *ocr.Recognizer
}

func (*imageExtractor) Name() string { return "image" }

func (e *imageExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	if e.recognizer == nil {
		return nil, fmt.Errorf("ocr is not configured, cannot read %s", filename)
	}

	res, err := e.recognizer.Recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", filename, err)
	}

	content := &ExtractedContent{
		Text:             res.Text,
		OCRConfidence:    &res.Confidence,
		ProcessingMethod: MethodOCR + ":" + res.Engine,
	}
	if res.Warning != "" {
		content.Errors = append(content.Errors, res.Warning)
	}
	if strings.TrimSpace(res.Text) == "" && res.Warning == "" {
		content.Errors = append(content.Errors, "no text detected")
	}
	return content, nil
}
