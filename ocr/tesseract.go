package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text with the system Tesseract installation via
// gosseract. Each call uses a fresh client; the trained data itself is
// cached by Tesseract across clients.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs one Tesseract pass over the encoded image bytes.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte, languages []string) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return Output{}, fmt.Errorf("tesseract: set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return Output{}, fmt.Errorf("tesseract: set languages %v: %w", languages, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Output{}, fmt.Errorf("tesseract: recognize: %w", err)
	}

	return Output{
		Text:            strings.TrimSpace(text),
		WordConfidences: wordConfidences(c),
	}, nil
}

// wordConfidences pulls per-word confidence scores from the client. Scores
// are best-effort: a bounding-box failure yields no scores, which the
// recognizer replaces with the default.
func wordConfidences(c *gosseract.Client) []float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil
	}
	confs := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		if b.Confidence > 0 {
			confs = append(confs, b.Confidence)
		}
	}
	return confs
}
