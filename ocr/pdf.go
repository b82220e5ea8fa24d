package ocr

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"context"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageMarker renders the explicit page-boundary marker inserted between
// recognized pages.
func PageMarker(pageNr int) string {
	return fmt.Sprintf("--- Page %d ---", pageNr)
}

// RecognizePDF runs OCR over the embedded page images of a PDF, page by
// page. Page texts are joined with page-boundary markers and the confidence
// is averaged across pages that produced non-empty text. A PDF with no
// recognizable text returns a Warning result, not an error.
func (r *Recognizer) RecognizePDF(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("ocr pdf: open: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return Result{}, fmt.Errorf("ocr pdf: read: %w", err)
	}

	var parts []string
	var confidences []float64
	engine := r.primary.Name()

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		pageText, pageConf, pageEngine, err := r.recognizePage(ctx, pdfCtx, pageNr)
		if err != nil {
			r.logger.WarnContext(ctx, "page ocr failed",
				"page", pageNr,
				"error", err)
			continue
		}
		if pageText == "" {
			continue
		}

		parts = append(parts, PageMarker(pageNr)+"\n"+pageText)
		confidences = append(confidences, pageConf)
		if pageEngine != "" {
			engine = pageEngine
		}
	}

	res := Result{
		Text:   strings.Join(parts, "\n\n"),
		Engine: engine,
	}
	if len(confidences) > 0 {
		res.Confidence = clampConfidence(meanConfidence(confidences))
	}
	if res.Text == "" {
		res.Warning = "no text detected"
	}
	return res, nil
}

// recognizePage extracts the page's image XObjects and recognizes each,
// concatenating their texts in resource order.
func (r *Recognizer) recognizePage(ctx context.Context, pdfCtx *model.Context, pageNr int) (string, float64, string, error) {
	images, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
	if err != nil {
		return "", 0, "", fmt.Errorf("extract page %d images: %w", pageNr, err)
	}
	if len(images) == 0 {
		return "", 0, "", nil
	}

	// Map iteration order is random; sort by object number for stable output.
	objNrs := make([]int, 0, len(images))
	for objNr := range images {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	var texts []string
	var confs []float64
	var engine string

	for _, objNr := range objNrs {
		img := images[objNr]
		data, err := io.ReadAll(img)
		if err != nil || len(data) == 0 {
			continue
		}

		res, err := r.Recognize(ctx, data)
		if err != nil {
			continue
		}
		if res.Text != "" {
			texts = append(texts, res.Text)
			confs = append(confs, res.Confidence)
			engine = res.Engine
		}
	}

	if len(texts) == 0 {
		return "", 0, "", nil
	}
	return strings.Join(texts, "\n"), meanConfidence(confs), engine, nil
}
