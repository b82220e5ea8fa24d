package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/hazyhaar/docforge/ocr"
)

// pdfExtractor extracts the PDF text layer through pdfcpu, scores its
// quality, and falls back to OCR over embedded page images when the text
// layer looks like a scan.
type pdfExtractor struct {
	recognizer *ocr.Recognizer
	logger     *slog.Logger
}

func (*pdfExtractor) Name() string { return "pdf" }

func (e *pdfExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	hasImages := detectImageStreams(pdfCtx)

	var allText strings.Builder
	totalChars := 0
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		pageText := extractPageText(pdfCtx, pageNr)
		if pageText == "" {
			continue
		}
		totalChars += len([]rune(pageText))
		if allText.Len() > 0 {
			allText.WriteString("\n\n")
		}
		allText.WriteString(ocr.PageMarker(pageNr))
		allText.WriteByte('\n')
		allText.WriteString(pageText)
	}
	fullText := allText.String()

	var charsPerPage float64
	if pdfCtx.PageCount > 0 {
		charsPerPage = float64(totalChars) / float64(pdfCtx.PageCount)
	}
	quality := &ExtractionQuality{
		PageCount:       pdfCtx.PageCount,
		CharsPerPage:    charsPerPage,
		PrintableRatio:  computePrintableRatio(fullText),
		WordlikeRatio:   computeWordlikeRatio(fullText),
		HasImageStreams: hasImages,
	}

	content := &ExtractedContent{
		Text:             fullText,
		ProcessingMethod: MethodText,
	}
	content.Metadata.PageCount = pdfCtx.PageCount
	applyPDFInfo(pdfCtx, &content.Metadata)

	if quality.NeedsOCR() && e.recognizer != nil {
		if e.logger != nil {
			e.logger.Debug("pdf text layer below quality threshold, trying ocr",
				"file", filename,
				"chars_per_page", quality.CharsPerPage,
				"printable_ratio", quality.PrintableRatio)
		}
		if res, err := e.recognizer.RecognizePDF(ctx, path); err == nil && strings.TrimSpace(res.Text) != "" {
			content.Text = res.Text
			content.OCRConfidence = &res.Confidence
			content.ProcessingMethod = ocrFallbackMethod(res.Engine)
			if res.Warning != "" {
				content.Errors = append(content.Errors, res.Warning)
			}
			return content, nil
		} else if err != nil {
			content.Errors = append(content.Errors, fmt.Sprintf("ocr fallback failed: %v", err))
		}
	}

	if strings.TrimSpace(fullText) == "" {
		return nil, fmt.Errorf("no text content found in %s", filename)
	}
	return content, nil
}

// applyPDFInfo copies the document information dictionary into metadata.
func applyPDFInfo(pdfCtx *model.Context, meta *DocumentMetadata) {
	if pdfCtx.Info == nil {
		return
	}
	d, err := pdfCtx.DereferenceDict(*pdfCtx.Info)
	if err != nil || d == nil {
		return
	}
	meta.Title = infoString(pdfCtx, d, "Title")
	meta.Subject = infoString(pdfCtx, d, "Subject")
	meta.Author = infoString(pdfCtx, d, "Author")
	if s := infoString(pdfCtx, d, "CreationDate"); s != "" {
		if t, ok := types.DateTime(s, true); ok {
			meta.CreationDate = &t
		}
	}
	if s := infoString(pdfCtx, d, "ModDate"); s != "" {
		if t, ok := types.DateTime(s, true); ok {
			meta.ModificationDate = &t
		}
	}
}

func infoString(pdfCtx *model.Context, d types.Dict, key string) string {
	obj, found := d.Find(key)
	if !found {
		return ""
	}
	obj, err := pdfCtx.Dereference(obj)
	if err != nil {
		return ""
	}
	switch o := obj.(type) {
	case types.StringLiteral:
		if s, err := types.StringLiteralToString(o); err == nil {
			return strings.TrimSpace(s)
		}
	case types.HexLiteral:
		if s, err := types.HexLiteralToString(o); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// extractPageText extracts text from a single PDF page via pdfcpu content stream.
func extractPageText(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// detectImageStreams checks if the PDF contains image XObjects.
func detectImageStreams(pdfCtx *model.Context) bool {
	if pdfCtx.Optimize != nil {
		for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pdfCtx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Fallback: scan XRefTable for image subtype objects.
	for _, entry := range pdfCtx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractTextFromStream parses PDF content stream operators for text.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	lines := bytes.Split(data, []byte{'\n'})
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// Tj operator: (text) Tj
		if bytes.HasSuffix(line, []byte("Tj")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteString(text)
				}
			}
		}

		// TJ operator: [(text) -100 (more text)] TJ
		if bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteString(text)
				}
			}
		}

		// ' operator (move to next line and show text): (text) '
		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		}

		// Td/TD operator (text positioning — add space).
		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}

		// T* operator (move to start of next line).
		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanPDFText normalises whitespace in extracted PDF text.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if r == '\n' {
			sb.WriteRune(r)
			prevSpace = true
		} else if strings.ContainsRune(" \t\r\v\f", r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

func ocrFallbackMethod(engine string) string {
	return MethodOCRFallback + ":" + engine
}
