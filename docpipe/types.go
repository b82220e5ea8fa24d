package docpipe

import (
	"time"

	"github.com/hazyhaar/docforge/filetype"
)

// Processing method tags. OCR-derived methods carry an "ocr" prefix plus the
// engine that produced the text.
const (
	MethodText        = "text_extraction"
	MethodRTF         = "rtf_extraction"
	MethodHTML        = "html_extraction"
	MethodMarkdown    = "markdown_extraction"
	MethodJSON        = "json_extraction"
	MethodXML         = "xml_extraction"
	MethodDocx        = "docx_extraction"
	MethodDoc         = "doc_extraction"
	MethodODT         = "odt_extraction"
	MethodSlides      = "slides_extraction"
	MethodSpreadsheet = "spreadsheet_extraction"
	MethodOCR         = "ocr"
	MethodOCRFallback = "ocr_fallback"
)

// DocumentMetadata describes one processed document. It is populated
// incrementally during extraction and must be treated as immutable once the
// ExtractedContent is returned.
type DocumentMetadata struct {
	Filename         string       `json:"filename"`
	FileType         filetype.Tag `json:"file_type"`
	MIMEType         string       `json:"mime_type"`
	FileSize         int64        `json:"file_size"`
	Language         string       `json:"language,omitempty"`
	PageCount        int          `json:"page_count,omitempty"`
	CreationDate     *time.Time   `json:"creation_date,omitempty"`
	ModificationDate *time.Time   `json:"modification_date,omitempty"`
	Author           string       `json:"author,omitempty"`
	Title            string       `json:"title,omitempty"`
	Subject          string       `json:"subject,omitempty"`
	WordCount        int          `json:"word_count"`
	CharacterCount   int          `json:"character_count"`
}

// Table is one extracted table. Page is the 1-based page/sheet/slide ordinal
// it came from; Sheet names the originating spreadsheet sheet when any.
// When a header is present every row has exactly len(Headers) cells.
type Table struct {
	Page        int        `json:"page,omitempty"`
	Sheet       string     `json:"sheet_name,omitempty"`
	Headers     []string   `json:"headers"`
	Rows        [][]string `json:"rows"`
	RowCount    int        `json:"row_count"`
	ColumnCount int        `json:"column_count"`
}

// FailureKind classifies a recovered extraction failure.
type FailureKind string

const (
	FailureExtraction FailureKind = "extraction"
	FailureDecode     FailureKind = "decode"
	FailureOCR        FailureKind = "ocr"
)

// Failure is the typed form of a recovered failure. The same information is
// mirrored into the Error:-prefixed text and the errors list so existing
// callers keep working.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// ExtractedContent is the result of one extraction call. It is created once
// per call and never mutated after return.
type ExtractedContent struct {
	Text             string           `json:"text"`
	Metadata         DocumentMetadata `json:"metadata"`
	Tables           []Table          `json:"tables,omitempty"`
	RawContent       string           `json:"raw_content,omitempty"`
	OCRConfidence    *float64         `json:"ocr_confidence,omitempty"`
	ProcessingMethod string           `json:"processing_method"`
	Errors           []string         `json:"errors,omitempty"`
	Failure          *Failure         `json:"failure,omitempty"`
}

// Failed reports whether the extraction recovered from a failure (the
// returned text is an Error: marker, not document content).
func (c *ExtractedContent) Failed() bool {
	return c.Failure != nil
}

// normalizeTable derives the row/column counts and, when a header is
// present, pads or truncates every row to the header width.
func normalizeTable(t Table) Table {
	if len(t.Headers) > 0 {
		width := len(t.Headers)
		for i, row := range t.Rows {
			switch {
			case len(row) < width:
				padded := make([]string, width)
				copy(padded, row)
				t.Rows[i] = padded
			case len(row) > width:
				t.Rows[i] = row[:width]
			}
		}
		t.ColumnCount = width
	} else if len(t.Rows) > 0 {
		t.ColumnCount = len(t.Rows[0])
	}
	t.RowCount = len(t.Rows)
	return t
}
