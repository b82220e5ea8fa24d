package docpipe

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// SheetMarker labels the start of one sheet's text in assembled output.
func SheetMarker(name string) string {
	return fmt.Sprintf("--- Sheet: %s ---", name)
}

// sheetExtractor handles tabular formats: .xlsx through excelize, legacy
// .xls through the BIFF reader, .csv through encoding/csv, and .ods through
// the ODF content walker. Each non-empty sheet yields one Table; the text
// rendition joins cells with " | " under a per-sheet marker.
type sheetExtractor struct{}

func (sheetExtractor) Name() string { return "sheet" }

func (sheetExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return extractCSV(path, filename)
	case strings.HasSuffix(strings.ToLower(filename), ".xls"):
		return extractXLS(path, filename)
	case strings.HasSuffix(strings.ToLower(filename), ".ods"):
		return extractODS(path, filename)
	default:
		return extractXLSX(path, filename)
	}
}

func extractXLSX(path, filename string) (*ExtractedContent, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	var parts []string
	var tables []Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q of %s: %w", sheet, filename, err)
		}
		text, tbl, ok := sheetContent(sheet, rows)
		if !ok {
			continue
		}
		parts = append(parts, text)
		tables = append(tables, tbl)
	}

	content := &ExtractedContent{
		Text:             strings.Join(parts, "\n\n"),
		Tables:           tables,
		ProcessingMethod: MethodSpreadsheet,
	}
	if props, err := f.GetDocProps(); err == nil && props != nil {
		content.Metadata.Title = props.Title
		content.Metadata.Subject = props.Subject
		content.Metadata.Author = props.Creator
		content.Metadata.CreationDate = parseOOXMLTime(props.Created)
		content.Metadata.ModificationDate = parseOOXMLTime(props.Modified)
	}
	return content, nil
}

func extractXLS(path, filename string) (*ExtractedContent, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}

	var parts []string
	var tables []Table
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		var rows [][]string
		for rowNr := 0; rowNr <= int(sheet.MaxRow); rowNr++ {
			row := sheet.Row(rowNr)
			if row == nil {
				continue
			}
			var cells []string
			for col := row.FirstCol(); col <= row.LastCol(); col++ {
				cells = append(cells, strings.TrimSpace(row.Col(col)))
			}
			if rowHasContent(cells) {
				rows = append(rows, trimTrailingEmpty(cells))
			}
		}
		text, tbl, ok := sheetContent(sheet.Name, rows)
		if !ok {
			continue
		}
		parts = append(parts, text)
		tables = append(tables, tbl)
	}

	return &ExtractedContent{
		Text:             strings.Join(parts, "\n\n"),
		Tables:           tables,
		ProcessingMethod: MethodSpreadsheet,
	}, nil
}

func extractCSV(path, filename string) (*ExtractedContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	text, tbl, ok := sheetContent("", rows)
	if !ok {
		return &ExtractedContent{ProcessingMethod: MethodSpreadsheet}, nil
	}
	return &ExtractedContent{
		Text:             text,
		Tables:           []Table{tbl},
		ProcessingMethod: MethodSpreadsheet,
	}, nil
}

func extractODS(path, filename string) (*ExtractedContent, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer r.Close()

	paragraphs, sheets, err := walkODFContent(&r.Reader)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	var parts []string
	if len(paragraphs) > 0 {
		parts = append(parts, strings.Join(paragraphs, "\n\n"))
	}
	var tables []Table
	for _, s := range sheets {
		text, tbl, ok := sheetContent(s.Name, s.Rows)
		if !ok {
			continue
		}
		parts = append(parts, text)
		tables = append(tables, tbl)
	}

	content := &ExtractedContent{
		Text:             strings.Join(parts, "\n\n"),
		Tables:           tables,
		ProcessingMethod: MethodSpreadsheet,
	}
	applyODFMeta(&r.Reader, &content.Metadata)
	return content, nil
}

// sheetContent renders one sheet's rows as marked text plus a Table. The
// first row becomes the header. Empty sheets report ok=false.
func sheetContent(name string, rows [][]string) (string, Table, bool) {
	var kept [][]string
	for _, row := range rows {
		if rowHasContent(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return "", Table{}, false
	}

	var b strings.Builder
	if name != "" {
		b.WriteString(SheetMarker(name))
		b.WriteByte('\n')
	}
	for i, row := range kept {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(row, " | "))
	}

	tbl := Table{Sheet: name, Rows: kept}
	if len(kept) > 1 {
		tbl.Headers, tbl.Rows = kept[0], kept[1:]
	}
	return b.String(), normalizeTable(tbl), true
}
