package docpipe

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeZip builds a minimal office archive fixture.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func extractFile(t *testing.T, path string) *ExtractedContent {
	t.Helper()
	pipe := newTestPipeline(t)
	res, err := pipe.Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestExtractDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.docx")
	writeZip(t, path, map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Score</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Ada</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>95</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
</w:body>
</w:document>`,
		"docProps/core.xml": `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
<dc:title>Test Doc</dc:title>
<dc:creator>Jane Writer</dc:creator>
<dcterms:created>2024-03-01T10:00:00Z</dcterms:created>
</cp:coreProperties>`,
	})

	res := extractFile(t, path)
	if res.ProcessingMethod != "docx_extraction" {
		t.Fatalf("expected docx_extraction, got %q", res.ProcessingMethod)
	}
	if !strings.Contains(res.Text, "First paragraph.") {
		t.Fatalf("missing paragraph: %q", res.Text)
	}
	if !strings.Contains(res.Text, "Second paragraph.") {
		t.Fatalf("split runs not joined: %q", res.Text)
	}
	if strings.Contains(res.Text, "Ada") {
		t.Fatalf("table cells must not leak into body text: %q", res.Text)
	}
	if len(res.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(res.Tables))
	}
	tbl := res.Tables[0]
	if len(tbl.Headers) != 2 || tbl.Headers[0] != "Name" {
		t.Fatalf("unexpected headers: %v", tbl.Headers)
	}
	if tbl.RowCount != 1 || tbl.Rows[0][1] != "95" {
		t.Fatalf("unexpected rows: %v", tbl.Rows)
	}
	if res.Metadata.Title != "Test Doc" || res.Metadata.Author != "Jane Writer" {
		t.Fatalf("core properties not applied: %+v", res.Metadata)
	}
	if res.Metadata.CreationDate == nil || res.Metadata.CreationDate.Year() != 2024 {
		t.Fatalf("creation date not parsed: %v", res.Metadata.CreationDate)
	}
}

func TestExtractLegacyDocDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.doc")
	// OLE2 magic, not a ZIP.
	os.WriteFile(path, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0}, 0644)

	res := extractFile(t, path)
	if !res.Failed() {
		t.Fatal("legacy .doc must degrade")
	}
	if !strings.Contains(res.Text, "convert old.doc to .docx") {
		t.Fatalf("expected conversion hint, got %q", res.Text)
	}
}

func TestExtractODT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.odt")
	writeZip(t, path, map[string]string{
		"content.xml": `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0">
<office:body><office:text>
<text:h text:outline-level="1">Introduction</text:h>
<text:p>Body of the document.</text:p>
<table:table table:name="T1">
<table:table-row><table:table-cell><text:p>Col</text:p></table:table-cell></table:table-row>
<table:table-row><table:table-cell><text:p>val</text:p></table:table-cell></table:table-row>
</table:table>
</office:text></office:body>
</office:document-content>`,
		"meta.xml": `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0">
<office:meta><dc:title>ODT Title</dc:title><dc:creator>Someone</dc:creator></office:meta>
</office:document-meta>`,
	})

	res := extractFile(t, path)
	if res.ProcessingMethod != "odt_extraction" {
		t.Fatalf("expected odt_extraction, got %q", res.ProcessingMethod)
	}
	if !strings.Contains(res.Text, "Introduction") || !strings.Contains(res.Text, "Body of the document.") {
		t.Fatalf("missing content: %q", res.Text)
	}
	if len(res.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(res.Tables))
	}
	if res.Tables[0].Headers[0] != "Col" || res.Tables[0].Rows[0][0] != "val" {
		t.Fatalf("unexpected table: %+v", res.Tables[0])
	}
	if res.Metadata.Title != "ODT Title" {
		t.Fatalf("meta.xml not applied: %+v", res.Metadata)
	}
}

func TestExtractPptx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	slide := func(text string) string {
		return `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>
<a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>
</p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	}
	writeZip(t, path, map[string]string{
		"ppt/slides/slide2.xml":  slide("Second slide"),
		"ppt/slides/slide1.xml":  slide("Title slide"),
		"ppt/slides/slide10.xml": slide("Tenth slide"),
	})

	res := extractFile(t, path)
	if res.ProcessingMethod != "slides_extraction" {
		t.Fatalf("expected slides_extraction, got %q", res.ProcessingMethod)
	}
	if res.Metadata.PageCount != 3 {
		t.Fatalf("expected 3 slides, got %d", res.Metadata.PageCount)
	}
	// Numeric ordering, not lexicographic: slide10 last.
	i1 := strings.Index(res.Text, "--- Slide 1 ---")
	i2 := strings.Index(res.Text, "--- Slide 2 ---")
	i10 := strings.Index(res.Text, "--- Slide 10 ---")
	if i1 < 0 || i2 < 0 || i10 < 0 {
		t.Fatalf("missing slide markers: %q", res.Text)
	}
	if !(i1 < i2 && i2 < i10) {
		t.Fatalf("slides out of order: %q", res.Text)
	}
	if !strings.Contains(res.Text, "Tenth slide") {
		t.Fatalf("missing slide text: %q", res.Text)
	}
}

func TestExtractODP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.odp")
	writeZip(t, path, map[string]string{
		"content.xml": `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0">
<office:body><office:presentation>
<draw:page draw:name="page1"><draw:frame><draw:text-box><text:p>Opening</text:p></draw:text-box></draw:frame></draw:page>
<draw:page draw:name="page2"><draw:frame><draw:text-box><text:p>Closing</text:p></draw:text-box></draw:frame></draw:page>
</office:presentation></office:body>
</office:document-content>`,
	})

	res := extractFile(t, path)
	if res.Metadata.PageCount != 2 {
		t.Fatalf("expected 2 slides, got %d", res.Metadata.PageCount)
	}
	if !strings.Contains(res.Text, "--- Slide 1 ---") || !strings.Contains(res.Text, "Closing") {
		t.Fatalf("missing slide content: %q", res.Text)
	}
}

func TestExtractCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	os.WriteFile(path, []byte("name,score\nAda,95\nAlan,88\n"), 0644)

	res := extractFile(t, path)
	if res.ProcessingMethod != "spreadsheet_extraction" {
		t.Fatalf("expected spreadsheet_extraction, got %q", res.ProcessingMethod)
	}
	if !strings.Contains(res.Text, "Ada | 95") {
		t.Fatalf("cells not pipe-joined: %q", res.Text)
	}
	if len(res.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(res.Tables))
	}
	tbl := res.Tables[0]
	if tbl.Headers[0] != "name" || tbl.RowCount != 2 || tbl.Rows[1][0] != "Alan" {
		t.Fatalf("unexpected table: %+v", tbl)
	}
}

func TestExtractXlsx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "city")
	f.SetCellValue("Sheet1", "B1", "pop")
	f.SetCellValue("Sheet1", "A2", "Lyon")
	f.SetCellValue("Sheet1", "B2", 513000)
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	res := extractFile(t, path)
	if res.ProcessingMethod != "spreadsheet_extraction" {
		t.Fatalf("expected spreadsheet_extraction, got %q", res.ProcessingMethod)
	}
	if !strings.Contains(res.Text, "--- Sheet: Sheet1 ---") {
		t.Fatalf("missing sheet marker: %q", res.Text)
	}
	if !strings.Contains(res.Text, "Lyon | 513000") {
		t.Fatalf("missing row: %q", res.Text)
	}
	if len(res.Tables) != 1 || res.Tables[0].Sheet != "Sheet1" {
		t.Fatalf("unexpected tables: %+v", res.Tables)
	}
	if res.Tables[0].Headers[1] != "pop" {
		t.Fatalf("unexpected headers: %v", res.Tables[0].Headers)
	}
}

func TestExtractODS(t *testing.T) {
	// WHAT: a spreadsheet ODS whose content.xml holds only table:table
	// elements, the common case for real .ods files.
	path := filepath.Join(t.TempDir(), "budget.ods")
	writeZip(t, path, map[string]string{
		"content.xml": `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0">
<office:body><office:spreadsheet>
<table:table table:name="Budget">
<table:table-row><table:table-cell><text:p>item</text:p></table:table-cell><table:table-cell><text:p>cost</text:p></table:table-cell></table:table-row>
<table:table-row><table:table-cell><text:p>desk</text:p></table:table-cell><table:table-cell><text:p>300</text:p></table:table-cell></table:table-row>
</table:table>
</office:spreadsheet></office:body>
</office:document-content>`,
	})

	res := extractFile(t, path)
	if res.ProcessingMethod != "spreadsheet_extraction" {
		t.Fatalf("expected spreadsheet_extraction, got %q", res.ProcessingMethod)
	}
	// WHY: with no text:p outside tables the text rendition must still
	// carry the sheet marker and pipe-joined rows.
	if !strings.Contains(res.Text, "--- Sheet: Budget ---") {
		t.Fatalf("missing sheet marker: %q", res.Text)
	}
	if !strings.Contains(res.Text, "desk | 300") {
		t.Fatalf("cells not pipe-joined: %q", res.Text)
	}
	if len(res.Tables) != 1 || res.Tables[0].Sheet != "Budget" {
		t.Fatalf("unexpected tables: %+v", res.Tables)
	}
	tbl := res.Tables[0]
	if tbl.Headers[0] != "item" || tbl.RowCount != 1 || tbl.Rows[0][1] != "300" {
		t.Fatalf("unexpected table: %+v", tbl)
	}
	if res.Metadata.WordCount == 0 {
		t.Fatalf("word count not derived from sheet text: %+v", res.Metadata)
	}
}

func TestExtractXlsCorruptDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xls")
	os.WriteFile(path, []byte("not a BIFF workbook"), 0644)

	res := extractFile(t, path)
	if !res.Failed() {
		t.Fatal("corrupt .xls must degrade, not succeed")
	}
	if !strings.HasPrefix(res.Text, "Error: ") {
		t.Fatalf("expected error-tagged text, got %q", res.Text)
	}
}

func TestTableNormalization(t *testing.T) {
	tbl := normalizeTable(Table{
		Headers: []string{"a", "b", "c"},
		Rows:    [][]string{{"1"}, {"1", "2", "3", "4"}},
	})
	if tbl.ColumnCount != 3 {
		t.Fatalf("expected 3 columns, got %d", tbl.ColumnCount)
	}
	if len(tbl.Rows[0]) != 3 || tbl.Rows[0][1] != "" {
		t.Fatalf("short row not padded: %v", tbl.Rows[0])
	}
	if len(tbl.Rows[1]) != 3 {
		t.Fatalf("long row not truncated: %v", tbl.Rows[1])
	}
	if tbl.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.RowCount)
	}
}
