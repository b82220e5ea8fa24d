package docpipe

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

// wordExtractor handles .docx archives: paragraphs and tables from
// word/document.xml, document properties from docProps/core.xml. Legacy
// binary .doc files are not parseable; they surface as a recovered failure
// unless the file turns out to be an OOXML archive with a .doc name.
type wordExtractor struct{}

func (wordExtractor) Name() string { return "word" }

func (wordExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		if strings.HasSuffix(strings.ToLower(filename), ".doc") {
			return nil, fmt.Errorf("legacy .doc format is not supported, convert %s to .docx", filename)
		}
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer r.Close()

	text, tables, err := extractDocxBody(&r.Reader)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	content := &ExtractedContent{
		Text:             text,
		Tables:           tables,
		ProcessingMethod: MethodDocx,
	}
	if props, ok := readCoreProperties(&r.Reader); ok {
		content.Metadata.Title = props.Title
		content.Metadata.Subject = props.Subject
		content.Metadata.Author = props.Creator
		content.Metadata.CreationDate = props.Created
		content.Metadata.ModificationDate = props.Modified
	}
	return content, nil
}

// extractDocxBody streams word/document.xml, collecting paragraph text and
// w:tbl tables.
func extractDocxBody(r *zip.Reader) (string, []Table, error) {
	docFile := findZipFile(r, "word/document.xml")
	if docFile == nil {
		return "", nil, fmt.Errorf("word/document.xml not found in archive")
	}
	rc, err := docFile.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var tables []Table

	var para strings.Builder
	var inPara, inText bool

	// Table state. Paragraph text inside a table lands in the current cell,
	// not the body.
	var tableDepth int
	var curRows [][]string
	var curRow []string
	var curCell strings.Builder

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					curRows = nil
				}
			case "tr":
				if tableDepth == 1 {
					curRow = nil
				}
			case "tc":
				if tableDepth == 1 {
					curCell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inPara = true
					para.Reset()
				}
			case "t":
				inText = true
			case "tab":
				if inText || inPara {
					writeDocxText(&para, &curCell, tableDepth, "\t")
				}
			case "br":
				writeDocxText(&para, &curCell, tableDepth, "\n")
			}

		case xml.CharData:
			if inText {
				writeDocxText(&para, &curCell, tableDepth, string(t))
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara && tableDepth == 0 {
					inPara = false
					if text := strings.TrimSpace(para.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
				} else if tableDepth == 1 {
					curCell.WriteByte(' ')
				}
			case "tc":
				if tableDepth == 1 {
					curRow = append(curRow, strings.TrimSpace(curCell.String()))
				}
			case "tr":
				if tableDepth == 1 && len(curRow) > 0 {
					curRows = append(curRows, curRow)
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(curRows) > 0 {
					tbl := Table{Rows: curRows}
					if len(curRows) > 1 {
						tbl.Headers, tbl.Rows = curRows[0], curRows[1:]
					}
					tables = append(tables, normalizeTable(tbl))
				}
			}
		}
	}

	return strings.Join(paragraphs, "\n\n"), tables, nil
}

func writeDocxText(para *strings.Builder, cell *strings.Builder, tableDepth int, s string) {
	if tableDepth > 0 {
		cell.WriteString(s)
		return
	}
	para.WriteString(s)
}

// coreProperties mirrors the subset of docProps/core.xml shared by docx,
// pptx and xlsx archives.
type coreProperties struct {
	Title    string
	Subject  string
	Creator  string
	Created  *time.Time
	Modified *time.Time
}

func readCoreProperties(r *zip.Reader) (coreProperties, bool) {
	var props coreProperties
	f := findZipFile(r, "docProps/core.xml")
	if f == nil {
		return props, false
	}
	rc, err := f.Open()
	if err != nil {
		return props, false
	}
	defer rc.Close()

	var raw struct {
		Title    string `xml:"title"`
		Subject  string `xml:"subject"`
		Creator  string `xml:"creator"`
		Created  string `xml:"created"`
		Modified string `xml:"modified"`
	}
	if err := xml.NewDecoder(rc).Decode(&raw); err != nil {
		return props, false
	}
	props.Title = raw.Title
	props.Subject = raw.Subject
	props.Creator = raw.Creator
	props.Created = parseOOXMLTime(raw.Created)
	props.Modified = parseOOXMLTime(raw.Modified)
	return props, true
}

func parseOOXMLTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func findZipFile(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
