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

// odtExtractor parses OpenDocument text files by streaming content.xml from
// the ZIP archive. Presentation (.odp) and spreadsheet (.ods) variants share
// the same container layout and reuse the walker with different framing.
type odtExtractor struct{}

func (odtExtractor) Name() string { return "odt" }

func (odtExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer r.Close()

	paragraphs, sheets, err := walkODFContent(&r.Reader)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	var tables []Table
	for _, s := range sheets {
		tbl := Table{Rows: s.Rows}
		if len(s.Rows) > 1 {
			tbl.Headers, tbl.Rows = s.Rows[0], s.Rows[1:]
		}
		tables = append(tables, normalizeTable(tbl))
	}

	content := &ExtractedContent{
		Text:             strings.Join(paragraphs, "\n\n"),
		Tables:           tables,
		ProcessingMethod: MethodODT,
	}
	applyODFMeta(&r.Reader, &content.Metadata)
	return content, nil
}

// odfSheet is one table:table element with its table:name attribute and the
// raw non-empty rows, header split deferred to the caller.
type odfSheet struct {
	Name string
	Rows [][]string
}

// walkODFContent streams content.xml, collecting text:p / text:h blocks and
// table:table elements.
func walkODFContent(r *zip.Reader) ([]string, []odfSheet, error) {
	contentFile := findZipFile(r, "content.xml")
	if contentFile == nil {
		return nil, nil, fmt.Errorf("content.xml not found in archive")
	}
	rc, err := contentFile.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open content.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var sheets []odfSheet

	var block strings.Builder
	var inBlock bool

	var tableDepth int
	var curName string
	var curRows [][]string
	var curRow []string
	var curCell strings.Builder
	var cellRepeat int

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "table":
				tableDepth++
				if tableDepth == 1 {
					curName = ""
					curRows = nil
					for _, a := range t.Attr {
						if a.Name.Local == "name" {
							curName = a.Value
						}
					}
				}
			case "table-row":
				if tableDepth == 1 {
					curRow = nil
				}
			case "table-cell":
				if tableDepth == 1 {
					curCell.Reset()
					cellRepeat = 1
					for _, a := range t.Attr {
						if a.Name.Local == "number-columns-repeated" {
							if n := atoiDefault(a.Value, 1); n > 0 && n <= 64 {
								cellRepeat = n
							}
						}
					}
				}
			case "p", "h":
				if tableDepth == 0 {
					inBlock = true
					block.Reset()
				}
			case "tab":
				if tableDepth > 0 {
					curCell.WriteByte('\t')
				} else if inBlock {
					block.WriteByte('\t')
				}
			case "s": // <text:s/> run of spaces
				if tableDepth > 0 {
					curCell.WriteByte(' ')
				} else if inBlock {
					block.WriteByte(' ')
				}
			case "line-break":
				if inBlock && tableDepth == 0 {
					block.WriteByte('\n')
				}
			}

		case xml.CharData:
			if tableDepth > 0 {
				curCell.Write(t)
			} else if inBlock {
				block.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "p", "h":
				if inBlock && tableDepth == 0 {
					inBlock = false
					if text := strings.TrimSpace(block.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
				} else if tableDepth == 1 {
					curCell.WriteByte(' ')
				}
			case "table-cell":
				if tableDepth == 1 {
					val := strings.TrimSpace(curCell.String())
					for i := 0; i < cellRepeat; i++ {
						curRow = append(curRow, val)
					}
				}
			case "table-row":
				if tableDepth == 1 && rowHasContent(curRow) {
					curRows = append(curRows, trimTrailingEmpty(curRow))
				}
			case "table":
				tableDepth--
				if tableDepth == 0 && len(curRows) > 0 {
					sheets = append(sheets, odfSheet{Name: curName, Rows: curRows})
				}
			}
		}
	}

	return paragraphs, sheets, nil
}

// applyODFMeta reads meta.xml document statistics and Dublin Core fields.
func applyODFMeta(r *zip.Reader, meta *DocumentMetadata) {
	f := findZipFile(r, "meta.xml")
	if f == nil {
		return
	}
	rc, err := f.Open()
	if err != nil {
		return
	}
	defer rc.Close()

	var raw struct {
		Meta struct {
			Title        string `xml:"title"`
			Subject      string `xml:"subject"`
			Creator      string `xml:"creator"`
			CreationDate string `xml:"creation-date"`
			Date         string `xml:"date"`
		} `xml:"meta"`
	}
	if err := xml.NewDecoder(rc).Decode(&raw); err != nil {
		return
	}
	meta.Title = raw.Meta.Title
	meta.Subject = raw.Meta.Subject
	meta.Author = raw.Meta.Creator
	meta.CreationDate = parseODFTime(raw.Meta.CreationDate)
	meta.ModificationDate = parseODFTime(raw.Meta.Date)
}

func parseODFTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func atoiDefault(s string, def int) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	if s == "" {
		return def
	}
	return n
}

func rowHasContent(row []string) bool {
	for _, c := range row {
		if c != "" {
			return true
		}
	}
	return false
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end]
}
