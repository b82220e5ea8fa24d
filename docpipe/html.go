package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlExtractor renders HTML to plain text, lifts <table> elements into
// structured tables, and keeps a sanitized Markdown rendition as the raw
// content.
type htmlExtractor struct {
	sanitizer *bluemonday.Policy
}

func newHTMLExtractor() *htmlExtractor {
	return &htmlExtractor{sanitizer: bluemonday.UGCPolicy()}
}

func (*htmlExtractor) Name() string { return "html" }

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0[^1-9]`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0[^.]`),
}

func hasHiddenStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "style" {
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

func (e *htmlExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	var blocks []string
	var tables []Table
	walkHTMLBlocks(doc, &blocks, &tables)

	text := strings.Join(blocks, "\n\n")
	if strings.TrimSpace(text) == "" {
		text = collectHTMLText(doc)
	}

	raw := ""
	if md, err := htmltomarkdown.ConvertString(string(e.sanitizer.SanitizeBytes(data))); err == nil {
		raw = strings.TrimSpace(md)
	}

	content := &ExtractedContent{
		Text:             text,
		Tables:           tables,
		RawContent:       raw,
		ProcessingMethod: MethodHTML,
	}
	content.Metadata.Title = findHTMLTitle(doc)
	return content, nil
}

func findHTMLTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findHTMLTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// walkHTMLBlocks walks the DOM tree collecting readable blocks and tables.
func walkHTMLBlocks(n *html.Node, blocks *[]string, tables *[]Table) {
	if n.Type == html.ElementNode {
		// Skip boilerplate.
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
			return
		}
		if hasHiddenStyle(n) {
			return
		}

		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.P, atom.Li, atom.Blockquote, atom.Pre:
			if text := collectHTMLText(n); text != "" {
				*blocks = append(*blocks, text)
			}
			return

		case atom.Table:
			if t, ok := htmlTable(n); ok {
				*tables = append(*tables, t)
				if text := collectHTMLText(n); text != "" {
					*blocks = append(*blocks, text)
				}
				return
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTMLBlocks(c, blocks, tables)
	}
}

// htmlTable converts a <table> element. The first row of <th> cells, or the
// first row when none, becomes the header.
func htmlTable(n *html.Node) (Table, bool) {
	var rows [][]string
	var headers []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			isHeader := false
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					cells = append(cells, collectHTMLText(c))
					if c.DataAtom == atom.Th {
						isHeader = true
					}
				}
			}
			if len(cells) > 0 {
				if isHeader && headers == nil && len(rows) == 0 {
					headers = cells
				} else {
					rows = append(rows, cells)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	if headers == nil && len(rows) > 1 {
		headers, rows = rows[0], rows[1:]
	}
	if len(headers) == 0 && len(rows) == 0 {
		return Table{}, false
	}
	return normalizeTable(Table{Headers: headers, Rows: rows}), true
}

// collectHTMLText extracts all visible text from a node subtree.
func collectHTMLText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
			if hasHiddenStyle(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
