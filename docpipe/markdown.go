package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// markdownExtractor renders Markdown through goldmark and flattens the
// resulting HTML to plain text. The original Markdown source is kept as the
// raw content. Pipe tables are extracted as structured tables.
type markdownExtractor struct {
	md goldmark.Markdown
}

func newMarkdownExtractor() *markdownExtractor {
	return &markdownExtractor{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (*markdownExtractor) Name() string { return "markdown" }

func (e *markdownExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	source, _, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	var rendered bytes.Buffer
	if err := e.md.Convert([]byte(source), &rendered); err != nil {
		return nil, fmt.Errorf("render %s: %w", filename, err)
	}

	doc, err := html.Parse(&rendered)
	if err != nil {
		return nil, fmt.Errorf("flatten %s: %w", filename, err)
	}
	var blocks []string
	var tables []Table
	walkHTMLBlocks(doc, &blocks, &tables)
	text := strings.Join(blocks, "\n\n")
	if strings.TrimSpace(text) == "" {
		text = collectHTMLText(doc)
	}

	return &ExtractedContent{
		Text:             text,
		Tables:           tables,
		RawContent:       source,
		ProcessingMethod: MethodMarkdown,
	}, nil
}
