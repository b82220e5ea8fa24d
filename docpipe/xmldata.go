package docpipe

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// xmlExtractor flattens an XML document into "path: value" lines (elements
// as dot paths, attributes as path@name) and keeps the source as raw
// content.
type xmlExtractor struct{}

func (xmlExtractor) Name() string { return "xml" }

func (xmlExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	lines, err := flattenXML(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	return &ExtractedContent{
		Text:             strings.Join(lines, "\n"),
		RawContent:       string(data),
		ProcessingMethod: MethodXML,
	}, nil
}

func flattenXML(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var lines []string
	var stack []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			elemPath := strings.Join(stack, ".")
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				lines = append(lines, elemPath+"@"+a.Name.Local+": "+a.Value)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text != "" && len(stack) > 0 {
				lines = append(lines, strings.Join(stack, ".")+": "+text)
			}
		}
	}
	return lines, nil
}
