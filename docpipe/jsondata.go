package docpipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// jsonExtractor flattens a JSON document into "path: value" lines in
// document order and keeps a pretty-printed rendition as raw content.
type jsonExtractor struct{}

func (jsonExtractor) Name() string { return "json" }

func (jsonExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	var lines []string
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := flattenJSON(dec, "", &lines); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	var pretty bytes.Buffer
	raw := string(data)
	if err := json.Indent(&pretty, data, "", "  "); err == nil {
		raw = pretty.String()
	}

	return &ExtractedContent{
		Text:             strings.Join(lines, "\n"),
		RawContent:       raw,
		ProcessingMethod: MethodJSON,
	}, nil
}

// flattenJSON consumes one value from the decoder, emitting leaf lines with
// dotted key paths. Token streaming preserves object key order.
func flattenJSON(dec *json.Decoder, prefix string, lines *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				childPath := key
				if prefix != "" {
					childPath = prefix + "." + key
				}
				if err := flattenJSON(dec, childPath, lines); err != nil {
					return err
				}
			}
			_, err = dec.Token() // consume '}'
			return err
		case '[':
			idx := 0
			for dec.More() {
				childPath := prefix + "[" + strconv.Itoa(idx) + "]"
				if err := flattenJSON(dec, childPath, lines); err != nil {
					return err
				}
				idx++
			}
			_, err = dec.Token() // consume ']'
			return err
		}
	case string:
		appendJSONLeaf(lines, prefix, t)
	case json.Number:
		appendJSONLeaf(lines, prefix, t.String())
	case bool:
		appendJSONLeaf(lines, prefix, strconv.FormatBool(t))
	case nil:
		appendJSONLeaf(lines, prefix, "null")
	}
	return nil
}

func appendJSONLeaf(lines *[]string, path, value string) {
	if path == "" {
		*lines = append(*lines, value)
		return
	}
	*lines = append(*lines, path+": "+value)
}
