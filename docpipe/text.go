package docpipe

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// textExtractor reads plain text files, walking a fixed ladder of encodings
// until one decodes cleanly.
type textExtractor struct{}

func (textExtractor) Name() string { return "text" }

// decodeLadder is tried in order. UTF-8 is checked directly; the single-byte
// charmaps never fail, so cp1252 acts as the terminal fallback.
var decodeLadder = []struct {
	name string
	enc  *charmap.Charmap
}{
	{"latin-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
}

// decodeText converts raw bytes to a UTF-8 string, reporting which encoding
// matched.
func decodeText(data []byte) (string, string, error) {
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}
	var lastErr error
	for _, step := range decodeLadder {
		dec := step.enc.NewDecoder()
		out, err := decodeAll(dec, data)
		if err == nil {
			return out, step.name, nil
		}
		lastErr = err
	}
	return "", "", fmt.Errorf("no encoding matched: %w", lastErr)
}

func decodeAll(dec *encoding.Decoder, data []byte) (string, error) {
	out, err := dec.Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (textExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	text, _, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return &ExtractedContent{
		Text:             text,
		ProcessingMethod: MethodText,
	}, nil
}
