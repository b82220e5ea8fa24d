package docpipe

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// rtfExtractor strips RTF control words down to the document text. It
// handles the common escapes (\'hh hex bytes, \uN unicode, \par paragraph
// breaks) and skips non-text destination groups like fonttbl and pict.
type rtfExtractor struct{}

func (rtfExtractor) Name() string { return "rtf" }

var rtfSkipGroups = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"object":     true,
	"header":     true,
	"footer":     true,
	"themedata":  true,
	"datastore":  true,
}

func stripRTF(data []byte) string {
	var b strings.Builder
	skipDepth := 0 // nesting depth inside a skipped group, 0 = not skipping
	depth := 0
	i := 0
	for i < len(data) {
		c := data[i]
		switch c {
		case '{':
			depth++
			i++
		case '}':
			if skipDepth > 0 && depth <= skipDepth {
				skipDepth = 0
			}
			depth--
			i++
		case '\\':
			i++
			if i >= len(data) {
				break
			}
			switch {
			case data[i] == '\'':
				// Hex-escaped byte; treated as cp1252 text.
				if i+2 < len(data) {
					if n, err := strconv.ParseUint(string(data[i+1:i+3]), 16, 8); err == nil && skipDepth == 0 {
						b.WriteRune(rune(n))
					}
					i += 3
				} else {
					i = len(data)
				}
			case data[i] == '\\' || data[i] == '{' || data[i] == '}':
				if skipDepth == 0 {
					b.WriteByte(data[i])
				}
				i++
			case data[i] == '*':
				// \* introduces an ignorable destination.
				if skipDepth == 0 {
					skipDepth = depth
				}
				i++
			case isRTFLetter(data[i]):
				start := i
				for i < len(data) && isRTFLetter(data[i]) {
					i++
				}
				word := string(data[start:i])
				neg := false
				if i < len(data) && data[i] == '-' {
					neg = true
					i++
				}
				numStart := i
				for i < len(data) && data[i] >= '0' && data[i] <= '9' {
					i++
				}
				num := string(data[numStart:i])
				// A single space after a control word is part of it.
				if i < len(data) && data[i] == ' ' {
					i++
				}
				if skipDepth == 0 {
					switch word {
					case "par", "line", "sect", "page":
						b.WriteByte('\n')
					case "tab", "cell":
						b.WriteByte('\t')
					case "row":
						b.WriteByte('\n')
					case "u":
						if n, err := strconv.Atoi(num); err == nil {
							if neg {
								n = 65536 + (-n % 65536)
							}
							b.WriteRune(rune(n))
							// Skip the replacement character that follows \uN.
							if i < len(data) && data[i] == '?' {
								i++
							}
						}
					default:
						if rtfSkipGroups[word] {
							skipDepth = depth
						}
					}
				}
			default:
				i++
			}
		case '\r', '\n':
			i++
		default:
			if skipDepth == 0 {
				b.WriteByte(c)
			}
			i++
		}
	}
	return normalizeBlankLines(b.String())
}

func isRTFLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// normalizeBlankLines collapses runs of three or more newlines to two and
// trims the result.
func normalizeBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}

func (rtfExtractor) Extract(ctx context.Context, path, filename string) (*ExtractedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if !strings.HasPrefix(string(data[:min(len(data), 5)]), `{\rtf`) {
		return nil, fmt.Errorf("%s is not an RTF document", filename)
	}
	return &ExtractedContent{
		Text:             stripRTF(data),
		ProcessingMethod: MethodRTF,
	}, nil
}
