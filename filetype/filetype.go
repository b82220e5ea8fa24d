// Package filetype maps filenames to canonical file-type tags and MIME types.
//
// Detection is a pure function over the extension: the same filename always
// yields the same (tag, MIME) pair, and there is no error condition — an
// unknown extension simply resolves to application/octet-stream. Whether a
// tag is actually processable is a separate question answered by the
// extractor registry, not by this package.
package filetype

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

// Tag is a canonical lower-case extension tag, dot included (".pdf").
type Tag string

// mimeByTag is the static extension → MIME table. Tags not present here are
// unknown to the pipeline even if their MIME type can be sniffed.
var mimeByTag = map[Tag]string{
	// Text documents.
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".rtf":  "application/rtf",
	".odt":  "application/vnd.oasis.opendocument.text",

	// Presentations.
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odp":  "application/vnd.oasis.opendocument.presentation",

	// Spreadsheets.
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",

	// Images.
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".webp": "image/webp",

	// Web formats.
	".html": "text/html",
	".htm":  "text/html",
	".md":   "text/markdown",

	// Data formats.
	".json": "application/json",
	".xml":  "application/xml",
}

// Detect resolves a filename to its canonical tag and MIME type. The
// extension comparison is case-insensitive. Unknown extensions return their
// lower-cased extension as tag and "application/octet-stream".
func Detect(filename string) (Tag, string) {
	tag := Tag(strings.ToLower(filepath.Ext(filename)))
	if mime, ok := mimeByTag[tag]; ok {
		return tag, mime
	}
	return tag, "application/octet-stream"
}

// Known reports whether the tag appears in the static MIME table.
func Known(tag Tag) bool {
	_, ok := mimeByTag[tag]
	return ok
}

// Tags returns all tags in the static table, unordered.
func Tags() []Tag {
	out := make([]Tag, 0, len(mimeByTag))
	for t := range mimeByTag {
		out = append(out, t)
	}
	return out
}

// magic prefixes checked before handing off to http.DetectContentType,
// which does not know about office container formats.
var magicPrefixes = []struct {
	prefix []byte
	mime   string
}{
	{[]byte("%PDF-"), "application/pdf"},
	{[]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, "application/msword"}, // OLE2 compound file
	{[]byte("{\\rtf"), "application/rtf"},
}

// Sniff infers a MIME type from a file's leading bytes. It is the fallback
// used when the extension is unknown; it never fails and returns
// "application/octet-stream" when nothing matches.
func Sniff(data []byte) string {
	for _, m := range magicPrefixes {
		if bytes.HasPrefix(data, m.prefix) {
			return m.mime
		}
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}
