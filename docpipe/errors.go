package docpipe

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/docforge/filetype"
)

// ErrNotFound reports a missing input file.
type ErrNotFound struct {
	Path string
	Err  error
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("docpipe: file not found: %s", e.Path)
}

func (e *ErrNotFound) Unwrap() error { return e.Err }

// ErrUnsupportedFormat reports a file whose extension maps to no registered
// extractor. The message enumerates the supported tags.
type ErrUnsupportedFormat struct {
	Tag       filetype.Tag
	Supported []filetype.Tag
}

func (e *ErrUnsupportedFormat) Error() string {
	tags := make([]string, len(e.Supported))
	for i, t := range e.Supported {
		tags[i] = string(t)
	}
	return fmt.Sprintf("docpipe: unsupported format %q, supported: %s", e.Tag, strings.Join(tags, ", "))
}

// ErrFileTooLarge reports an input exceeding the configured size ceiling.
type ErrFileTooLarge struct {
	Path string
	Size int64
	Max  int64
}

func (e *ErrFileTooLarge) Error() string {
	return fmt.Sprintf("docpipe: %s is %d bytes, limit is %d", e.Path, e.Size, e.Max)
}

// ErrBatchTooLarge reports a batch request exceeding the configured cap.
// It is raised before any file in the batch is touched.
type ErrBatchTooLarge struct {
	Count int
	Max   int
}

func (e *ErrBatchTooLarge) Error() string {
	return fmt.Sprintf("docpipe: batch of %d files exceeds limit of %d", e.Count, e.Max)
}
