package docpipe

import (
	"context"
	"sort"

	"github.com/hazyhaar/docforge/filetype"
)

// Extractor turns one file into ExtractedContent. Implementations recover
// their own soft failures into the returned content; an error return is
// reserved for conditions the pipeline converts into an error-tagged result.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, path, filename string) (*ExtractedContent, error)
}

// Registry maps file type tags to extractors. Registration happens during
// pipeline construction; lookups afterwards are read-only.
type Registry struct {
	extractors map[filetype.Tag]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[filetype.Tag]Extractor)}
}

// Register binds an extractor to one or more tags. A later registration for
// the same tag replaces the earlier one.
func (r *Registry) Register(e Extractor, tags ...filetype.Tag) {
	for _, t := range tags {
		r.extractors[t] = e
	}
}

func (r *Registry) Get(tag filetype.Tag) (Extractor, bool) {
	e, ok := r.extractors[tag]
	return e, ok
}

// SupportedTags returns the registered tags in sorted order.
func (r *Registry) SupportedTags() []filetype.Tag {
	tags := make([]filetype.Tag, 0, len(r.extractors))
	for t := range r.extractors {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
