package docpipe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/docforge/filetype"
	"github.com/hazyhaar/docforge/lang"
	"github.com/hazyhaar/docforge/observability"
	"github.com/hazyhaar/docforge/ocr"
)

// Pipeline routes files through format detection, per-format extraction,
// and result finalization. One Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg        Config
	logger     *slog.Logger
	registry   *Registry
	detector   *lang.Detector
	recognizer *ocr.Recognizer
	events     *observability.EventLog
}

// New builds a pipeline with every supported extractor registered.
func New(cfg Config) (*Pipeline, error) {
	cfg.defaults()

	p := &Pipeline{
		cfg:        cfg,
		logger:     cfg.Logger,
		registry:   NewRegistry(),
		detector:   &lang.Detector{},
		recognizer: ocr.NewRecognizer(cfg.OCR),
	}

	if cfg.EventDB != "" {
		events, err := observability.Open(cfg.EventDB, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("docpipe: open event log: %w", err)
		}
		p.events = events
	}

	p.registry.Register(textExtractor{}, ".txt")
	p.registry.Register(rtfExtractor{}, ".rtf")
	p.registry.Register(newHTMLExtractor(), ".html", ".htm")
	p.registry.Register(newMarkdownExtractor(), ".md")
	p.registry.Register(jsonExtractor{}, ".json")
	p.registry.Register(xmlExtractor{}, ".xml")
	p.registry.Register(wordExtractor{}, ".doc", ".docx")
	p.registry.Register(odtExtractor{}, ".odt")
	p.registry.Register(slidesExtractor{}, ".ppt", ".pptx", ".odp")
	p.registry.Register(sheetExtractor{}, ".xls", ".xlsx", ".csv", ".ods")
	p.registry.Register(&pdfExtractor{recognizer: p.recognizer, logger: cfg.Logger}, ".pdf")
	p.registry.Register(&imageExtractor{recognizer: p.recognizer},
		".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".gif", ".webp")

	return p, nil
}

// Close releases the event log. The pipeline stays usable for extraction
// afterwards; events are simply dropped.
func (p *Pipeline) Close() error {
	if p.events == nil {
		return nil
	}
	return p.events.Close()
}

// SupportedTags lists the registered file type tags in sorted order.
func (p *Pipeline) SupportedTags() []filetype.Tag {
	return p.registry.SupportedTags()
}

// IsSupported reports whether files with the given tag can be extracted.
func (p *Pipeline) IsSupported(tag filetype.Tag) bool {
	_, ok := p.registry.Get(tag)
	return ok
}

// Detect identifies a file's type. The extension decides; when it maps to
// no known tag the MIME type comes from sniffing the leading bytes.
func (p *Pipeline) Detect(path string) (filetype.Tag, string) {
	tag, mime := filetype.Detect(filepath.Base(path))
	if filetype.Known(tag) {
		return tag, mime
	}
	f, err := os.Open(path)
	if err != nil {
		return tag, mime
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := io.ReadFull(f, buf)
	return tag, filetype.Sniff(buf[:n])
}

// Extract runs one file through the pipeline. Hard errors (missing file,
// oversize file, unsupported format) come back as typed errors; extraction
// failures degrade into an error-tagged result with a nil error.
func (p *Pipeline) Extract(ctx context.Context, path string) (*ExtractedContent, error) {
	start := time.Now()
	filename := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrNotFound{Path: path, Err: err}
		}
		return nil, fmt.Errorf("docpipe: stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, &ErrFileTooLarge{Path: path, Size: info.Size(), Max: p.cfg.MaxFileSize}
	}

	tag, mime := filetype.Detect(filename)
	extractor, ok := p.registry.Get(tag)
	if !ok {
		return nil, &ErrUnsupportedFormat{Tag: tag, Supported: p.registry.SupportedTags()}
	}

	content := p.runExtractor(ctx, extractor, path, filename)
	content.Metadata.Filename = filename
	content.Metadata.FileType = tag
	content.Metadata.MIMEType = mime
	content.Metadata.FileSize = info.Size()
	p.finalize(content)

	duration := time.Since(start)
	p.logger.Info("extracted",
		"file", filename,
		"type", string(tag),
		"method", content.ProcessingMethod,
		"failed", content.Failed(),
		"duration", duration)
	p.events.Record(ctx, observability.ExtractionEvent{
		Filename:   filename,
		FileType:   string(tag),
		Method:     content.ProcessingMethod,
		Success:    !content.Failed(),
		ErrorCount: len(content.Errors),
		DurationMs: duration.Milliseconds(),
	})
	return content, nil
}

// runExtractor dispatches to the extractor, converting errors and panics
// into error-tagged content.
func (p *Pipeline) runExtractor(ctx context.Context, e Extractor, path, filename string) (content *ExtractedContent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("extractor panic", "extractor", e.Name(), "file", filename, "panic", r)
			content = failedContent(fmt.Sprintf("internal error while processing %s", filename))
		}
	}()

	content, err := e.Extract(ctx, path, filename)
	if err != nil {
		p.logger.Warn("extraction failed", "extractor", e.Name(), "file", filename, "error", err)
		return failedContent(err.Error())
	}
	if content == nil {
		return failedContent(fmt.Sprintf("no content produced for %s", filename))
	}
	return content
}

// failedContent builds the soft failure rendition: the message doubles as
// the text under an Error: marker so legacy consumers of the text field see
// the failure too.
func failedContent(msg string) *ExtractedContent {
	return &ExtractedContent{
		Text:             "Error: " + msg,
		ProcessingMethod: "failed",
		Errors:           []string{msg},
		Failure:          &Failure{Kind: FailureExtraction, Message: msg},
	}
}

// finalize fills in the derived metadata fields.
func (p *Pipeline) finalize(content *ExtractedContent) {
	text := content.Text
	content.Metadata.WordCount = len(strings.Fields(text))
	content.Metadata.CharacterCount = utf8.RuneCountInString(text)
	if !content.Failed() {
		content.Metadata.Language = p.detector.Detect(text)
	}
}

// BatchResult aggregates one batch call.
type BatchResult struct {
	Results   []*ExtractedContent `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// ExtractBatch processes several files. The size cap is enforced before any
// file is touched; after that, per-file failures (including the hard errors
// Extract would return) become error-tagged results and never abort the
// batch.
func (p *Pipeline) ExtractBatch(ctx context.Context, paths []string) (*BatchResult, error) {
	if len(paths) > p.cfg.MaxBatchSize {
		return nil, &ErrBatchTooLarge{Count: len(paths), Max: p.cfg.MaxBatchSize}
	}

	res := &BatchResult{Results: make([]*ExtractedContent, 0, len(paths))}
	for _, path := range paths {
		start := time.Now()
		content, err := p.Extract(ctx, path)
		if err != nil {
			content = failedContent(err.Error())
			content.Metadata.Filename = filepath.Base(path)
			tag, mime := filetype.Detect(content.Metadata.Filename)
			content.Metadata.FileType = tag
			content.Metadata.MIMEType = mime
			p.finalize(content)
			p.events.Record(ctx, observability.ExtractionEvent{
				Filename:   content.Metadata.Filename,
				FileType:   string(tag),
				Method:     content.ProcessingMethod,
				Success:    false,
				ErrorCount: len(content.Errors),
				DurationMs: time.Since(start).Milliseconds(),
			})
		}
		res.Results = append(res.Results, content)
		if content.Failed() {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}
	return res, nil
}
