package translate

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Config configures the translation orchestrator.
type Config struct {
	// MaxChunkChars bounds each chunk handed to a service (default 4500,
	// under the 5000-char ceiling common to public translation APIs).
	MaxChunkChars int `json:"max_chunk_chars" yaml:"max_chunk_chars"`

	// CallTimeout is the per-service-call timeout (default 10s). A timeout
	// is treated identically to any other service failure.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// Logger for per-chunk fallthrough warnings.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxChunkChars <= 0 {
		c.MaxChunkChars = 4500
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result is the document-level translation outcome. Success stays true even
// when some chunks degraded to their original text; callers that need to
// detect partial translation inspect DegradedChunks.
type Result struct {
	TranslatedText string `json:"translated_text"`
	Service        string `json:"service"`
	Success        bool   `json:"success"`
	ChunkCount     int    `json:"chunk_count"`
	DegradedChunks int    `json:"degraded_chunks"`
}

// Orchestrator chains translation services in a fixed priority order.
type Orchestrator struct {
	cfg      Config
	services []Service
	logger   *slog.Logger
}

// NewOrchestrator builds an orchestrator over the given services, tried in
// argument order. With no services, every chunk degrades to original text.
func NewOrchestrator(cfg Config, services ...Service) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		cfg:      cfg,
		services: services,
		logger:   cfg.Logger,
	}
}

// Translate converts text from sourceLang to targetLang. It never returns an
// error: a chunk for which every service fails keeps its original text, and
// the aggregate result still reports Success=true. Cancelling ctx stops
// service calls; remaining chunks fall back to original text.
func (o *Orchestrator) Translate(ctx context.Context, text, sourceLang, targetLang string) Result {
	chunks := Split(text, o.cfg.MaxChunkChars)
	if len(chunks) == 0 {
		return Result{TranslatedText: "", Service: "none", Success: true}
	}

	out := make([]string, len(chunks))
	used := map[string]bool{}
	degraded := 0

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			// Caller gave up: original text for everything not yet done.
			out[i] = chunk
			degraded++
			continue
		}

		translated, service := o.translateChunk(ctx, chunk, sourceLang, targetLang)
		if service == "" {
			out[i] = chunk
			degraded++
			continue
		}
		out[i] = translated
		used[service] = true
	}

	return Result{
		TranslatedText: strings.Join(out, "\n\n"),
		Service:        serviceLabel(used),
		Success:        true,
		ChunkCount:     len(chunks),
		DegradedChunks: degraded,
	}
}

// translateChunk tries each service once, in priority order, with a per-call
// timeout. Returns the translation and the service name, or "" when the
// whole chain failed.
func (o *Orchestrator) translateChunk(ctx context.Context, chunk, sourceLang, targetLang string) (string, string) {
	for _, svc := range o.services {
		if ctx.Err() != nil {
			return "", ""
		}

		callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
		translated, err := svc.Translate(callCtx, chunk, sourceLang, targetLang)
		cancel()

		if err == nil {
			return translated, svc.Name()
		}

		o.logger.WarnContext(ctx, "translation service failed, trying next",
			"service", svc.Name(),
			"error", err)
	}
	return "", ""
}

func serviceLabel(used map[string]bool) string {
	if len(used) == 0 {
		return "none"
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
