// Package ocr performs script-aware text recognition on images.
//
// A primary engine (Tesseract with a default language profile) always runs;
// when an alternative engine is configured, its output is preferred when the
// primary pass produced no text, or when it is both longer and contains the
// alternative script's characteristic Unicode range. Confidence is the mean
// of the primary engine's per-token
// scores, falling back to a fixed default when the engine reports none, and
// is always clamped to [0, 100].
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// DefaultConfidence is used when an engine returns no per-token scores.
const DefaultConfidence = 50.0

// Output is a single engine pass over one image.
type Output struct {
	Text string
	// WordConfidences are per-token scores in [0, 100].
	WordConfidences []float64
}

// Engine is one OCR backend: one image in, one output out. Engines are
// external black boxes; callers must not assume any accuracy, latency, or
// failure behaviour.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte, languages []string) (Output, error)
}

// Config configures a Recognizer.
type Config struct {
	// Languages is the primary recognition profile (default ["eng"]).
	Languages []string `json:"languages" yaml:"languages"`

	// AltLanguages is the alternative script profile (default ["hin","eng"],
	// the Devanagari trained data). Empty disables the secondary pass.
	AltLanguages []string `json:"alt_languages" yaml:"alt_languages"`

	// Logger for per-pass debug messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	}
	if c.AltLanguages == nil {
		c.AltLanguages = []string{"hin", "eng"}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result is the outcome of recognizing one image (or one document).
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Engine     string  `json:"engine"`
	// Warning is set when recognition succeeded but found no text. This is
	// a valid terminal state, distinct from an engine failure.
	Warning string `json:"warning,omitempty"`
}

// Recognizer runs the primary/alternative engine pair. Engine handles are
// created once and reused; construction is cheap, the engines lazily load
// their trained data on first use.
type Recognizer struct {
	cfg         Config
	primary     Engine
	alternative Engine
	logger      *slog.Logger
}

// NewRecognizer builds a recognizer with Tesseract engines for both
// profiles.
func NewRecognizer(cfg Config) *Recognizer {
	cfg.defaults()
	var alt Engine
	if len(cfg.AltLanguages) > 0 {
		alt = NewTesseractEngine()
	}
	return NewRecognizerWithEngines(cfg, NewTesseractEngine(), alt)
}

// NewRecognizerWithEngines builds a recognizer over explicit engines.
// alternative may be nil to disable the secondary pass.
func NewRecognizerWithEngines(cfg Config, primary, alternative Engine) *Recognizer {
	cfg.defaults()
	return &Recognizer{
		cfg:         cfg,
		primary:     primary,
		alternative: alternative,
		logger:      cfg.Logger,
	}
}

// Recognize runs the dual-engine pass over a single image. An empty result
// after trimming returns a Warning, not an error; an error is returned only
// when every engine pass failed outright.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (Result, error) {
	priOut, priErr := r.primary.Recognize(ctx, image, r.cfg.Languages)
	if priErr != nil {
		r.logger.WarnContext(ctx, "primary ocr pass failed",
			"engine", r.primary.Name(),
			"error", priErr)
	}

	text := strings.TrimSpace(priOut.Text)
	confs := priOut.WordConfidences
	engine := r.primary.Name()

	if r.alternative != nil && ctx.Err() == nil {
		altOut, altErr := r.alternative.Recognize(ctx, image, r.cfg.AltLanguages)
		if altErr != nil {
			r.logger.DebugContext(ctx, "alternative ocr pass failed",
				"engine", r.alternative.Name(),
				"error", altErr)
		} else if alt := strings.TrimSpace(altOut.Text); alt != "" && (text == "" || preferAlternative(text, alt)) {
			text = alt
			engine = r.alternative.Name() + ":" + strings.Join(r.cfg.AltLanguages, "+")
			if len(confs) == 0 {
				confs = altOut.WordConfidences
			}
		}
		if priErr != nil && altErr == nil {
			priErr = nil
		}
	}

	if priErr != nil && text == "" {
		return Result{}, fmt.Errorf("ocr: %s: %w", r.primary.Name(), priErr)
	}

	res := Result{
		Text:       text,
		Confidence: clampConfidence(meanConfidence(confs)),
		Engine:     engine,
	}
	if res.Text == "" {
		res.Warning = "no text detected"
	}
	return res, nil
}

// preferAlternative decides whether the alternative profile's output should
// replace the primary's: it must be strictly longer and actually contain
// the alternative script (Devanagari).
func preferAlternative(primary, alternative string) bool {
	if len(alternative) <= len(primary) {
		return false
	}
	return containsDevanagari(alternative)
}

func containsDevanagari(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return true
		}
	}
	return false
}

func meanConfidence(confs []float64) float64 {
	if len(confs) == 0 {
		return DefaultConfidence
	}
	var sum float64
	for _, c := range confs {
		sum += c
	}
	return sum / float64(len(confs))
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
