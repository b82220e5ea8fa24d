// Package lang infers the dominant language of extracted text.
//
// Detection runs on a bounded prefix of the input (the first 100 words) so
// that very large documents stay cheap to classify. The underlying lingua
// models are expensive to load, so the detector is built lazily on first use
// and cached for the lifetime of the process.
package lang

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minTextLen is the threshold below which detection is not attempted.
const minTextLen = 10

// sampleWords bounds how much of the text feeds the classifier.
const sampleWords = 100

// Detector classifies text into an ISO 639-1 language code.
// The zero value is ready to use; construction of the underlying models is
// deferred until the first Detect call.
type Detector struct {
	once sync.Once
	det  lingua.LanguageDetector
}

// detectionLanguages is the closed set the classifier chooses from. A
// bounded set keeps model memory predictable and detection deterministic.
var detectionLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Arabic,
	lingua.Hindi,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
}

func (d *Detector) init() {
	d.det = lingua.NewLanguageDetectorBuilder().
		FromLanguages(detectionLanguages...).
		Build()
}

// Detect returns the lower-case ISO 639-1 code of the dominant language, or
// "" when the text is too short or the classification is ambiguous. It
// never fails: unclassifiable input is an empty result, not an error.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < minTextLen {
		return ""
	}

	words := strings.Fields(text)
	if len(words) > sampleWords {
		words = words[:sampleWords]
	}
	sample := strings.Join(words, " ")

	d.once.Do(d.init)

	language, ok := d.det.DetectLanguageOf(sample)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
