// Package translate chains unreliable third-party translation services into
// a single best-effort document translation.
//
// Text is split into bounded chunks at sentence boundaries, each chunk is
// offered to an ordered list of services, and the first success wins. When
// every service fails for a chunk, that chunk degrades to its original text
// rather than failing the document.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Service is one external translation backend. Implementations must honour
// ctx cancellation and treat any non-success response as an error; the
// orchestrator interprets every error identically (fall through to the next
// service in the chain).
type Service interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// maxResponseBytes bounds how much of a service response is read.
const maxResponseBytes = 10 * 1024 * 1024

// DefaultServices returns the built-in chain in priority order:
// LibreTranslate, then MyMemory, then Lingva. A nil client uses
// http.DefaultClient.
func DefaultServices(client *http.Client) []Service {
	return []Service{
		NewLibreTranslate(client, ""),
		NewMyMemory(client, ""),
		NewLingva(client, ""),
	}
}

// --- LibreTranslate ---

// LibreTranslate calls a LibreTranslate-compatible /translate endpoint.
type LibreTranslate struct {
	client   *http.Client
	endpoint string
}

// NewLibreTranslate builds a client for the given endpoint (default
// https://libretranslate.com/translate).
func NewLibreTranslate(client *http.Client, endpoint string) *LibreTranslate {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = "https://libretranslate.com/translate"
	}
	return &LibreTranslate{client: client, endpoint: endpoint}
}

func (s *LibreTranslate) Name() string { return "libretranslate" }

func (s *LibreTranslate) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"q":      text,
		"source": normalizeLang(sourceLang, "auto"),
		"target": normalizeLang(targetLang, "en"),
		"format": "text",
	})
	if err != nil {
		return "", fmt.Errorf("libretranslate: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("libretranslate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := doJSON(s.client, req, "libretranslate", &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", fmt.Errorf("libretranslate: empty translation")
	}
	return out.TranslatedText, nil
}

// --- MyMemory ---

// MyMemory calls the MyMemory translated.net GET API.
type MyMemory struct {
	client   *http.Client
	endpoint string
}

// NewMyMemory builds a client for the given endpoint (default
// https://api.mymemory.translated.net/get).
func NewMyMemory(client *http.Client, endpoint string) *MyMemory {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = "https://api.mymemory.translated.net/get"
	}
	return &MyMemory{client: client, endpoint: endpoint}
}

func (s *MyMemory) Name() string { return "mymemory" }

func (s *MyMemory) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	// MyMemory requires an explicit source language; "auto" is not accepted.
	src := normalizeLang(sourceLang, "en")
	tgt := normalizeLang(targetLang, "en")

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", src+"|"+tgt)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("mymemory: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out struct {
		ResponseStatus json.Number `json:"responseStatus"`
		ResponseData   struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := doJSON(s.client, req, "mymemory", &out); err != nil {
		return "", err
	}
	if out.ResponseStatus.String() != "200" {
		return "", fmt.Errorf("mymemory: response status %s", out.ResponseStatus)
	}
	if strings.TrimSpace(out.ResponseData.TranslatedText) == "" {
		return "", fmt.Errorf("mymemory: empty translation")
	}
	return out.ResponseData.TranslatedText, nil
}

// --- Lingva ---

// Lingva calls a Lingva Translate instance (a scraping front for Google
// Translate).
type Lingva struct {
	client  *http.Client
	baseURL string
}

// NewLingva builds a client for the given base URL (default
// https://lingva.ml/api/v1).
func NewLingva(client *http.Client, baseURL string) *Lingva {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = "https://lingva.ml/api/v1"
	}
	return &Lingva{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Lingva) Name() string { return "lingva" }

func (s *Lingva) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	src := normalizeLang(sourceLang, "auto")
	tgt := normalizeLang(targetLang, "en")
	u := fmt.Sprintf("%s/%s/%s/%s", s.baseURL, url.PathEscape(src), url.PathEscape(tgt), url.PathEscape(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("lingva: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var out struct {
		Translation string `json:"translation"`
	}
	if err := doJSON(s.client, req, "lingva", &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Translation) == "" {
		return "", fmt.Errorf("lingva: empty translation")
	}
	return out.Translation, nil
}

// doJSON executes the request and decodes a JSON body into out.
func doJSON(client *http.Client, req *http.Request, service string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: http %d", service, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", service, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: json decode: %w", service, err)
	}
	return nil
}

// normalizeLang lowers a language code to its ISO 639-1 base ("en-US" → "en")
// and substitutes fallback when empty.
func normalizeLang(code, fallback string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return fallback
	}
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		code = code[:idx]
	}
	return code
}
