//go:build tesseract

// Package tesseract reads numeric regions with the Tesseract OCR engine.
// It needs libtesseract at build time and is enabled with -tags tesseract.
package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/okian/gearscan/internal/domain/recognize"
)

// Whitelist limits recognized characters to what the result screen shows.
const Whitelist = "0123456789/"

// Recognizer implements recognize.NumberRecognizer on top of one gosseract
// client. Calls are serialized.
type Recognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a recognizer for the given languages, "eng" when none are set.
func New(langs ...string) (*Recognizer, error) {
	client := gosseract.NewClient()
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetWhitelist(Whitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract page mode: %w", err)
	}
	return &Recognizer{client: client}, nil
}

// Close releases the engine.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}

func (r *Recognizer) text(region *image.RGBA) (string, error) {
	if region == nil || region.Bounds().Empty() {
		return "", recognize.ErrNotRecognized
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, region); err != nil {
		return "", fmt.Errorf("encode region: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("%w: %v", recognize.ErrNotRecognized, err)
	}
	out, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", recognize.ErrNotRecognized, err)
	}
	out = strings.Join(strings.Fields(out), "")
	if out == "" {
		return "", fmt.Errorf("%w: empty text", recognize.ErrNotRecognized)
	}
	return out, nil
}

// MatchDigits implements recognize.NumberRecognizer. Glyph size options are
// not applicable to OCR and are ignored.
func (r *Recognizer) MatchDigits(region *image.RGBA, opts ...recognize.DigitOption) (int, error) {
	o := recognize.ApplyDigitOptions(opts...)
	text, err := r.text(region)
	if err != nil {
		return 0, err
	}
	if !o.NumDigits.Contains(len(text)) {
		return 0, fmt.Errorf("%w: %d digits", recognize.ErrNotRecognized, len(text))
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q is not a number", recognize.ErrNotRecognized, text)
	}
	return v, nil
}

// Match implements recognize.NumberRecognizer.
func (r *Recognizer) Match(region *image.RGBA) (string, error) {
	return r.text(region)
}
