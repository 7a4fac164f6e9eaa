package story

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyPrompt = errors.New("prompt must not be empty")

// Request is a single story submission.
type Request struct {
	Prompt   string `json:"prompt"`
	Category string `json:"category"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// Result is a generated story with its illustration.
type Result struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Moral    string `json:"moral"`
	ImageURL string `json:"image_url"`
}

// SpeechText is what the read-aloud action speaks.
func (r Result) SpeechText() string {
	return r.Title + ". " + r.Text + " Moral of the story: " + r.Moral
}

// ExportFilename derives the PDF file name from the title: every character
// outside [a-zA-Z0-9] becomes '_', the rest is lower-cased.
func (r Result) ExportFilename() string {
	var b strings.Builder
	for _, c := range r.Title {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c >= 'A' && c <= 'Z':
			b.WriteRune(c + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String() + ".pdf"
}

// Image decodes the embedded illustration.
func (r Result) Image() (mime string, data []byte, err error) {
	return DecodeDataURI(r.ImageURL)
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI is the inverse of DataURI. Only base64 payloads are supported.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return mime, data, nil
}
