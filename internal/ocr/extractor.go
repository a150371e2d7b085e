package ocr

import (
	"context"
	"encoding/base64"
	"time"
)

const defaultMimeType = "image/jpeg"

// Image is an uploaded image held in memory for the duration of one request.
type Image struct {
	Data     []byte
	MimeType string
}

// DataURL encodes the image as a base64 data URL.
func (i Image) DataURL() string {
	mime := i.MimeType
	if mime == "" {
		mime = defaultMimeType
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// TextExtractor turns image bytes into plain text using one OCR backend.
// Failures are reported as *ProviderError.
type TextExtractor interface {
	ExtractText(ctx context.Context, img Image) (string, error)
	Name() string
}

// Attempt records one extractor invocation made by a Chain.
type Attempt struct {
	Provider string
	Err      error
	Duration time.Duration
}

// Result is the outcome of a successful Chain run.
type Result struct {
	Text     string
	Provider string
	Attempts []Attempt
}
