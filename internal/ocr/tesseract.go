//go:build tesseract

package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs OCR locally through libtesseract. Build with -tags tesseract.
type Tesseract struct {
	language string
}

// NewTesseract creates a local OCR extractor
func NewTesseract() *Tesseract {
	return &Tesseract{language: "eng"}
}

func (t *Tesseract) Name() string {
	return "tesseract"
}

func (t *Tesseract) ExtractText(ctx context.Context, img Image) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	// gosseract calls are not cancellable; the goroutine finishes on its own
	// and the buffered channel lets it exit after a timeout.
	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetLanguage(t.language); err != nil {
			done <- outcome{err: err}
			return
		}
		if err := client.SetImageFromBytes(img.Data); err != nil {
			done <- outcome{err: err}
			return
		}
		text, err := client.Text()
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", newProviderError(t.Name(), ctx.Err())
	case out := <-done:
		if out.err != nil {
			return "", newProviderError(t.Name(), out.err)
		}
		if strings.TrimSpace(out.text) == "" {
			return "", newProviderError(t.Name(), ErrNoText)
		}
		return out.text, nil
	}
}
