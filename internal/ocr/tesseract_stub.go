//go:build !tesseract

package ocr

import (
	"context"
	"errors"
)

// Tesseract is unavailable in builds without the tesseract tag; every call
// fails so a chain simply moves on to its next provider.
type Tesseract struct{}

// NewTesseract creates a placeholder that reports local OCR as unavailable
func NewTesseract() *Tesseract {
	return &Tesseract{}
}

func (t *Tesseract) Name() string {
	return "tesseract"
}

func (t *Tesseract) ExtractText(ctx context.Context, img Image) (string, error) {
	return "", newProviderError(t.Name(), errors.New("binary built without tesseract support (use -tags tesseract)"))
}
