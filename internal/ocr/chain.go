package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-medicine-lookup/internal/config"
	"go-medicine-lookup/internal/logger"
	"go-medicine-lookup/internal/upstream"

	"github.com/sirupsen/logrus"
)

// Chain tries extractors strictly in order, one at a time, and returns the
// first non-blank text.
type Chain struct {
	extractors []TextExtractor
}

// NewChain creates a fallback chain trying extractors in order
func NewChain(extractors ...TextExtractor) *Chain {
	return &Chain{extractors: extractors}
}

// Providers lists extractor names in priority order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.extractors))
	for i, e := range c.extractors {
		names[i] = e.Name()
	}
	return names
}

// Extract runs the chain. On exhaustion it returns an *ExtractionError that
// matches ErrEmptyText when every provider answered without text and
// ErrAllProvidersFailed otherwise.
func (c *Chain) Extract(ctx context.Context, img Image) (Result, error) {
	attempts := make([]Attempt, 0, len(c.extractors))
	blankOnly := true

	for _, extractor := range c.extractors {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempts}, err
		}

		start := time.Now()
		text, err := extractor.ExtractText(ctx, img)
		if err == nil && strings.TrimSpace(text) == "" {
			err = newProviderError(extractor.Name(), ErrNoText)
		}
		attempt := Attempt{Provider: extractor.Name(), Err: err, Duration: time.Since(start)}
		attempts = append(attempts, attempt)

		if err == nil {
			logger.ForComponent("ocr").WithFields(logrus.Fields{
				"provider":    extractor.Name(),
				"attempt":     len(attempts),
				"duration_ms": attempt.Duration.Milliseconds(),
				"text_length": len(text),
			}).Debug("OCR provider succeeded")
			return Result{Text: text, Provider: extractor.Name(), Attempts: attempts}, nil
		}

		if !errors.Is(err, ErrNoText) {
			blankOnly = false
		}
		logger.ForComponent("ocr").WithError(err).WithFields(logrus.Fields{
			"provider":    extractor.Name(),
			"attempt":     len(attempts),
			"duration_ms": attempt.Duration.Milliseconds(),
		}).Warn("OCR provider failed, trying next")
	}

	if ctx.Err() != nil {
		return Result{Attempts: attempts}, ctx.Err()
	}

	reason := ErrAllProvidersFailed
	if blankOnly && len(attempts) > 0 {
		reason = ErrEmptyText
	}
	return Result{Attempts: attempts}, &ExtractionError{Reason: reason, Attempts: attempts}
}

// NewExtractors builds extractors for the provider names in cfg.OCRProviders,
// preserving their order.
func NewExtractors(cfg *config.Config, client *upstream.Client) ([]TextExtractor, error) {
	extractors := make([]TextExtractor, 0, len(cfg.OCRProviders))
	for _, name := range cfg.OCRProviders {
		switch name {
		case config.ProviderOCRSpace:
			extractors = append(extractors, NewOCRSpace(client, cfg.Endpoints.OCRSpace, cfg.OCRSpaceAPIKey, cfg.OCRTimeout))
		case config.ProviderHuggingFace:
			extractors = append(extractors, NewHuggingFace(client, cfg.Endpoints.HFOCR, cfg.HFAPIKey, cfg.OCRTimeout))
		case config.ProviderTesseract:
			extractors = append(extractors, NewTesseract())
		default:
			return nil, fmt.Errorf("unknown OCR provider %q", name)
		}
	}
	return extractors, nil
}
