package ocr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllProvidersFailed is returned when every configured extractor failed.
	ErrAllProvidersFailed = errors.New("all OCR providers failed")

	// ErrEmptyText is returned when providers answered but produced only whitespace.
	ErrEmptyText = errors.New("no text extracted from image")

	// ErrNoText marks a provider response that lacked a usable text field.
	ErrNoText = errors.New("provider response contains no text")
)

// ProviderError wraps a single extractor failure. It drives fallback and is
// never returned to callers on its own.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ocr provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// ExtractionError is the terminal error of a Chain. It matches ErrEmptyText or
// ErrAllProvidersFailed with errors.Is and keeps every attempt for logging.
type ExtractionError struct {
	Reason   error
	Attempts []Attempt
}

func (e *ExtractionError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	if len(parts) == 0 {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%v (%s)", e.Reason, strings.Join(parts, "; "))
}

func (e *ExtractionError) Unwrap() error {
	return e.Reason
}
