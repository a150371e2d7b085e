// Package summarizer shortens long label text by summarizing fixed windows
// and stitching the results back together in order.
package summarizer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go-medicine-lookup/internal/logger"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	ChunkSize    = 900
	ChunkOverlap = 100
	// MinLength is the shortest input worth sending to the model.
	MinLength = 50
)

// Chunk is one window and what became of it.
type Chunk struct {
	Text     string `json:"text"`
	Summary  string `json:"summary"`
	Fallback bool   `json:"fallback"`
}

type Result struct {
	Summary string  `json:"summary"`
	Chunks  []Chunk `json:"chunks,omitempty"`
}

// CallCount is the number of model calls the result cost.
func (r Result) CallCount() int {
	return len(r.Chunks)
}

// FallbackCount is the number of windows kept verbatim.
func (r Result) FallbackCount() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Fallback {
			n++
		}
	}
	return n
}

type Summarizer struct {
	model       Model
	concurrency int
	interval    time.Duration
}

type Option func(*Summarizer)

// WithConcurrency sets how many windows are summarized at once.
func WithConcurrency(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRateInterval spaces model calls at least d apart. Zero disables pacing.
func WithRateInterval(d time.Duration) Option {
	return func(s *Summarizer) { s.interval = d }
}

// New creates a summarizer for model
func New(model Model, opts ...Option) *Summarizer {
	s := &Summarizer{model: model, concurrency: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize trims text and, when it is long enough, summarizes each window.
// A window whose call fails is kept verbatim, so the only error returned is
// a context error.
func (s *Summarizer) Summarize(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinLength {
		return Result{Summary: text}, nil
	}

	windows := Split(text, ChunkSize, ChunkOverlap)
	chunks := make([]Chunk, len(windows))

	var limiter *rate.Limiter
	if s.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.interval), 1)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)

	for i, window := range windows {
		i, window := i, window
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return err
				}
			}
			chunks[i] = s.summarizeChunk(egCtx, i, window)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Summary
	}
	return Result{Summary: strings.Join(parts, " "), Chunks: chunks}, nil
}

func (s *Summarizer) summarizeChunk(ctx context.Context, index int, window string) Chunk {
	start := time.Now()
	summary, err := s.model.Summarize(ctx, window)
	if err != nil {
		logger.ForComponent("summarizer").WithError(err).WithFields(logrus.Fields{
			"chunk":       index,
			"chunk_chars": utf8.RuneCountInString(window),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Warn("Chunk summarization failed, keeping original text")
		return Chunk{Text: window, Summary: window, Fallback: true}
	}
	return Chunk{Text: window, Summary: summary}
}
