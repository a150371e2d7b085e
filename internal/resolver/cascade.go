// Package resolver answers "what is this medicine" from an ordered list of
// information sources.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-medicine-lookup/internal/logger"

	"github.com/sirupsen/logrus"
)

// ErrNoResult means a source answered but had nothing for the name.
var ErrNoResult = errors.New("no result")

// ResolvedInfo is the answer of exactly one source.
type ResolvedInfo struct {
	Source Source          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

// Attempt records one absorbed source miss or failure.
type Attempt struct {
	Source   Source
	Err      error
	Duration time.Duration
}

// NotFoundError is returned once every source came up empty.
type NotFoundError struct {
	Name     string
	Attempts []Attempt
}

func (e *NotFoundError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Source, a.Err))
	}
	return fmt.Sprintf("no information found for %q (%s)", e.Name, strings.Join(parts, "; "))
}

// Cascade tries sources in order and stops at the first one with data.
type Cascade struct {
	sources []InfoSource
}

// NewCascade creates a cascade trying sources in the given order
func NewCascade(sources ...InfoSource) *Cascade {
	return &Cascade{sources: sources}
}

// Sources lists source names in priority order.
func (c *Cascade) Sources() []Source {
	names := make([]Source, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the first source answer for name. Source errors are
// absorbed and logged; only exhaustion or cancellation is returned.
func (c *Cascade) Resolve(ctx context.Context, name string) (ResolvedInfo, error) {
	name = strings.TrimSpace(name)
	attempts := make([]Attempt, 0, len(c.sources))

	for _, source := range c.sources {
		if err := ctx.Err(); err != nil {
			return ResolvedInfo{}, err
		}

		start := time.Now()
		data, err := source.Lookup(ctx, name)
		if err == nil && len(data) == 0 {
			err = ErrNoResult
		}
		elapsed := time.Since(start)

		if err == nil {
			logger.ForComponent("resolver").WithFields(logrus.Fields{
				"source":      source.Name(),
				"name":        name,
				"duration_ms": elapsed.Milliseconds(),
			}).Debug("Source answered")
			return ResolvedInfo{Source: source.Name(), Data: data}, nil
		}

		attempts = append(attempts, Attempt{Source: source.Name(), Err: err, Duration: elapsed})
		entry := logger.ForComponent("resolver").WithFields(logrus.Fields{
			"source":      source.Name(),
			"name":        name,
			"duration_ms": elapsed.Milliseconds(),
		})
		if errors.Is(err, ErrNoResult) {
			entry.Debug("Source had no result")
		} else {
			entry.WithError(err).Warn("Source lookup failed, trying next")
		}
	}

	if err := ctx.Err(); err != nil {
		return ResolvedInfo{}, err
	}
	return ResolvedInfo{}, &NotFoundError{Name: name, Attempts: attempts}
}
