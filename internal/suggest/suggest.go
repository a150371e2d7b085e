// Package suggest offers brand-name completions from the drug-label registry.
package suggest

import (
	"context"
	"encoding/json"
	"strings"

	"go-medicine-lookup/internal/logger"
	"go-medicine-lookup/internal/registry"

	"github.com/sirupsen/logrus"
)

// DefaultLimit is the number of suggestions requested per prefix.
const DefaultLimit = 5

// Searcher is the part of the registry client suggestions need.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]json.RawMessage, error)
}

// Service serves suggestions from a Searcher
type Service struct {
	registry Searcher
	limit    int
}

// NewService creates a suggestion service with the default limit
func NewService(searcher Searcher) *Service {
	return &Service{
		registry: searcher,
		limit:    DefaultLimit,
	}
}

// Suggest returns up to five brand names starting with prefix, in registry
// order. It never fails: blank input and any upstream error yield an empty
// list.
func (s *Service) Suggest(ctx context.Context, prefix string) []string {
	suggestions := []string{}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return suggestions
	}

	query, err := registry.PrefixBrandQuery(prefix)
	if err != nil {
		return suggestions
	}

	records, err := s.registry.Search(ctx, query, s.limit)
	if err != nil {
		logger.ForComponent("suggest").WithError(err).WithFields(logrus.Fields{
			"prefix": prefix,
		}).Warn("Suggestion lookup failed, returning none")
		return suggestions
	}

	for _, record := range records {
		if name, ok := registry.BrandName(record); ok {
			suggestions = append(suggestions, name)
		}
	}
	return suggestions
}
