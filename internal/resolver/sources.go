package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-medicine-lookup/internal/registry"
	"go-medicine-lookup/internal/upstream"
)

// Source tags the collaborator a ResolvedInfo came from.
type Source string

const (
	SourceRegistry     Source = "registry"
	SourceEncyclopedia Source = "encyclopedia"
	SourceNomenclature Source = "nomenclature"
)

// InfoSource looks a medicine name up in one collaborator. A lookup that
// reached the collaborator but found nothing returns ErrNoResult.
type InfoSource interface {
	Name() Source
	Lookup(ctx context.Context, name string) (json.RawMessage, error)
}

// RegistrySource queries drug labels by exact brand name and then by prefix.
type RegistrySource struct {
	client *registry.Client
}

// NewRegistrySource creates the drug label source
func NewRegistrySource(client *registry.Client) *RegistrySource {
	return &RegistrySource{client: client}
}

func (s *RegistrySource) Name() Source { return SourceRegistry }

// Lookup skips queries with nothing searchable in them, so a name made only
// of query syntax never reaches the registry.
func (s *RegistrySource) Lookup(ctx context.Context, name string) (json.RawMessage, error) {
	for _, build := range []func(string) (string, error){registry.ExactBrandQuery, registry.PrefixBrandQuery} {
		query, err := build(name)
		if errors.Is(err, registry.ErrEmptyQuery) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results, err := s.client.Search(ctx, query, 1)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results[0], nil
		}
	}
	return nil, ErrNoResult
}

// EncyclopediaSource fetches a page summary by exact title. Pages without an
// extract (missing, disambiguation stubs) count as no result.
type EncyclopediaSource struct {
	http     *upstream.Client
	endpoint string
	timeout  time.Duration
}

// NewEncyclopediaSource creates the page summary source
func NewEncyclopediaSource(httpClient *upstream.Client, endpoint string, timeout time.Duration) *EncyclopediaSource {
	return &EncyclopediaSource{http: httpClient, endpoint: strings.TrimRight(endpoint, "/"), timeout: timeout}
}

func (s *EncyclopediaSource) Name() Source { return SourceEncyclopedia }

func (s *EncyclopediaSource) Lookup(ctx context.Context, name string) (json.RawMessage, error) {
	var doc json.RawMessage
	if err := s.http.GetJSON(ctx, s.endpoint+"/"+url.PathEscape(name), nil, nil, s.timeout, &doc); err != nil {
		return nil, err
	}

	var page struct {
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(doc, &page); err != nil {
		return nil, fmt.Errorf("decode page summary: %w", err)
	}
	if strings.TrimSpace(page.Extract) == "" {
		return nil, ErrNoResult
	}
	return doc, nil
}

// NomenclatureSource resolves a name to an RxNorm concept and returns its
// properties together with its synonyms.
type NomenclatureSource struct {
	http     *upstream.Client
	endpoint string
	timeout  time.Duration
}

// NewNomenclatureSource creates the drug nomenclature source
func NewNomenclatureSource(httpClient *upstream.Client, endpoint string, timeout time.Duration) *NomenclatureSource {
	return &NomenclatureSource{http: httpClient, endpoint: strings.TrimRight(endpoint, "/"), timeout: timeout}
}

func (s *NomenclatureSource) Name() Source { return SourceNomenclature }

func (s *NomenclatureSource) Lookup(ctx context.Context, name string) (json.RawMessage, error) {
	var ids struct {
		IDGroup struct {
			RxNormID []string `json:"rxnormId"`
		} `json:"idGroup"`
	}
	if err := s.http.GetJSON(ctx, s.endpoint+"/rxcui.json", url.Values{"name": {name}}, nil, s.timeout, &ids); err != nil {
		return nil, err
	}
	if len(ids.IDGroup.RxNormID) == 0 || ids.IDGroup.RxNormID[0] == "" {
		return nil, ErrNoResult
	}
	rxcui := url.PathEscape(ids.IDGroup.RxNormID[0])

	var props struct {
		Properties map[string]any `json:"properties"`
	}
	if err := s.http.GetJSON(ctx, s.endpoint+"/rxcui/"+rxcui+"/properties.json", nil, nil, s.timeout, &props); err != nil {
		return nil, err
	}

	data := props.Properties
	if data == nil {
		data = map[string]any{}
	}
	data["synonyms"] = s.synonyms(ctx, rxcui)

	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode nomenclature data: %w", err)
	}
	return out, nil
}

// synonyms is best effort: any failure yields an empty list.
func (s *NomenclatureSource) synonyms(ctx context.Context, rxcui string) []string {
	var all struct {
		PropConceptGroup struct {
			PropConcept []struct {
				PropValue string `json:"propValue"`
			} `json:"propConcept"`
		} `json:"propConceptGroup"`
	}
	names := []string{}
	err := s.http.GetJSON(ctx, s.endpoint+"/rxcui/"+rxcui+"/allProperties.json", url.Values{"prop": {"names"}}, nil, s.timeout, &all)
	if err != nil {
		return names
	}
	for _, p := range all.PropConceptGroup.PropConcept {
		names = append(names, p.PropValue)
	}
	return names
}
