// Package registry queries the openFDA drug label endpoint.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go-medicine-lookup/internal/upstream"
)

// ErrMissingAPIKey is returned before any call when the client has no key.
var ErrMissingAPIKey = errors.New("openFDA API key is not configured")

// ErrEmptyQuery is returned by the query builders when nothing searchable
// is left of the input. An empty term would match every label.
var ErrEmptyQuery = errors.New("no searchable characters in query")

// Client searches drug labels. Records are returned as raw JSON so callers
// can pass them through unchanged.
type Client struct {
	http     *upstream.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
}

// NewClient creates a label search client
func NewClient(httpClient *upstream.Client, endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{http: httpClient, endpoint: endpoint, apiKey: apiKey, timeout: timeout}
}

type searchResponse struct {
	Results []json.RawMessage `json:"results"`
}

// Search runs an openFDA search expression. Zero matches is not an error:
// openFDA answers those with 404 and Search returns an empty slice.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{
		"search":  {query},
		"limit":   {strconv.Itoa(limit)},
		"api_key": {c.apiKey},
	}

	var resp searchResponse
	err := c.http.GetJSON(ctx, c.endpoint, params, nil, c.timeout, &resp)
	if upstream.IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ExactBrandQuery matches the brand name as a phrase.
func ExactBrandQuery(name string) (string, error) {
	phrase := strings.Join(strings.Fields(sanitize(name)), " ")
	if phrase == "" {
		return "", ErrEmptyQuery
	}
	return `openfda.brand_name:"` + phrase + `"`, nil
}

// PrefixBrandQuery matches brand names containing every word of prefix, the
// last one as a prefix. openFDA reads a bare space as OR, so words are
// joined with AND.
func PrefixBrandQuery(prefix string) (string, error) {
	terms := prefixTerms(prefix)
	if len(terms) == 0 {
		return "", ErrEmptyQuery
	}
	clauses := make([]string, len(terms))
	for i, term := range terms {
		clauses[i] = "openfda.brand_name:" + term
	}
	clauses[len(clauses)-1] += "*"
	return strings.Join(clauses, " AND "), nil
}

// sanitize drops characters that would break out of a quoted phrase.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '*':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// prefixTerms splits s into words that are safe as unquoted search terms.
func prefixTerms(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '.' && r != '\''
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimLeft(w, "-")
		switch w {
		case "", "AND", "OR", "NOT", "TO":
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// BrandName returns openfda.brand_name[0] of a label record, if present.
func BrandName(record json.RawMessage) (string, bool) {
	var label struct {
		OpenFDA struct {
			BrandName []string `json:"brand_name"`
		} `json:"openfda"`
	}
	if err := json.Unmarshal(record, &label); err != nil {
		return "", false
	}
	if len(label.OpenFDA.BrandName) == 0 || label.OpenFDA.BrandName[0] == "" {
		return "", false
	}
	return label.OpenFDA.BrandName[0], true
}
