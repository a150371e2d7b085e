package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-medicine-lookup/internal/upstream"
)

func TestQueries(t *testing.T) {
	tests := []struct {
		name  string
		build func(string) (string, error)
		input string
		want  string
	}{
		{"exact", ExactBrandQuery, "Tylenol", `openfda.brand_name:"Tylenol"`},
		{"exact trims", ExactBrandQuery, "  Advil ", `openfda.brand_name:"Advil"`},
		{"exact drops quotes", ExactBrandQuery, `Adv"il`, `openfda.brand_name:"Advil"`},
		{"exact keeps words", ExactBrandQuery, "Tylenol  PM", `openfda.brand_name:"Tylenol PM"`},
		{"prefix", PrefixBrandQuery, "tyl", `openfda.brand_name:tyl*`},
		{"prefix drops wildcard", PrefixBrandQuery, "ty*", `openfda.brand_name:ty*`},
		{"prefix joins words", PrefixBrandQuery, "tylenol pm", `openfda.brand_name:tylenol AND openfda.brand_name:pm*`},
		{"prefix drops syntax", PrefixBrandQuery, "(advil): OR -migr", `openfda.brand_name:advil AND openfda.brand_name:migr*`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQueries_NothingSearchable(t *testing.T) {
	inputs := []string{"*", `"*"`, `\\`, "  ", `" * \"`}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if q, err := ExactBrandQuery(input); !errors.Is(err, ErrEmptyQuery) {
				t.Errorf("Expected ErrEmptyQuery for exact, got %q, %v", q, err)
			}
			if q, err := PrefixBrandQuery(input); !errors.Is(err, ErrEmptyQuery) {
				t.Errorf("Expected ErrEmptyQuery for prefix, got %q, %v", q, err)
			}
		})
	}
}

func mustQuery(t *testing.T, q string, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("query builder error = %v", err)
	}
	return q
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "fda-key" {
			t.Errorf("Expected api_key param, got %q", q.Get("api_key"))
		}
		switch q.Get("search") {
		case `openfda.brand_name:"Tylenol"`:
			if q.Get("limit") != "1" {
				t.Errorf("Expected limit 1, got %s", q.Get("limit"))
			}
			fmt.Fprint(w, `{"meta":{},"results":[{"id":"abc","openfda":{"brand_name":["TYLENOL"]}}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`)
		}
	}))
	defer server.Close()

	client := NewClient(upstream.NewClient(), server.URL, "fda-key", time.Second)

	q, qerr := ExactBrandQuery("Tylenol")
	results, err := client.Search(context.Background(), mustQuery(t, q, qerr), 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	var record map[string]any
	if err := json.Unmarshal(results[0], &record); err != nil || record["id"] != "abc" {
		t.Errorf("Expected the record verbatim, got %s", results[0])
	}

	q, qerr = ExactBrandQuery("Nothing")
	results, err = client.Search(context.Background(), mustQuery(t, q, qerr), 1)
	if err != nil {
		t.Fatalf("Expected 404 to mean no matches, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestClient_SearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(upstream.NewClient(upstream.WithMaxAttempts(1)), server.URL, "fda-key", time.Second)
	q, qerr := PrefixBrandQuery("a")
	if _, err := client.Search(context.Background(), mustQuery(t, q, qerr), 5); !upstream.IsStatus(err, 500) {
		t.Errorf("Expected 500 StatusError, got %v", err)
	}
}

func TestClient_MissingKey(t *testing.T) {
	client := NewClient(upstream.NewClient(), "http://127.0.0.1:0", "", time.Second)
	if _, err := client.Search(context.Background(), "x", 1); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestBrandName(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   string
		wantOK bool
	}{
		{"first brand name", `{"openfda":{"brand_name":["Advil","Advil Liqui-Gels"]}}`, "Advil", true},
		{"no openfda block", `{"id":"1"}`, "", false},
		{"empty list", `{"openfda":{"brand_name":[]}}`, "", false},
		{"malformed", `[1,2]`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BrandName(json.RawMessage(tt.record))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("BrandName() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
