package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-medicine-lookup/internal/upstream"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen []int
	}{
		{"shorter than a window", 120, []int{120}},
		{"exactly one window", 900, []int{900, 100}},
		{"one past a window", 901, []int{900, 101}},
		{"three windows", 2000, []int{900, 900, 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(strings.Repeat("a", tt.length), ChunkSize, ChunkOverlap)
			if len(chunks) != len(tt.wantLen) {
				t.Fatalf("Expected %d chunks, got %d", len(tt.wantLen), len(chunks))
			}
			for i, c := range chunks {
				if len(c) != tt.wantLen[i] {
					t.Errorf("chunk %d: expected %d chars, got %d", i, tt.wantLen[i], len(c))
				}
			}
		})
	}
}

func TestSplit_Overlap(t *testing.T) {
	text := numbered(1700)
	chunks := Split(text, ChunkSize, ChunkOverlap)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1] != text[800:1700] {
		t.Error("Expected second window to start at the stride")
	}
	if chunks[0][800:] != chunks[1][:100] {
		t.Error("Expected 100 characters of overlap")
	}
}

func TestSplit_Runes(t *testing.T) {
	text := strings.Repeat("é", 950)
	chunks := Split(text, ChunkSize, ChunkOverlap)
	if len(chunks) != 2 || []rune(chunks[1])[0] != 'é' {
		t.Errorf("Expected windows on rune boundaries, got %d chunks", len(chunks))
	}
}

type fakeModel struct {
	mu     sync.Mutex
	calls  int32
	failAt map[int]bool
	order  map[string]int
}

func (m *fakeModel) Summarize(ctx context.Context, chunk string) (string, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	idx := m.order[chunk]
	m.mu.Unlock()
	if m.failAt[idx] {
		return "", errors.New("model is currently loading")
	}
	return fmt.Sprintf("S%d", idx), nil
}

func newFakeModel(text string, failAt ...int) *fakeModel {
	m := &fakeModel{failAt: map[int]bool{}, order: map[string]int{}}
	for _, i := range failAt {
		m.failAt[i] = true
	}
	for i, c := range Split(text, ChunkSize, ChunkOverlap) {
		m.order[c] = i
	}
	return m
}

func TestSummarize_ShortInputUnchanged(t *testing.T) {
	model := &fakeModel{}
	s := New(model)

	for _, in := range []string{"", "Take two tablets daily.", strings.Repeat("x", 49)} {
		res, err := s.Summarize(context.Background(), in)
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		if res.Summary != in {
			t.Errorf("Expected %q unchanged, got %q", in, res.Summary)
		}
	}
	if model.calls != 0 {
		t.Errorf("Expected zero model calls, got %d", model.calls)
	}
}

func TestSummarize_TrimsBeforeMeasuring(t *testing.T) {
	model := &fakeModel{}
	res, _ := New(model).Summarize(context.Background(), "   short text   ")
	if res.Summary != "short text" || model.calls != 0 {
		t.Errorf("Expected trimmed text and no calls, got %q (%d calls)", res.Summary, model.calls)
	}
}

func TestSummarize_FailedChunkKeptVerbatim(t *testing.T) {
	text := numbered(2000)
	windows := Split(text, ChunkSize, ChunkOverlap)

	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			model := newFakeModel(text, 1)
			res, err := New(model, WithConcurrency(concurrency)).Summarize(context.Background(), text)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}

			want := "S0 " + windows[1] + " S2"
			if res.Summary != want {
				t.Errorf("Expected chunk 2 verbatim in place, got %q", res.Summary)
			}
			if res.CallCount() != 3 || res.FallbackCount() != 1 || !res.Chunks[1].Fallback {
				t.Errorf("Unexpected chunk accounting %+v", res.Chunks)
			}
		})
	}
}

func TestSummarize_AllFailReturnsWindows(t *testing.T) {
	text := numbered(1000)
	windows := Split(text, ChunkSize, ChunkOverlap)
	model := newFakeModel(text, 0, 1)

	res, err := New(model).Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if res.Summary != strings.Join(windows, " ") {
		t.Error("Expected raw windows joined with spaces")
	}
}

func TestSummarize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text := numbered(1000)
	_, err := New(newFakeModel(text), WithRateInterval(time.Second)).Summarize(ctx, text)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestHuggingFaceModel(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{"summary", 200, `[{"summary_text":"Pain reliever."}]`, "Pain reliever.", false},
		{"empty list", 200, `[]`, "", true},
		{"blank summary", 200, `[{"summary_text":" "}]`, "", true},
		{"loading", 503, `{"error":"loading"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer hf" {
					t.Errorf("Unexpected auth header %q", r.Header.Get("Authorization"))
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			m := NewHuggingFaceModel(upstream.NewClient(), server.URL, "hf", time.Second)
			got, err := m.Summarize(context.Background(), "some chunk")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Summarize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHuggingFaceModel_MissingToken(t *testing.T) {
	m := NewHuggingFaceModel(upstream.NewClient(), "http://127.0.0.1:0", "", time.Second)
	if _, err := m.Summarize(context.Background(), "x"); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken, got %v", err)
	}
}

// numbered builds distinct text so every window is unique.
func numbered(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "%d ", i)
	}
	return b.String()[:n]
}
