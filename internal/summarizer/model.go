package summarizer

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-medicine-lookup/internal/upstream"
)

var (
	// ErrMissingToken is returned before any call when the model has no token.
	ErrMissingToken = errors.New("summarization token is not configured")

	// ErrEmptySummary marks a model reply without summary text.
	ErrEmptySummary = errors.New("model returned no summary")
)

// Model summarizes a single window of text.
type Model interface {
	Summarize(ctx context.Context, chunk string) (string, error)
}

// HuggingFaceModel calls a hosted summarization model such as
// google/pegasus-xsum.
type HuggingFaceModel struct {
	http     *upstream.Client
	endpoint string
	token    string
	timeout  time.Duration
}

// NewHuggingFaceModel creates a model backed by the hosted summarization endpoint
func NewHuggingFaceModel(httpClient *upstream.Client, endpoint, token string, timeout time.Duration) *HuggingFaceModel {
	return &HuggingFaceModel{http: httpClient, endpoint: endpoint, token: token, timeout: timeout}
}

type summaryOutput struct {
	SummaryText string `json:"summary_text"`
}

func (m *HuggingFaceModel) Summarize(ctx context.Context, chunk string) (string, error) {
	if m.token == "" {
		return "", ErrMissingToken
	}

	var out []summaryOutput
	headers := map[string]string{"Authorization": "Bearer " + m.token}
	if err := m.http.PostJSON(ctx, m.endpoint, map[string]string{"inputs": chunk}, headers, m.timeout, &out); err != nil {
		return "", err
	}
	if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return "", ErrEmptySummary
	}
	return out[0].SummaryText, nil
}
