package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go-medicine-lookup/internal/upstream"
)

// HuggingFace calls a hosted image-to-text model (TrOCR by default). It is
// the fallback provider.
type HuggingFace struct {
	client   *upstream.Client
	endpoint string
	token    string
	timeout  time.Duration
}

// NewHuggingFace creates the TrOCR fallback extractor
func NewHuggingFace(client *upstream.Client, endpoint, token string, timeout time.Duration) *HuggingFace {
	return &HuggingFace{client: client, endpoint: endpoint, token: token, timeout: timeout}
}

func (h *HuggingFace) Name() string {
	return "huggingface"
}

type generated struct {
	GeneratedText string `json:"generated_text"`
}

func (h *HuggingFace) ExtractText(ctx context.Context, img Image) (string, error) {
	if h.token == "" {
		return "", newProviderError(h.Name(), errors.New("api token not configured"))
	}

	body := map[string]string{"inputs": img.DataURL()}
	headers := map[string]string{"Authorization": "Bearer " + h.token}

	var raw json.RawMessage
	if err := h.client.PostJSON(ctx, h.endpoint, body, headers, h.timeout, &raw); err != nil {
		return "", newProviderError(h.Name(), err)
	}

	text := generatedText(raw)
	if strings.TrimSpace(text) == "" {
		return "", newProviderError(h.Name(), ErrNoText)
	}
	return text, nil
}

// generatedText accepts either {"generated_text": ...} or [{"generated_text": ...}].
func generatedText(raw json.RawMessage) string {
	var obj generated
	if err := json.Unmarshal(raw, &obj); err == nil && obj.GeneratedText != "" {
		return obj.GeneratedText
	}
	var list []generated
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0].GeneratedText
	}
	return ""
}
