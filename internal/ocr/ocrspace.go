package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-medicine-lookup/internal/upstream"
)

// OCRSpace calls the OCR.space parse endpoint. It is the primary provider.
type OCRSpace struct {
	client   *upstream.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
}

// NewOCRSpace creates the primary OCR extractor
func NewOCRSpace(client *upstream.Client, endpoint, apiKey string, timeout time.Duration) *OCRSpace {
	return &OCRSpace{client: client, endpoint: endpoint, apiKey: apiKey, timeout: timeout}
}

func (o *OCRSpace) Name() string {
	return "ocrspace"
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

func (o *OCRSpace) ExtractText(ctx context.Context, img Image) (string, error) {
	if o.apiKey == "" {
		return "", newProviderError(o.Name(), errors.New("api key not configured"))
	}

	form := url.Values{
		"base64Image":       {img.DataURL()},
		"language":          {"eng"},
		"isOverlayRequired": {"false"},
	}
	headers := map[string]string{"apikey": o.apiKey}

	var resp ocrSpaceResponse
	if err := o.client.PostForm(ctx, o.endpoint, form, headers, o.timeout, &resp); err != nil {
		return "", newProviderError(o.Name(), err)
	}
	if resp.IsErroredOnProcessing {
		return "", newProviderError(o.Name(), fmt.Errorf("processing error: %s", errorMessage(resp.ErrorMessage)))
	}
	if len(resp.ParsedResults) == 0 || strings.TrimSpace(resp.ParsedResults[0].ParsedText) == "" {
		return "", newProviderError(o.Name(), ErrNoText)
	}
	return resp.ParsedResults[0].ParsedText, nil
}

// errorMessage flattens OCR.space's ErrorMessage, which is a string or a list.
func errorMessage(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return "unknown"
}
