package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidText is returned when a summarize request's text is neither a
// string nor a list of strings.
var ErrInvalidText = errors.New("text must be a string or an array of strings")

// SummarizeRequest carries text as a single string or a list of fragments
type SummarizeRequest struct {
	Text json.RawMessage `json:"text" binding:"required"`
}

// JoinedText returns the request text, joining list fragments with a space.
// A null or empty string counts as missing text.
func (r SummarizeRequest) JoinedText() (string, error) {
	if raw := strings.TrimSpace(string(r.Text)); raw == "" || raw == "null" {
		return "", ErrInvalidText
	}
	var single string
	if err := json.Unmarshal(r.Text, &single); err == nil {
		if single == "" {
			return "", ErrInvalidText
		}
		return single, nil
	}
	var parts []string
	if err := json.Unmarshal(r.Text, &parts); err == nil {
		return strings.Join(parts, " "), nil
	}
	return "", ErrInvalidText
}

// SummarizeResponse is the result of a summarize call
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// ExtractNameResponse is the result of reading a medicine package photo
type ExtractNameResponse struct {
	Text         string `json:"text"`
	MedicineName string `json:"medicineName,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
}

// SuggestionsResponse lists brand name completions
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// MedicineInfoResponse is the answer of exactly one source
type MedicineInfoResponse struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

// NameQuery binds the name query parameter
type NameQuery struct {
	Name string `form:"name"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse reports liveness and which providers are configured
type HealthResponse struct {
	Status       string          `json:"status"`
	Timestamp    string          `json:"timestamp"`
	OCRProviders []string        `json:"ocr_providers"`
	Sources      []string        `json:"sources"`
	Credentials  map[string]bool `json:"credentials"`
	MaxUpload    int64           `json:"max_upload_bytes"`
}
