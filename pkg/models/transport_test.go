package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSummarizeRequest_JoinedText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"string", `{"text":"Take with water."}`, "Take with water.", false},
		{"array joined with spaces", `{"text":["Uses:","pain relief"]}`, "Uses: pain relief", false},
		{"empty array", `{"text":[]}`, "", false},
		{"empty string", `{"text":""}`, "", true},
		{"null", `{"text":null}`, "", true},
		{"missing", `{}`, "", true},
		{"number", `{"text":7}`, "", true},
		{"mixed array", `{"text":["a",1]}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SummarizeRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatal(err)
			}
			got, err := req.JoinedText()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidText) {
					t.Errorf("Expected ErrInvalidText, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("JoinedText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("JoinedText() = %q, want %q", got, tt.want)
			}
		})
	}
}
