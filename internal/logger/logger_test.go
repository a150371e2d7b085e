package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevLevel := Logger.GetLevel()
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Logger.SetLevel(prevLevel)
	})
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected one JSON line, got %q: %v", buf.String(), err)
	}
	return line
}

func TestSetLevel(t *testing.T) {
	capture(t)
	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{" WARN ", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"trace", logrus.TraceLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			if Logger.GetLevel() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, Logger.GetLevel())
			}
		})
	}
}

func TestRedactsCredentials(t *testing.T) {
	buf := capture(t)
	SetLevel("info")

	WithFields(logrus.Fields{
		"api_key":       "secret-fda",
		"Authorization": "Bearer hf_secret",
		"token":         "",
		"name":          "Tylenol",
	}).Info("lookup")

	line := decode(t, buf)
	if line["api_key"] != redacted || line["Authorization"] != redacted {
		t.Errorf("Expected credentials redacted, got %v", line)
	}
	if line["token"] != "" {
		t.Errorf("Expected empty token left as is, got %v", line["token"])
	}
	if line["name"] != "Tylenol" || line["msg"] != "lookup" {
		t.Errorf("Expected other fields kept, got %v", line)
	}
}

func TestForComponent(t *testing.T) {
	buf := capture(t)
	SetLevel("info")

	ForComponent("resolver").Info("resolved")
	if line := decode(t, buf); line["component"] != "resolver" {
		t.Errorf("Expected component field, got %v", line)
	}
}
