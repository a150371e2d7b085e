package validation

import (
	"bytes"
	"testing"

	apperrors "go-medicine-lookup/internal/errors"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")
)

func TestUploadValidator_Validate(t *testing.T) {
	validator := NewUploadValidator(1024)

	tests := []struct {
		name     string
		data     []byte
		declared string
		wantMime string
		wantType apperrors.ErrorType
	}{
		{"png", pngHeader, "image/png", "image/png", ""},
		{"jpeg declared wrong", jpegHeader, "application/pdf", "image/jpeg", ""},
		{"gif without declared type", gifHeader, "", "image/gif", ""},
		{"unknown bytes trust declared image", []byte{0x00, 0x01, 0x02, 0x03}, "image/webp", "image/webp", ""},
		{"text rejected", []byte("just some text, not a picture"), "image/png", "", apperrors.ErrorTypeValidation},
		{"unknown bytes with non-image declared", []byte{0x00, 0x01, 0x02}, "application/octet-stream", "", apperrors.ErrorTypeValidation},
		{"empty", nil, "image/png", "", apperrors.ErrorTypeValidation},
		{"too large", append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1024)...), "image/png", "", apperrors.ErrorTypeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, err := validator.Validate(tt.data, tt.declared)
			if tt.wantType != "" {
				if !apperrors.IsType(err, tt.wantType) {
					t.Fatalf("Expected %s error, got %v", tt.wantType, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if mime != tt.wantMime {
				t.Errorf("Expected mime %s, got %s", tt.wantMime, mime)
			}
		})
	}
}

func TestUploadValidator_MaxSize(t *testing.T) {
	if got := NewUploadValidator(4 << 20).MaxSize(); got != 4<<20 {
		t.Errorf("Expected 4MB limit, got %d", got)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Tylenol", "Tylenol", false},
		{"  Advil ", "Advil", false},
		{"", "", true},
		{" \t\n", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
		if got != tt.want {
			t.Errorf("ValidateName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
