package validation

import (
	"fmt"
	"strings"

	apperrors "go-medicine-lookup/internal/errors"

	"github.com/gabriel-vasile/mimetype"
)

// UploadValidator handles uploaded image validation logic
type UploadValidator struct {
	maxSize         int64
	allowedPrefixes []string
}

// NewUploadValidator creates a validator accepting any image/* content up to maxSize bytes
func NewUploadValidator(maxSize int64) *UploadValidator {
	return &UploadValidator{
		maxSize:         maxSize,
		allowedPrefixes: []string{"image/"},
	}
}

// Validate checks the upload and returns the effective MIME type. The type
// is sniffed from the bytes; declared is only used when sniffing finds
// nothing more specific than a generic binary.
func (v *UploadValidator) Validate(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", apperrors.NewValidationError("Image file is empty", nil)
	}
	if v.maxSize > 0 && int64(len(data)) > v.maxSize {
		return "", apperrors.NewTooLargeError(
			fmt.Sprintf("Image exceeds the %d byte limit", v.maxSize), nil)
	}

	mime := mimetype.Detect(data)
	detected := mime.String()
	if mime.Is("application/octet-stream") && v.isAllowed(declared) {
		detected = declared
	}
	detected = baseType(detected)

	if !v.isAllowed(detected) {
		return "", apperrors.NewValidationError("Only image files are allowed", nil).
			WithDetails(fmt.Sprintf("detected content type %s", detected))
	}
	return detected, nil
}

// MaxSize returns the configured byte limit.
func (v *UploadValidator) MaxSize() int64 {
	return v.maxSize
}

func (v *UploadValidator) isAllowed(mime string) bool {
	mime = baseType(mime)
	for _, prefix := range v.allowedPrefixes {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return false
}

// baseType strips MIME parameters such as "; charset=utf-8".
func baseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// ValidateName checks a user supplied medicine name and returns it trimmed.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidationError("Medicine name is required", nil)
	}
	return name, nil
}
