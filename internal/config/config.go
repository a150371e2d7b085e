package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "go-medicine-lookup/internal/errors"
)

// Names accepted by OCR_PROVIDERS, in their default order.
const (
	ProviderOCRSpace    = "ocrspace"
	ProviderHuggingFace = "huggingface"
	ProviderTesseract   = "tesseract"
)

// Names accepted by NAME_HEURISTIC.
const (
	HeuristicFirstToken   = "first-token"
	HeuristicMostFrequent = "most-frequent"
)

// Environment variables holding provider credentials.
const (
	EnvOpenFDAKey  = "OPENFDA_API_KEY"
	EnvOCRSpaceKey = "OCR_SPACE_API_KEY"
	EnvHFKey       = "HF_API_KEY"
)

type Config struct {
	Host           string
	Port           string
	RequestTimeout time.Duration
	OCRTimeout     time.Duration
	LookupTimeout  time.Duration
	SummaryTimeout time.Duration
	MaxUploadSize  int64
	LogLevel       string

	OpenFDAAPIKey  string
	OCRSpaceAPIKey string
	HFAPIKey       string

	OCRProviders  []string
	NameHeuristic string

	SummaryConcurrency  int
	SummaryRateInterval time.Duration

	Endpoints Endpoints
}

// Endpoints are the base URLs of every external collaborator. They are
// overridable so tests and staging can point at fakes.
type Endpoints struct {
	OpenFDA   string
	OCRSpace  string
	HFOCR     string
	HFSummary string
	Wikipedia string
	RxNav     string
}

// DefaultEndpoints returns the public collaborator URLs
func DefaultEndpoints() Endpoints {
	return Endpoints{
		OpenFDA:   "https://api.fda.gov/drug/label.json",
		OCRSpace:  "https://api.ocr.space/parse/image",
		HFOCR:     "https://api-inference.huggingface.co/models/microsoft/trocr-base-printed",
		HFSummary: "https://api-inference.huggingface.co/models/google/pegasus-xsum",
		Wikipedia: "https://en.wikipedia.org/api/rest_v1/page/summary",
		RxNav:     "https://rxnav.nlm.nih.gov/REST",
	}
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv loads configuration from environment variables and validates it
func LoadFromEnv() (*Config, error) {
	defaults := DefaultEndpoints()

	cfg := &Config{
		Host:           getEnvOrDefault("HOST", "0.0.0.0"),
		Port:           getEnvOrDefault("PORT", "8080"),
		RequestTimeout: parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		OCRTimeout:     parseDurationOrDefault("OCR_TIMEOUT", 30*time.Second),
		LookupTimeout:  parseDurationOrDefault("LOOKUP_TIMEOUT", 10*time.Second),
		SummaryTimeout: parseDurationOrDefault("SUMMARY_TIMEOUT", 20*time.Second),
		MaxUploadSize:  parseIntOrDefault("MAX_UPLOAD_SIZE", 4*1024*1024), // 4MB
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),

		OpenFDAAPIKey:  strings.TrimSpace(os.Getenv(EnvOpenFDAKey)),
		OCRSpaceAPIKey: strings.TrimSpace(os.Getenv(EnvOCRSpaceKey)),
		HFAPIKey:       strings.TrimSpace(os.Getenv(EnvHFKey)),

		OCRProviders:  parseList(getEnvOrDefault("OCR_PROVIDERS", ProviderOCRSpace+","+ProviderHuggingFace)),
		NameHeuristic: strings.ToLower(strings.TrimSpace(getEnvOrDefault("NAME_HEURISTIC", HeuristicFirstToken))),

		SummaryConcurrency:  int(parseIntOrDefault("SUMMARY_CONCURRENCY", 1)),
		SummaryRateInterval: parseDurationOrDefault("SUMMARY_RATE_INTERVAL", 0),

		Endpoints: Endpoints{
			OpenFDA:   getEnvOrDefault("OPENFDA_URL", defaults.OpenFDA),
			OCRSpace:  getEnvOrDefault("OCR_SPACE_URL", defaults.OCRSpace),
			HFOCR:     getEnvOrDefault("HF_OCR_URL", defaults.HFOCR),
			HFSummary: getEnvOrDefault("HF_SUMMARY_URL", defaults.HFSummary),
			Wikipedia: getEnvOrDefault("WIKIPEDIA_URL", defaults.Wikipedia),
			RxNav:     getEnvOrDefault("RXNAV_URL", defaults.RxNav),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations. Credentials are checked per
// operation by RequireKeys, so a server without an OCR key can still resolve
// names.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if c.RequestTimeout <= 0 || c.OCRTimeout <= 0 || c.LookupTimeout <= 0 || c.SummaryTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, ocr=%s, lookup=%s, summary=%s)",
			c.RequestTimeout, c.OCRTimeout, c.LookupTimeout, c.SummaryTimeout)
	}
	if c.SummaryConcurrency < 1 {
		return fmt.Errorf("SUMMARY_CONCURRENCY must be >= 1 (got %d)", c.SummaryConcurrency)
	}
	if len(c.OCRProviders) == 0 {
		return fmt.Errorf("OCR_PROVIDERS must name at least one provider")
	}
	seen := make(map[string]bool, len(c.OCRProviders))
	for _, name := range c.OCRProviders {
		switch name {
		case ProviderOCRSpace, ProviderHuggingFace, ProviderTesseract:
		default:
			return fmt.Errorf("unknown OCR provider %q in OCR_PROVIDERS", name)
		}
		if seen[name] {
			return fmt.Errorf("OCR provider %q listed twice in OCR_PROVIDERS", name)
		}
		seen[name] = true
	}
	switch c.NameHeuristic {
	case HeuristicFirstToken, HeuristicMostFrequent:
	default:
		return fmt.Errorf("unknown NAME_HEURISTIC %q", c.NameHeuristic)
	}
	return nil
}

// RequireKeys fails fast with a configuration error naming every missing
// credential among the given environment variable names.
func (c *Config) RequireKeys(envNames ...string) error {
	var missing []string
	for _, name := range envNames {
		if c.key(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.NewConfigurationError(
		fmt.Sprintf("%s not configured", strings.Join(missing, ", ")), nil)
}

// OCRKeyNames lists the credentials needed by the configured OCR providers.
func (c *Config) OCRKeyNames() []string {
	var names []string
	for _, p := range c.OCRProviders {
		switch p {
		case ProviderOCRSpace:
			names = append(names, EnvOCRSpaceKey)
		case ProviderHuggingFace:
			names = append(names, EnvHFKey)
		}
	}
	return names
}

func (c *Config) key(envName string) string {
	switch envName {
	case EnvOpenFDAKey:
		return c.OpenFDAAPIKey
	case EnvOCRSpaceKey:
		return c.OCRSpaceAPIKey
	case EnvHFKey:
		return c.HFAPIKey
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration >= 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
