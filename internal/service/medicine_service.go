package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go-medicine-lookup/internal/config"
	apperrors "go-medicine-lookup/internal/errors"
	"go-medicine-lookup/internal/observer"
	"go-medicine-lookup/internal/ocr"
	"go-medicine-lookup/internal/resolver"
	"go-medicine-lookup/internal/strategy"
	"go-medicine-lookup/internal/summarizer"
	"go-medicine-lookup/pkg/models"
	"go-medicine-lookup/pkg/validation"
)

// MedicineService defines the lookup operations exposed to callers
type MedicineService interface {
	ExtractName(ctx context.Context, upload ImageUpload) (*models.ExtractNameResponse, error)
	Suggest(ctx context.Context, prefix string) *models.SuggestionsResponse
	ResolveInfo(ctx context.Context, name string) (*models.MedicineInfoResponse, error)
	Summarize(ctx context.Context, text string) (*models.SummarizeResponse, error)
	Health() models.HealthResponse
}

// ImageUpload is a photo of a medicine package as received from a client
type ImageUpload struct {
	Data     []byte
	MimeType string
	Filename string
}

// TextExtractor reads text from an image, trying providers in order
type TextExtractor interface {
	Extract(ctx context.Context, img ocr.Image) (ocr.Result, error)
	Providers() []string
}

// InfoResolver answers a medicine name from an ordered set of sources
type InfoResolver interface {
	Resolve(ctx context.Context, name string) (resolver.ResolvedInfo, error)
	Sources() []resolver.Source
}

// Suggester completes brand name prefixes
type Suggester interface {
	Suggest(ctx context.Context, prefix string) []string
}

// TextSummarizer shortens long text
type TextSummarizer interface {
	Summarize(ctx context.Context, text string) (summarizer.Result, error)
}

// Dependencies groups everything medicineService is built from
type Dependencies struct {
	Config     *config.Config
	Extractor  TextExtractor
	Names      *strategy.NameContext
	Resolver   InfoResolver
	Suggester  Suggester
	Summarizer TextSummarizer
	Uploads    *validation.UploadValidator
	Events     observer.Subject
}

type medicineService struct {
	cfg        *config.Config
	extractor  TextExtractor
	names      *strategy.NameContext
	resolver   InfoResolver
	suggester  Suggester
	summarizer TextSummarizer
	uploads    *validation.UploadValidator
	events     observer.Subject
}

// NewMedicineService creates a new medicine service
func NewMedicineService(deps Dependencies) MedicineService {
	return &medicineService{
		cfg:        deps.Config,
		extractor:  deps.Extractor,
		names:      deps.Names,
		resolver:   deps.Resolver,
		suggester:  deps.Suggester,
		summarizer: deps.Summarizer,
		uploads:    deps.Uploads,
		events:     deps.Events,
	}
}

// ExtractName reads the package text and picks a candidate medicine name.
// A text without a qualifying token is still a success with no name.
func (s *medicineService) ExtractName(ctx context.Context, upload ImageUpload) (*models.ExtractNameResponse, error) {
	start := time.Now()

	mime, err := s.uploads.Validate(upload.Data, upload.MimeType)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.RequireKeys(s.cfg.OCRKeyNames()...); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(ctx, ocr.Image{Data: upload.Data, MimeType: mime})
	if err != nil {
		s.publish(ctx, observer.LookupEvent{
			EventType:      observer.ExtractionFailed,
			Query:          upload.Filename,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
			Metadata:       map[string]interface{}{"attempts": len(result.Attempts)},
		})
		return nil, mapExtractionError(err)
	}

	text := strings.TrimSpace(result.Text)
	resp := &models.ExtractNameResponse{
		Text:     text,
		Provider: result.Provider,
		Strategy: s.names.GetCurrentStrategy(),
	}
	if name, ok := s.names.ExtractName(text); ok {
		resp.MedicineName = name
	}

	s.publish(ctx, observer.LookupEvent{
		EventType:      observer.TextExtracted,
		Query:          upload.Filename,
		Source:         result.Provider,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"attempts":      len(result.Attempts),
			"text_length":   len(text),
			"medicine_name": resp.MedicineName,
		},
	})
	return resp, nil
}

// Suggest never fails; see suggest.Service.
func (s *medicineService) Suggest(ctx context.Context, prefix string) *models.SuggestionsResponse {
	start := time.Now()
	suggestions := s.suggester.Suggest(ctx, prefix)

	s.publish(ctx, observer.LookupEvent{
		EventType:      observer.SuggestionsServed,
		Query:          strings.TrimSpace(prefix),
		ProcessingTime: time.Since(start),
		Success:        len(suggestions) > 0,
		Metadata:       map[string]interface{}{"count": len(suggestions)},
	})
	return &models.SuggestionsResponse{Suggestions: suggestions}
}

func (s *medicineService) ResolveInfo(ctx context.Context, name string) (*models.MedicineInfoResponse, error) {
	start := time.Now()

	name, err := validation.ValidateName(name)
	if err != nil {
		return nil, err
	}

	info, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		var nf *resolver.NotFoundError
		if errors.As(err, &nf) {
			s.publish(ctx, observer.LookupEvent{
				EventType:      observer.InfoNotFound,
				Query:          name,
				ProcessingTime: time.Since(start),
				Metadata:       map[string]interface{}{"attempts": len(nf.Attempts)},
			})
			return nil, apperrors.NewNotFoundError(
				"No information found for this medicine in the drug registry, encyclopedia, or nomenclature sources", err)
		}
		return nil, mapContextError(err, "Medicine lookup")
	}

	s.publish(ctx, observer.LookupEvent{
		EventType:      observer.InfoResolved,
		Query:          name,
		Source:         string(info.Source),
		ProcessingTime: time.Since(start),
		Success:        true,
	})
	return &models.MedicineInfoResponse{Source: string(info.Source), Data: info.Data}, nil
}

// Summarize only needs the model token when the text is long enough to be
// sent to the model.
func (s *medicineService) Summarize(ctx context.Context, text string) (*models.SummarizeResponse, error) {
	start := time.Now()

	if utf8.RuneCountInString(strings.TrimSpace(text)) >= summarizer.MinLength {
		if err := s.cfg.RequireKeys(config.EnvHFKey); err != nil {
			return nil, err
		}
	}

	result, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, mapContextError(err, "Summarization")
	}

	s.publish(ctx, observer.LookupEvent{
		EventType:      observer.SummaryBuilt,
		ProcessingTime: time.Since(start),
		Success:        result.FallbackCount() == 0,
		Metadata: map[string]interface{}{
			"input_chars":  utf8.RuneCountInString(text),
			"chunks":       result.CallCount(),
			"fallbacks":    result.FallbackCount(),
			"output_chars": utf8.RuneCountInString(result.Summary),
		},
	})
	return &models.SummarizeResponse{Summary: result.Summary}, nil
}

// Health reports configured providers and which credentials are present,
// never their values.
func (s *medicineService) Health() models.HealthResponse {
	sources := make([]string, 0, 3)
	for _, src := range s.resolver.Sources() {
		sources = append(sources, string(src))
	}
	return models.HealthResponse{
		Status:       "available",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		OCRProviders: s.extractor.Providers(),
		Sources:      sources,
		Credentials: map[string]bool{
			config.EnvOpenFDAKey:  s.cfg.OpenFDAAPIKey != "",
			config.EnvOCRSpaceKey: s.cfg.OCRSpaceAPIKey != "",
			config.EnvHFKey:       s.cfg.HFAPIKey != "",
		},
		MaxUpload: s.uploads.MaxSize(),
	}
}

func (s *medicineService) publish(ctx context.Context, event observer.LookupEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, event)
	}
}

func mapExtractionError(err error) error {
	switch {
	case errors.Is(err, ocr.ErrEmptyText):
		return apperrors.NewExtractionFailedError("No text extracted from image", err)
	case errors.Is(err, ocr.ErrAllProvidersFailed):
		return apperrors.NewExtractionFailedError("Failed to extract text from image using all OCR providers", err)
	}
	return mapContextError(err, "Text extraction")
}

func mapContextError(err error, operation string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError(operation+" timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError(operation+" was canceled", err)
	}
	return apperrors.NewInternalError(operation+" failed", err)
}
