package container

import (
	"fmt"
	"net/http"

	"go-medicine-lookup/internal/config"
	"go-medicine-lookup/internal/logger"
	"go-medicine-lookup/internal/observer"
	"go-medicine-lookup/internal/ocr"
	"go-medicine-lookup/internal/registry"
	"go-medicine-lookup/internal/resolver"
	"go-medicine-lookup/internal/service"
	"go-medicine-lookup/internal/strategy"
	"go-medicine-lookup/internal/suggest"
	"go-medicine-lookup/internal/summarizer"
	"go-medicine-lookup/internal/transport"
	"go-medicine-lookup/internal/upstream"
	"go-medicine-lookup/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	events   *observer.EventPublisher
	metrics  *observer.MetricsObserver
	medicine service.MedicineService
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Build dependency graph
	upstreamClient := upstream.NewClient()

	extractors, err := ocr.NewExtractors(cfg, upstreamClient)
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR providers: %w", err)
	}
	chain := ocr.NewChain(extractors...)

	nameStrategy, err := strategy.ByName(cfg.NameHeuristic)
	if err != nil {
		return nil, err
	}

	registryClient := registry.NewClient(upstreamClient, cfg.Endpoints.OpenFDA, cfg.OpenFDAAPIKey, cfg.LookupTimeout)
	cascade := resolver.NewCascade(
		resolver.NewRegistrySource(registryClient),
		resolver.NewEncyclopediaSource(upstreamClient, cfg.Endpoints.Wikipedia, cfg.LookupTimeout),
		resolver.NewNomenclatureSource(upstreamClient, cfg.Endpoints.RxNav, cfg.LookupTimeout),
	)

	model := summarizer.NewHuggingFaceModel(upstreamClient, cfg.Endpoints.HFSummary, cfg.HFAPIKey, cfg.SummaryTimeout)
	textSummarizer := summarizer.New(model,
		summarizer.WithConcurrency(cfg.SummaryConcurrency),
		summarizer.WithRateInterval(cfg.SummaryRateInterval),
	)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	medicine := service.NewMedicineService(service.Dependencies{
		Config:     cfg,
		Extractor:  chain,
		Names:      strategy.NewNameContext(nameStrategy),
		Resolver:   cascade,
		Suggester:  suggest.NewService(registryClient),
		Summarizer: textSummarizer,
		Uploads:    validation.NewUploadValidator(cfg.MaxUploadSize),
		Events:     events,
	})

	return &Container{
		config:   cfg,
		events:   events,
		metrics:  metrics,
		medicine: medicine,
		handler:  transport.NewHandler(medicine, metrics, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the medicine service shared by the HTTP and CLI surfaces
func (c *Container) Service() service.MedicineService {
	return c.medicine
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close waits for pending event notifications.
func (c *Container) Close() {
	c.events.Wait()
}
