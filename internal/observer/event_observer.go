package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LookupEvent represents one finished lookup operation
type LookupEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Query          string                 `json:"query,omitempty"`
	Source         string                 `json:"source,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of lookup event
type EventType string

const (
	// TextExtracted when an OCR provider returned text
	TextExtracted EventType = "text_extracted"
	// ExtractionFailed when every OCR provider failed
	ExtractionFailed EventType = "extraction_failed"
	// InfoResolved when a source answered a medicine lookup
	InfoResolved EventType = "info_resolved"
	// InfoNotFound when no source knew the medicine
	InfoNotFound EventType = "info_not_found"
	// SuggestionsServed when brand suggestions were returned
	SuggestionsServed EventType = "suggestions_served"
	// SummaryBuilt when a summary was produced
	SummaryBuilt EventType = "summary_built"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event LookupEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event LookupEvent)
}

// LoggingObserver logs lookup events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles lookup events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event LookupEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.Query != "" {
		fields["query"] = event.Query
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case TextExtracted:
		entry.Info("Medicine text extracted")
	case ExtractionFailed:
		entry.Warn("Medicine text extraction failed")
	case InfoResolved:
		entry.Info("Medicine info resolved")
	case InfoNotFound:
		entry.Info("Medicine info not found")
	case SuggestionsServed:
		entry.Debug("Suggestions served")
	case SummaryBuilt:
		entry.Info("Summary built")
	default:
		entry.Info("Lookup event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver counts events, and per event the source or provider that
// served them.
type MetricsObserver struct {
	mu                  sync.RWMutex
	events              map[EventType]int64
	sources             map[EventType]map[string]int64
	totalProcessingTime time.Duration
	totalEvents         int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		events:  make(map[EventType]int64),
		sources: make(map[EventType]map[string]int64),
	}
}

// OnEvent handles lookup events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event LookupEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.events[event.EventType]++
	o.totalEvents++
	o.totalProcessingTime += event.ProcessingTime

	if event.Source != "" {
		bySource, ok := o.sources[event.EventType]
		if !ok {
			bySource = make(map[string]int64)
			o.sources[event.EventType] = bySource
		}
		bySource[event.Source]++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a snapshot of the counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	events := make(map[string]int64, len(o.events))
	for k, v := range o.events {
		events[string(k)] = v
	}
	sources := make(map[string]map[string]int64, len(o.sources))
	for k, bySource := range o.sources {
		cp := make(map[string]int64, len(bySource))
		for s, n := range bySource {
			cp[s] = n
		}
		sources[string(k)] = cp
	}

	avgProcessingTime := time.Duration(0)
	if o.totalEvents > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.totalEvents)
	}

	return map[string]interface{}{
		"total_events":           o.totalEvents,
		"events":                 events,
		"by_source":              sources,
		"avg_processing_time_ms": avgProcessingTime.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. Observers run
// concurrently and outlive the caller's cancellation.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event LookupEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	ctx = context.WithoutCancel(ctx)

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every notification sent so far has been handled.
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
