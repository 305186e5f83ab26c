package main

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/document"
	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/events/recorder"
	"spoilerblock/shield/pkg/events/storage"
	"spoilerblock/shield/pkg/scanner"
	"spoilerblock/shield/pkg/suppression"
	"spoilerblock/shield/pkg/telemetry/metrics"
)

// openStorage opens the configured event store.
func openStorage(cfg *config.EventsConfig) (events.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		return s, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %s (supported: sqlite, memory)", cfg.Backend)
	}
}

// newRecorder wraps store in an async recorder configured from cfg.
func newRecorder(store events.Storage, cfg *config.EventsConfig) *recorder.Recorder {
	return recorder.NewRecorder(store, &recorder.Config{
		Enabled:      cfg.Enabled,
		AsyncBuffer:  cfg.Recorder.AsyncBuffer,
		WriteTimeout: cfg.Recorder.WriteTimeout,
	})
}

// newScorer builds the scoring engine, memoized unless the cache is disabled.
// The returned cache is nil when disabled.
func newScorer(cfg *config.DetectionConfig) (detection.Scorer, *detection.Cache, error) {
	engine := detection.NewEngine(detection.EngineConfig{Thresholds: cfg.Thresholds})
	if cfg.CacheSize < 0 {
		return engine, nil, nil
	}
	cache, err := detection.NewCache(engine, cfg.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

// pipeline is one document wired to a tracker and a controller.
type pipeline struct {
	doc     *document.Document
	tracker *suppression.Tracker
	ctrl    *scanner.Controller
	cache   *detection.Cache
}

type pipelineOptions struct {
	Sink      suppression.EventSink
	Collector *metrics.Collector
	Tracer    trace.Tracer
	Logger    *slog.Logger
	OnPass    func(scanner.PassStats)

	// Source names event sources. Defaults to the document fragment name.
	Source func(document.SegmentID) string
}

// newPipeline assembles the scan pipeline over doc. The controller starts
// disabled with the default profile.
func newPipeline(cfg *config.Config, doc *document.Document, opts pipelineOptions) (*pipeline, error) {
	if doc == nil {
		return nil, errors.New("pipeline requires a document")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Source == nil {
		opts.Source = doc.FragmentOf
	}
	collector := opts.Collector
	if collector == nil {
		collector = metrics.NewCollector(&config.MetricsConfig{}, nil)
	}

	scorer, cache, err := newScorer(&cfg.Detection)
	if err != nil {
		return nil, err
	}

	tracker := suppression.NewTracker(suppression.TrackerConfig{
		Presenter:     document.NewPresenter(doc),
		Sink:          opts.Sink,
		Source:        opts.Source,
		Exists:        doc.Contains,
		PreviewLength: cfg.Scanner.PreviewLength,
		Logger:        opts.Logger.With("component", "suppression"),
		Metrics:       collector,
	})

	ctrl, err := scanner.NewController(scanner.ControllerConfig{
		Document: doc,
		Tracker:  tracker,
		Scorer:   scorer,
		Enumerator: &document.Enumerator{
			MinLength:    cfg.Scanner.MinSegmentLength,
			ExcludedTags: cfg.Scanner.ExcludedTags,
		},
		Debounce: cfg.Scanner.Debounce,
		OnPass:   opts.OnPass,
		Logger:   opts.Logger.With("component", "scanner"),
		Metrics:  collector,
		Tracer:   opts.Tracer,
	})
	if err != nil {
		return nil, err
	}
	return &pipeline{doc: doc, tracker: tracker, ctrl: ctrl, cache: cache}, nil
}
