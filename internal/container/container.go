package container

import (
	"net/http"

	"github.com/anime-shed/red-inspector-go/internal/config"
	"github.com/anime-shed/red-inspector-go/internal/factory"
	"github.com/anime-shed/red-inspector-go/internal/logger"
	"github.com/anime-shed/red-inspector-go/internal/observer"
	"github.com/anime-shed/red-inspector-go/internal/repository"
	"github.com/anime-shed/red-inspector-go/internal/service"
	"github.com/anime-shed/red-inspector-go/internal/storage"
	"github.com/anime-shed/red-inspector-go/internal/transport"
	"github.com/anime-shed/red-inspector-go/pkg/validation"
)

// Container holds the dependencies of the HTTP API
type Container struct {
	config               *config.Config
	imageRepository      repository.ImageRepository
	analysisRepository   repository.AnalysisRepository
	imageAnalysisService service.ImageAnalysisService
	metrics              *observer.MetricsObserver
	handler              http.Handler
}

// NewContainer wires the API from cfg
func NewContainer(cfg *config.Config, version string) (*Container, error) {
	components := factory.NewComponentFactory()

	validator := validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.Server.AllowedHosts)
	imageRepository := repository.NewHTTPImageRepository(storage.NewHTTPImageFetcher(), validator)
	analysisRepository := repository.NewMemoryAnalysisRepository(repository.DefaultMaxResults)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	imageAnalysisService := service.NewImageAnalysisService(
		imageRepository,
		analysisRepository,
		components.AnalyzerFactory.CreateAnalyzer(cfg),
		events,
	)
	handler := transport.NewHandler(imageAnalysisService, cfg.Server, version)

	return &Container{
		config:               cfg,
		imageRepository:      imageRepository,
		analysisRepository:   analysisRepository,
		imageAnalysisService: imageAnalysisService,
		metrics:              metrics,
		handler:              handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the counters collected since start
func (c *Container) Metrics() observer.Metrics {
	return c.metrics.Snapshot()
}
