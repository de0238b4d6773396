package factory

import (
	"fmt"

	"github.com/anime-shed/red-inspector-go/internal/analyzer"
	"github.com/anime-shed/red-inspector-go/internal/config"
	"github.com/anime-shed/red-inspector-go/internal/storage"
)

// AnalyzerFactory creates the red estimator and magnitude sampler
type AnalyzerFactory interface {
	Options(cfg *config.Config) analyzer.Options
	CreateEstimator(cfg *config.Config) analyzer.RedRatioEstimator
	CreateSampler(cfg *config.Config) analyzer.MagnitudeSampler
	CreateAnalyzer(cfg *config.Config) analyzer.ImageAnalyzer
}

// SourceFactory creates the image source a scan reads from
type SourceFactory interface {
	CreateSource(cfg *config.Config) (storage.Source, error)
}

type analyzerFactory struct{}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory() AnalyzerFactory {
	return &analyzerFactory{}
}

// Options resolves the pixel thresholds and batch worker count from cfg
func (f *analyzerFactory) Options(cfg *config.Config) analyzer.Options {
	return analyzer.DefaultOptions().
		WithThresholds(cfg.RedThreshold, cfg.Tolerance).
		WithWorkers(cfg.Workers)
}

func (f *analyzerFactory) CreateEstimator(cfg *config.Config) analyzer.RedRatioEstimator {
	return analyzer.NewRedRatioEstimator(f.Options(cfg))
}

// CreateSampler seeds from cfg.Seed; 0 seeds from the clock
func (f *analyzerFactory) CreateSampler(cfg *config.Config) analyzer.MagnitudeSampler {
	return analyzer.NewSeededSampler(cfg.Seed)
}

func (f *analyzerFactory) CreateAnalyzer(cfg *config.Config) analyzer.ImageAnalyzer {
	return analyzer.NewImageAnalyzer(f.Options(cfg), f.CreateSampler(cfg))
}

type sourceFactory struct{}

// NewSourceFactory creates a new source factory
func NewSourceFactory() SourceFactory {
	return &sourceFactory{}
}

// CreateSource returns a local directory or an Azure container source
func (f *sourceFactory) CreateSource(cfg *config.Config) (storage.Source, error) {
	switch cfg.Source {
	case config.SourceLocal, "":
		return storage.NewLocalSource(cfg.InputDir), nil
	case config.SourceAzure:
		src, err := storage.NewAzureSource(cfg.Azure.AccountName, cfg.Azure.AccountKey, cfg.Azure.Container, cfg.Azure.Endpoint)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Source)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	SourceFactory   SourceFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(),
		SourceFactory:   NewSourceFactory(),
	}
}
