package analyzer

import (
	"image"
	"time"

	"github.com/anime-shed/red-inspector-go/pkg/models"
)

// coreAnalyzer implements ImageAnalyzer by chaining the estimator and the sampler
type coreAnalyzer struct {
	estimator RedRatioEstimator
	sampler   MagnitudeSampler
}

// NewImageAnalyzer creates an analyzer with the given thresholds and sampler
func NewImageAnalyzer(opts Options, sampler MagnitudeSampler) ImageAnalyzer {
	return &coreAnalyzer{
		estimator: NewRedRatioEstimator(opts),
		sampler:   sampler,
	}
}

func (ca *coreAnalyzer) Analyze(name string, img image.Image) models.AnalysisResult {
	start := time.Now()

	ratio := ca.estimator.Estimate(img)

	return models.AnalysisResult{
		Image:             name,
		Timestamp:         start,
		RedPixels:         ratio.RedPixels,
		TotalPixels:       ratio.TotalPixels,
		RedPercentage:     ratio.Percentage,
		Magnitude:         ca.sampler.Sample(ratio.Percentage),
		ProcessingTimeSec: time.Since(start).Seconds(),
	}
}
