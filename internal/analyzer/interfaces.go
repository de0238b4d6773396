package analyzer

import (
	"image"

	"github.com/anime-shed/red-inspector-go/pkg/models"
)

// RedRatioEstimator measures the share of red pixels in an image
type RedRatioEstimator interface {
	// Estimate classifies every pixel of an already decoded image
	Estimate(img image.Image) models.RedRatio

	// EstimateFile decodes the image at path and estimates it. It is the
	// file-level entry point for library callers; batch runs read through a
	// storage.Source and call Estimate. Undecodable or missing files yield a
	// not_found AppError.
	EstimateFile(path string) (models.RedRatio, error)
}

// MagnitudeSampler maps a red percentage to a randomized magnitude
type MagnitudeSampler interface {
	Sample(redPercentage float64) float64
}

// ImageAnalyzer runs the estimator and the sampler over one image
type ImageAnalyzer interface {
	Analyze(name string, img image.Image) models.AnalysisResult
}
