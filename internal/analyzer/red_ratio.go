package analyzer

import (
	"image"

	"github.com/anime-shed/red-inspector-go/pkg/models"
	"github.com/disintegration/imaging"
)

type redRatioEstimator struct {
	threshold int
	tolerance int
}

// NewRedRatioEstimator creates an estimator using the thresholds in opts
func NewRedRatioEstimator(opts Options) RedRatioEstimator {
	return &redRatioEstimator{
		threshold: opts.RedThreshold,
		tolerance: opts.Tolerance,
	}
}

func (e *redRatioEstimator) EstimateFile(path string) (models.RedRatio, error) {
	img, err := OpenImage(path)
	if err != nil {
		return models.RedRatio{}, err
	}
	return e.Estimate(img), nil
}

func (e *redRatioEstimator) Estimate(img image.Image) models.RedRatio {
	// Clone normalises any decoded model (YCbCr, paletted, premultiplied RGBA)
	// to straight 8-bit NRGBA, so alpha never scales the colour channels.
	px := imaging.Clone(img)
	width, height := px.Rect.Dx(), px.Rect.Dy()

	total := width * height
	if total == 0 {
		return models.RedRatio{}
	}

	red := 0
	for y := 0; y < height; y++ {
		row := px.Pix[y*px.Stride : y*px.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			if e.isRed(int(row[i]), int(row[i+1]), int(row[i+2])) {
				red++
			}
		}
	}

	return models.RedRatio{
		RedPixels:   red,
		TotalPixels: total,
		Percentage:  float64(red) / float64(total) * 100,
	}
}

func (e *redRatioEstimator) isRed(r, g, b int) bool {
	return r > e.threshold && r-g > e.tolerance && r-b > e.tolerance
}
