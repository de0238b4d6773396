package repository

import (
	"context"
	"image"

	"github.com/anime-shed/red-inspector-go/pkg/models"
)

// ImageRepository gives access to remote images
type ImageRepository interface {
	// FetchImage downloads and decodes the image at imageURL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL reports whether imageURL may be fetched
	ValidateImageURL(imageURL string) error
}

// AnalysisRepository stores analysis results produced by the API
type AnalysisRepository interface {
	// SaveAnalysisResult stores result under result.ID
	SaveAnalysisResult(ctx context.Context, result *models.AnalysisResult) error

	// GetAnalysisResult returns ErrAnalysisNotFound for unknown ids
	GetAnalysisResult(ctx context.Context, id string) (*models.AnalysisResult, error)

	// GetAnalysisHistory returns every stored result for an image, oldest first
	GetAnalysisHistory(ctx context.Context, image string) ([]*models.AnalysisResult, error)
}
