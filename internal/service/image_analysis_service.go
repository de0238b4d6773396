package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/anime-shed/red-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/red-inspector-go/internal/errors"
	"github.com/anime-shed/red-inspector-go/internal/observer"
	"github.com/anime-shed/red-inspector-go/internal/repository"
	"github.com/anime-shed/red-inspector-go/pkg/models"
	"github.com/google/uuid"
)

// ImageAnalysisService runs single image analyses for the HTTP API
type ImageAnalysisService interface {
	// AnalyzeURL downloads imageURL and analyses it
	AnalyzeURL(ctx context.Context, imageURL string) (*models.AnalysisResult, error)

	// AnalyzeUpload decodes an uploaded image and analyses it
	AnalyzeUpload(ctx context.Context, filename string, r io.Reader) (*models.AnalysisResult, error)

	// GetAnalysis returns a stored result, or a not_found AppError
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisResult, error)

	// GetAnalysisHistory returns every stored result for image, oldest first
	GetAnalysisHistory(ctx context.Context, image string) ([]*models.AnalysisResult, error)
}

type imageAnalysisService struct {
	imageRepo    repository.ImageRepository
	analysisRepo repository.AnalysisRepository
	analyzer     analyzer.ImageAnalyzer
	events       observer.Subject
	newID        func() string
}

// NewImageAnalysisService creates a new image analysis service. events may be nil.
func NewImageAnalysisService(
	imageRepository repository.ImageRepository,
	analysisRepository repository.AnalysisRepository,
	imageAnalyzer analyzer.ImageAnalyzer,
	events observer.Subject,
) ImageAnalysisService {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &imageAnalysisService{
		imageRepo:    imageRepository,
		analysisRepo: analysisRepository,
		analyzer:     imageAnalyzer,
		events:       events,
		newID:        uuid.NewString,
	}
}

func (s *imageAnalysisService) AnalyzeURL(ctx context.Context, imageURL string) (*models.AnalysisResult, error) {
	if err := s.imageRepo.ValidateImageURL(imageURL); err != nil {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	start := time.Now()
	img, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		err = classifyFetchError(err)
		s.publishFailure(ctx, imageURL, start, err)
		return nil, err
	}

	return s.analyze(ctx, imageURL, img, start)
}

func (s *imageAnalysisService) AnalyzeUpload(ctx context.Context, filename string, r io.Reader) (*models.AnalysisResult, error) {
	if filename == "" {
		filename = "upload"
	}

	start := time.Now()
	img, err := analyzer.DecodeImage(r, filename)
	if err != nil {
		s.publishFailure(ctx, filename, start, err)
		return nil, err
	}

	return s.analyze(ctx, filename, img, start)
}

func (s *imageAnalysisService) GetAnalysis(ctx context.Context, id string) (*models.AnalysisResult, error) {
	result, err := s.analysisRepo.GetAnalysisResult(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAnalysisNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("analysis %s not found", id), err)
		}
		return nil, apperrors.NewInternalError("failed to load analysis", err)
	}
	return result, nil
}

func (s *imageAnalysisService) GetAnalysisHistory(ctx context.Context, image string) ([]*models.AnalysisResult, error) {
	if image == "" {
		return nil, apperrors.NewValidationError("image is required", nil)
	}

	history, err := s.analysisRepo.GetAnalysisHistory(ctx, image)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load analysis history", err)
	}
	return history, nil
}

func (s *imageAnalysisService) analyze(ctx context.Context, name string, img image.Image, start time.Time) (*models.AnalysisResult, error) {
	result := s.analyzer.Analyze(name, img)
	result.ID = s.newID()
	result.Timestamp = start
	result.ProcessingTimeSec = time.Since(start).Seconds()

	if err := s.analysisRepo.SaveAnalysisResult(ctx, &result); err != nil {
		return nil, apperrors.NewInternalError("failed to store analysis", err)
	}

	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Image:          name,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"id":             result.ID,
			"red_percentage": result.RedPercentage,
			"magnitude":      result.Magnitude,
		},
	})
	return &result, nil
}

func (s *imageAnalysisService) publishFailure(ctx context.Context, name string, start time.Time, err error) {
	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		Image:          name,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

// classifyFetchError keeps decode failures as they are and maps everything
// else to a timeout or network AppError.
func classifyFetchError(err error) error {
	if apperrors.IsType(err, apperrors.ErrorTypeProcessing) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("image fetch timeout", err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}
