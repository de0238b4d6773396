package analyzer

import (
	"fmt"
	"image"
	"io"

	apperrors "github.com/anime-shed/red-inspector-go/internal/errors"
	"github.com/disintegration/imaging"
)

// OpenImage decodes the image file at path. A file that is missing or
// cannot be decoded is reported as a not_found AppError.
func OpenImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("image not found: %s", path), err)
	}
	return img, nil
}

// DecodeImage decodes an image stream such as an upload or a download body.
func DecodeImage(r io.Reader, name string) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to decode image %s", name), err)
	}
	return img, nil
}
