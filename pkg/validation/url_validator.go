package validation

import (
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/anime-shed/red-inspector-go/internal/errors"
)

// URLValidator decides which remote images the API is willing to download
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts any http or https host
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithOptions([]string{"http", "https"}, nil)
}

// NewURLValidatorWithOptions restricts schemes and, when hosts is not empty,
// the host names an image may be fetched from. Comparison ignores case and ports.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	v := &URLValidator{}
	for _, s := range schemes {
		v.allowedSchemes = append(v.allowedSchemes, strings.ToLower(s))
	}
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			v.allowedHosts = append(v.allowedHosts, strings.ToLower(h))
		}
	}
	return v
}

// ValidateImageURL returns a validation AppError when imageURL may not be fetched
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Hostname() == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	return slices.Contains(v.allowedSchemes, strings.ToLower(scheme))
}

// isHostAllowed is true for every host when no restriction is configured
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	return slices.Contains(v.allowedHosts, strings.ToLower(host))
}
