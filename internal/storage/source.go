package storage

import (
	"context"
	"image"
	"path"
	"sort"
	"strings"
)

// ImageExtensions are the file extensions a scan picks up, compared lower-cased.
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

// Source enumerates and opens the images of one batch input.
type Source interface {
	// List returns image names in lexicographic order
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (image.Image, error)
	String() string
}

// IsImageFile reports whether name carries one of ImageExtensions.
func IsImageFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// filterImageNames keeps image names and sorts them.
func filterImageNames(names []string) []string {
	images := make([]string, 0, len(names))
	for _, name := range names {
		if IsImageFile(name) {
			images = append(images, name)
		}
	}
	sort.Strings(images)
	return images
}
