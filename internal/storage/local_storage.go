package storage

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anime-shed/red-inspector-go/internal/analyzer"
)

// LocalSource reads images from a single directory, without recursion.
// Every entry with an image extension is listed, directories included, so a
// directory named like an image fails at Open as a per-file error.
type LocalSource struct {
	dir string
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

func (s *LocalSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return filterImageNames(names), nil
}

func (s *LocalSource) Open(ctx context.Context, name string) (image.Image, error) {
	return analyzer.OpenImage(filepath.Join(s.dir, name))
}

func (s *LocalSource) String() string {
	return s.dir
}
