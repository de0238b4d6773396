package repository

import (
	"context"
	"sync"

	"github.com/anime-shed/red-inspector-go/pkg/models"
)

// DefaultMaxResults bounds how many results the in-memory store keeps
const DefaultMaxResults = 1000

// MemoryAnalysisRepository keeps results in process memory. Once full, the
// oldest result is evicted.
type MemoryAnalysisRepository struct {
	mu      sync.RWMutex
	max     int
	results map[string]*models.AnalysisResult
	order   []string
}

// NewMemoryAnalysisRepository keeps at most maxResults results; values below
// 1 use DefaultMaxResults.
func NewMemoryAnalysisRepository(maxResults int) *MemoryAnalysisRepository {
	if maxResults < 1 {
		maxResults = DefaultMaxResults
	}
	return &MemoryAnalysisRepository{
		max:     maxResults,
		results: make(map[string]*models.AnalysisResult),
	}
}

func (r *MemoryAnalysisRepository) SaveAnalysisResult(ctx context.Context, result *models.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return ErrMissingID
	}

	stored := *result

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.results[stored.ID]; !exists {
		r.order = append(r.order, stored.ID)
	}
	r.results[stored.ID] = &stored

	for len(r.order) > r.max {
		delete(r.results, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *MemoryAnalysisRepository) GetAnalysisResult(ctx context.Context, id string) (*models.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[id]
	if !ok {
		return nil, ErrAnalysisNotFound
	}
	out := *result
	return &out, nil
}

func (r *MemoryAnalysisRepository) GetAnalysisHistory(ctx context.Context, image string) ([]*models.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var history []*models.AnalysisResult
	for _, id := range r.order {
		if result := r.results[id]; result.Image == image {
			out := *result
			history = append(history, &out)
		}
	}
	return history, nil
}
