package analyzer

import (
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.RedThreshold != 200 {
		t.Errorf("Expected RedThreshold to be 200, got %d", opts.RedThreshold)
	}
	if opts.Tolerance != 50 {
		t.Errorf("Expected Tolerance to be 50, got %d", opts.Tolerance)
	}
	if opts.MaxWorkers != 1 {
		t.Errorf("Expected MaxWorkers to be 1 by default, got %d", opts.MaxWorkers)
	}
}

func TestWithThresholds(t *testing.T) {
	opts := DefaultOptions().WithThresholds(180, 40)

	if opts.RedThreshold != 180 {
		t.Errorf("Expected RedThreshold to be 180, got %d", opts.RedThreshold)
	}
	if opts.Tolerance != 40 {
		t.Errorf("Expected Tolerance to be 40, got %d", opts.Tolerance)
	}
}

func TestWithWorkers(t *testing.T) {
	if got := DefaultOptions().WithWorkers(4).MaxWorkers; got != 4 {
		t.Errorf("Expected MaxWorkers to be 4, got %d", got)
	}
	if got := DefaultOptions().WithWorkers(0).MaxWorkers; got != 1 {
		t.Errorf("Expected non-positive worker count to fall back to 1, got %d", got)
	}
}

func TestChainedOptions(t *testing.T) {
	base := DefaultOptions()
	opts := base.WithThresholds(220, 60).WithWorkers(3)

	if opts.RedThreshold != 220 || opts.Tolerance != 60 || opts.MaxWorkers != 3 {
		t.Errorf("Unexpected chained options: %+v", opts)
	}
	// Builders return copies
	if base.RedThreshold != 200 || base.MaxWorkers != 1 {
		t.Errorf("Expected base options to be unchanged, got %+v", base)
	}
}
