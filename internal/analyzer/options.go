package analyzer

// Options configures the red pixel test and how many files are estimated at once
type Options struct {
	// A pixel is red when R > RedThreshold and R exceeds both G and B by more than Tolerance.
	RedThreshold int
	Tolerance    int

	// MaxWorkers bounds concurrent estimation in batch runs; 1 is sequential
	MaxWorkers int
}

// DefaultOptions returns default analysis options
func DefaultOptions() Options {
	return Options{
		RedThreshold: 200,
		Tolerance:    50,
		MaxWorkers:   1,
	}
}

// WithThresholds returns options with a custom red threshold and channel tolerance
func (opts Options) WithThresholds(redThreshold, tolerance int) Options {
	opts.RedThreshold = redThreshold
	opts.Tolerance = tolerance
	return opts
}

// WithWorkers returns options that estimate up to n files concurrently
func (opts Options) WithWorkers(n int) Options {
	if n < 1 {
		n = 1
	}
	opts.MaxWorkers = n
	return opts
}
