package batch

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/anime-shed/red-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/red-inspector-go/internal/errors"
	"github.com/anime-shed/red-inspector-go/internal/observer"
	"github.com/anime-shed/red-inspector-go/internal/storage"
	"github.com/anime-shed/red-inspector-go/pkg/models"
)

// Driver scans a source, estimates every image and samples its magnitude.
// A file that fails is reported and skipped; it never aborts the run.
type Driver struct {
	source    storage.Source
	estimator analyzer.RedRatioEstimator
	sampler   analyzer.MagnitudeSampler
	events    observer.Subject
	console   io.Writer
	workers   int
	runID     string
}

// Option customises a Driver
type Option func(*Driver)

// WithWorkers estimates up to n images concurrently. Output is identical to
// a sequential run.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithEvents publishes scan and per-image events to s
func WithEvents(s observer.Subject) Option {
	return func(d *Driver) { d.events = s }
}

// WithConsole sets where per-file error lines are printed
func WithConsole(w io.Writer) Option {
	return func(d *Driver) { d.console = w }
}

// WithRunID tags published events
func WithRunID(id string) Option {
	return func(d *Driver) { d.runID = id }
}

func NewDriver(source storage.Source, estimator analyzer.RedRatioEstimator, sampler analyzer.MagnitudeSampler, opts ...Option) *Driver {
	d := &Driver{
		source:    source,
		estimator: estimator,
		sampler:   sampler,
		events:    observer.NewEventPublisher(),
		console:   io.Discard,
		workers:   1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type outcome struct {
	ratio    models.RedRatio
	err      error
	duration time.Duration
}

// Run processes every image of the source and returns the records sorted by
// red percentage, highest first. Images with equal percentages keep their
// listing order. Only a failure to list the source is returned as an error.
func (d *Driver) Run(ctx context.Context) ([]models.Record, error) {
	names, err := d.source.List(ctx)
	if err != nil {
		return nil, err
	}

	d.publish(ctx, observer.AnalysisEvent{
		EventType: observer.ScanStarted,
		Metadata:  map[string]interface{}{"source": d.source.String(), "images": len(names)},
	})

	outcomes, err := d.estimateAll(ctx, names)
	if err != nil {
		return nil, err
	}

	// Magnitudes are drawn in listing order so a seeded run is reproducible
	// whatever the worker count.
	records := make([]models.Record, 0, len(names))
	for i, name := range names {
		o := outcomes[i]
		if o.err != nil {
			fmt.Fprintf(d.console, "Error processing %s: %v\n", name, o.err)
			d.publish(ctx, observer.AnalysisEvent{
				EventType:      observer.AnalysisFailed,
				Image:          name,
				ProcessingTime: o.duration,
				ErrorMessage:   o.err.Error(),
			})
			continue
		}

		record := models.Record{
			Image:         name,
			RedPercentage: o.ratio.Percentage,
			Magnitude:     d.sampler.Sample(o.ratio.Percentage),
		}
		records = append(records, record)

		d.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisCompleted,
			Image:          name,
			ProcessingTime: o.duration,
			Success:        true,
			Metadata: map[string]interface{}{
				"red_percentage": record.RedPercentage,
				"magnitude":      record.Magnitude,
			},
		})
	}

	SortByRedPercentage(records)

	d.publish(ctx, observer.AnalysisEvent{
		EventType: observer.ScanCompleted,
		Success:   true,
		Metadata: map[string]interface{}{
			"processed": len(records),
			"failed":    len(names) - len(records),
		},
	})
	return records, nil
}

// SortByRedPercentage orders records by red percentage, highest first,
// keeping the relative order of ties.
func SortByRedPercentage(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RedPercentage > records[j].RedPercentage
	})
}

func (d *Driver) estimateAll(ctx context.Context, names []string) ([]outcome, error) {
	outcomes := make([]outcome, len(names))

	if d.workers <= 1 || len(names) <= 1 {
		for i, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = d.estimate(ctx, name)
		}
		return outcomes, nil
	}

	pool := analyzer.NewWorkerPool(d.workers)
	pool.Start()
	defer pool.Close()

	for i, name := range names {
		if ctx.Err() != nil {
			break
		}
		idx, n := i, name
		pool.Submit(func() {
			outcomes[idx] = d.estimate(ctx, n)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (d *Driver) estimate(ctx context.Context, name string) (o outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: apperrors.NewInternalError(fmt.Sprintf("panic while processing %s: %v", name, r), nil)}
		}
		o.duration = time.Since(start)
	}()

	img, err := d.source.Open(ctx, name)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{ratio: d.estimator.Estimate(img)}
}

func (d *Driver) publish(ctx context.Context, event observer.AnalysisEvent) {
	event.RunID = d.runID
	d.events.NotifyObservers(ctx, event)
}
