package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/anime-shed/red-inspector-go/internal/analyzer"
	"github.com/anime-shed/red-inspector-go/internal/observer"
	"github.com/anime-shed/red-inspector-go/internal/storage"
	"github.com/anime-shed/red-inspector-go/pkg/models"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePlot saves a 10x10 png whose first redPixels pixels are pure red
func writePlot(t *testing.T, dir, name string, redPixels int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < 100; i++ {
		c := color.NRGBA{0, 0, 0, 255}
		if i < redPixels {
			c = color.NRGBA{255, 0, 0, 255}
		}
		img.Set(i%10, i/10, c)
	}
	require.NoError(t, imaging.Save(img, filepath.Join(dir, name)))
}

func newDriver(dir string, seed int64, opts ...Option) *Driver {
	return NewDriver(
		storage.NewLocalSource(dir),
		analyzer.NewRedRatioEstimator(analyzer.DefaultOptions()),
		analyzer.NewSeededSampler(seed),
		opts...,
	)
}

func TestDriver_SortsByRedPercentage(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "a.png", 10)
	writePlot(t, dir, "b.png", 50)
	writePlot(t, dir, "c.png", 0)

	records, err := newDriver(dir, 1).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "b.png", records[0].Image)
	assert.InDelta(t, 50.0, records[0].RedPercentage, 1e-9)
	assert.Equal(t, "a.png", records[1].Image)
	assert.InDelta(t, 10.0, records[1].RedPercentage, 1e-9)
	assert.Equal(t, "c.png", records[2].Image)
	assert.Equal(t, 0.0, records[2].RedPercentage)

	for _, r := range records {
		b := analyzer.BracketFor(r.RedPercentage)
		assert.GreaterOrEqual(t, r.Magnitude, b.Min, r.Image)
		assert.LessOrEqual(t, r.Magnitude, b.Max, r.Image)
	}
}

func TestDriver_TiesKeepListingOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"d.png", "b.png", "a.png", "c.png"} {
		writePlot(t, dir, name, 25)
	}

	records, err := newDriver(dir, 1).Run(context.Background())
	require.NoError(t, err)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Image
	}
	assert.Equal(t, []string{"a.png", "b.png", "c.png", "d.png"}, names)
}

func TestDriver_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "good.png", 30)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jpg"), []byte("not an image"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	var console bytes.Buffer
	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)

	records, err := newDriver(dir, 1, WithConsole(&console), WithEvents(events)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "good.png", records[0].Image)
	assert.Contains(t, console.String(), "Error processing bad.jpg: ")
	assert.NotContains(t, console.String(), "notes.txt")

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Scans)
	assert.Equal(t, int64(1), snap.SuccessfulAnalyses)
	assert.Equal(t, int64(1), snap.FailedAnalyses)
}

func TestDriver_ReportsDirectoryNamedLikeImage(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "a.png", 20)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0755))

	var console bytes.Buffer
	records, err := newDriver(dir, 1, WithConsole(&console)).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.png", records[0].Image)
	assert.Contains(t, console.String(), "Error processing sub.png: ")
}

func TestDriver_EmptyDirectory(t *testing.T) {
	var console bytes.Buffer

	records, err := newDriver(t.TempDir(), 1, WithConsole(&console)).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, console.String())
}

func TestDriver_MissingDirectory(t *testing.T) {
	_, err := newDriver(filepath.Join(t.TempDir(), "absent"), 1).Run(context.Background())
	assert.Error(t, err)
}

func TestDriver_WorkersMatchSequentialRun(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"p1.png", "p2.png", "p3.png", "p4.png", "p5.png", "p6.png", "p7.png"} {
		writePlot(t, dir, name, i*13%100)
	}

	sequential, err := newDriver(dir, 42).Run(context.Background())
	require.NoError(t, err)

	concurrent, err := newDriver(dir, 42, WithWorkers(4)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequential, concurrent)
}

type recordingObserver struct {
	events []observer.AnalysisEvent
}

func (o *recordingObserver) OnEvent(ctx context.Context, event observer.AnalysisEvent) {
	o.events = append(o.events, event)
}

func (o *recordingObserver) GetObserverName() string { return "recording" }

func TestDriver_PublishesEvents(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "a.png", 5)

	rec := &recordingObserver{}
	events := observer.NewEventPublisher()
	events.Subscribe(rec)

	_, err := newDriver(dir, 1, WithEvents(events), WithRunID("run-7")).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rec.events, 3)
	assert.Equal(t, observer.ScanStarted, rec.events[0].EventType)
	assert.Equal(t, observer.AnalysisCompleted, rec.events[1].EventType)
	assert.Equal(t, "a.png", rec.events[1].Image)
	assert.Equal(t, observer.ScanCompleted, rec.events[2].EventType)
	for _, e := range rec.events {
		assert.Equal(t, "run-7", e.RunID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

// panicSource lists two images and panics when opening the first
type panicSource struct{}

func (panicSource) List(ctx context.Context) ([]string, error) {
	return []string{"boom.png", "ok.png"}, nil
}

func (panicSource) Open(ctx context.Context, name string) (image.Image, error) {
	if name == "boom.png" {
		panic("decoder exploded")
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (panicSource) String() string { return "panic" }

func TestDriver_RecoversFromPanics(t *testing.T) {
	var console bytes.Buffer
	d := NewDriver(panicSource{}, analyzer.NewRedRatioEstimator(analyzer.DefaultOptions()),
		analyzer.NewSeededSampler(1), WithConsole(&console))

	records, err := d.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ok.png", records[0].Image)
	assert.Contains(t, console.String(), "Error processing boom.png: ")
	assert.Contains(t, console.String(), "decoder exploded")
}

func TestDriver_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "a.png", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDriver(dir, 1).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSortByRedPercentage(t *testing.T) {
	records := []models.Record{
		{Image: "a", RedPercentage: 1},
		{Image: "b", RedPercentage: 3},
		{Image: "c", RedPercentage: 1},
		{Image: "d", RedPercentage: 2},
	}

	SortByRedPercentage(records)

	var got []string
	for _, r := range records {
		got = append(got, r.Image)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
}
