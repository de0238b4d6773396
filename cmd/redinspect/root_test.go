package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/anime-shed/red-inspector-go/internal/config"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh command tree and returns everything written to stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	// a nil slice makes cobra fall back to os.Args
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

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

var summaryLine = regexp.MustCompile(`^(\S+)\s* -> \s*(\d+\.\d{2})% red \| Magnitude: (\d+\.\d)$`)

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "b.png", 10)
	writePlot(t, dir, "a.png", 50)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("junk"), 0644))
	csvPath := filepath.Join(t.TempDir(), "report.csv")

	out, err := execute(t, "scan", "-i", dir, "-o", csvPath, "--seed", "3", "--log-level", "error")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5, out)
	assert.True(t, strings.HasPrefix(lines[0], "Error processing broken.jpg: "), lines[0])

	first := summaryLine.FindStringSubmatch(lines[1])
	require.NotNil(t, first, lines[1])
	assert.Equal(t, "a.png", first[1])
	assert.Equal(t, "50.00", first[2])

	second := summaryLine.FindStringSubmatch(lines[2])
	require.NotNil(t, second, lines[2])
	assert.Equal(t, "b.png", second[1])
	assert.Equal(t, "10.00", second[2])

	assert.Equal(t, "", lines[3])
	assert.Equal(t, "Results saved to '"+csvPath+"'", lines[4])

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSuffix(string(data), "\r\n"), "\r\n")
	require.Len(t, rows, 3)
	assert.Equal(t, "Image,Red Percentage,Magnitude", rows[0])
	assert.Equal(t, "a.png,50.00,"+first[3], rows[1])
	assert.Equal(t, "b.png,10.00,"+second[3], rows[2])
}

func TestScan_IsDefaultCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(t.TempDir(), "empty.csv")

	out, err := execute(t, "-i", dir, "-o", csvPath, "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, "\nResults saved to '"+csvPath+"'\n", out)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Image,Red Percentage,Magnitude\r\n", string(data))
}

func TestScan_SeedIsReproducible(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"p1.png", "p2.png", "p3.png"} {
		writePlot(t, dir, name, i+1)
	}
	out := t.TempDir()

	first, err := execute(t, "-i", dir, "-o", filepath.Join(out, "r.csv"), "--seed", "11", "--log-level", "error")
	require.NoError(t, err)
	second, err := execute(t, "-i", dir, "-o", filepath.Join(out, "r.csv"), "--seed", "11", "--workers", "3", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScan_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "plot.png", 20)
	csvPath := filepath.Join(t.TempDir(), "env.csv")
	t.Setenv("REDINSPECT_INPUT_DIR", dir)
	t.Setenv("REDINSPECT_OUTPUT_FILE", csvPath)
	t.Setenv("REDINSPECT_LOG_LEVEL", "error")

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "plot.png")
	assert.FileExists(t, csvPath)
}

func TestScan_Errors(t *testing.T) {
	tmp := t.TempDir()

	_, err := execute(t, "scan", "-i", filepath.Join(tmp, "absent"), "-o", filepath.Join(tmp, "r.csv"), "--log-level", "error")
	assert.Error(t, err)

	_, err = execute(t, "scan", "-i", tmp, "--red-threshold", "300")
	assert.ErrorContains(t, err, "red_threshold")

	_, err = execute(t, "scan", "-i", tmp, "--log-format", "xml")
	assert.Error(t, err)

	_, err = execute(t, "scan", "--config", filepath.Join(tmp, "missing.yaml"))
	assert.Error(t, err)
}

func TestScan_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	writePlot(t, dir, "plot.png", 40)
	csvPath := filepath.Join(t.TempDir(), "cfg.csv")

	cfgPath := filepath.Join(t.TempDir(), "redinspect.yaml")
	content := "input_dir: " + dir + "\noutput_file: " + csvPath + "\nseed: 5\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	out, err := execute(t, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, " 40.00% red")
	assert.FileExists(t, csvPath)
}

func TestVersionCommand(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	defer func() { Version, Commit, Date = oldVersion, oldCommit, oldDate }()

	Version, Commit, Date = "1.2.3", "abc123", "2025-01-01"

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "redinspect 1.2.3")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "2025-01-01")
}

func TestNewServer(t *testing.T) {
	cfg, err := config.Load(config.New())
	require.NoError(t, err)
	cfg.Log.Level = "error"

	server, err := newServer(cfg)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", server.Addr)
	assert.Equal(t, cfg.Server.RequestTimeout, server.ReadTimeout)
	assert.NotNil(t, server.Handler)
}

func TestRunServer_StopsOnCancel(t *testing.T) {
	cfg, err := config.Load(config.New())
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, runServer(ctx, cfg))
}
