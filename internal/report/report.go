package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/anime-shed/red-inspector-go/pkg/models"
)

// Header is the first CSV row
var Header = []string{"Image", "Red Percentage", "Magnitude"}

// WriteCSV writes the header and one row per record, CRLF-terminated.
// Names holding a comma, a quote, a line break or a leading space are quoted.
func WriteCSV(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Image,
			strconv.FormatFloat(r.RedPercentage, 'f', 2, 64),
			strconv.FormatFloat(r.Magnitude, 'f', 1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates (or truncates) path and writes the report to it.
func WriteCSVFile(path string, records []models.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}

	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return f.Close()
}

// FormatLine renders one console summary line.
func FormatLine(r models.Record) string {
	return fmt.Sprintf("%-25s -> %6.2f%% red | Magnitude: %.1f", r.Image, r.RedPercentage, r.Magnitude)
}

// PrintSummary prints every record, then a blank line and the report location.
func PrintSummary(w io.Writer, records []models.Record, csvPath string) error {
	for _, r := range records {
		if _, err := fmt.Fprintln(w, FormatLine(r)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nResults saved to '%s'\n", csvPath)
	return err
}
