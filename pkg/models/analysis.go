package models

import "time"

// Record is one row of the batch report.
type Record struct {
	Image         string  `json:"image"`
	RedPercentage float64 `json:"red_percentage"`
	Magnitude     float64 `json:"magnitude"`
}

// RedRatio is the outcome of the red pixel test over one decoded image.
type RedRatio struct {
	RedPixels   int     `json:"red_pixels"`
	TotalPixels int     `json:"total_pixels"`
	Percentage  float64 `json:"red_percentage"`
}

// AnalysisResult represents a single image analysis produced by the API.
type AnalysisResult struct {
	ID                string    `json:"id"`
	Image             string    `json:"image"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`
	RedPixels         int       `json:"red_pixels"`
	TotalPixels       int       `json:"total_pixels"`
	RedPercentage     float64   `json:"red_percentage"`
	Magnitude         float64   `json:"magnitude"`
}

// Record returns the report row for this analysis.
func (r *AnalysisResult) Record() Record {
	return Record{
		Image:         r.Image,
		RedPercentage: r.RedPercentage,
		Magnitude:     r.Magnitude,
	}
}
