package pipeline

import (
	"fmt"
	"io"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// Result is the outcome of one input image. Err is set when any stage failed.
type Result struct {
	Folder     string
	Image      string
	Night      bool
	Metrics    MaskMetrics
	Success    bool
	OutputPath string
	Duration   time.Duration
	Err        error
}

// FolderReport aggregates the results of one dataset folder. Total counts every
// directory entry, including images that failed to load.
type FolderReport struct {
	Name      string
	Total     int
	Successes int
	Night     int
	Results   []Result
	Err       error
}

func (f FolderReport) Day() int {
	return f.Total - f.Night
}

func (f FolderReport) Failures() int {
	n := 0
	for _, r := range f.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// SuccessRate is successes / total * 100, rounded to two decimals.
func (f FolderReport) SuccessRate() float64 {
	if f.Total == 0 {
		return 0
	}
	return roundTo(float64(f.Successes)/float64(f.Total)*100, 2)
}

type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Folders    []FolderReport
	Cancelled  bool
}

// SuccessRates maps folder name to success rate.
func (r Report) SuccessRates() map[string]float64 {
	rates := make(map[string]float64, len(r.Folders))
	for _, f := range r.Folders {
		rates[f.Name] = f.SuccessRate()
	}
	return rates
}

func (r Report) TotalImages() int {
	n := 0
	for _, f := range r.Folders {
		n += f.Total
	}
	return n
}

func (r Report) TotalSuccesses() int {
	n := 0
	for _, f := range r.Folders {
		n += f.Successes
	}
	return n
}

type yamlResult struct {
	Image    string  `yaml:"image"`
	Night    bool    `yaml:"night"`
	Accuracy float64 `yaml:"accuracy"`
	IoU      float64 `yaml:"iou"`
	Dice     float64 `yaml:"dice"`
	Success  bool    `yaml:"success"`
	Output   string  `yaml:"output,omitempty"`
	Error    string  `yaml:"error,omitempty"`
}

type yamlFolder struct {
	Name        string       `yaml:"name"`
	SuccessRate float64      `yaml:"success_rate"`
	Total       int          `yaml:"total"`
	Successes   int          `yaml:"successes"`
	Night       int          `yaml:"night"`
	Day         int          `yaml:"day"`
	Error       string       `yaml:"error,omitempty"`
	Images      []yamlResult `yaml:"images,omitempty"`
}

type yamlReport struct {
	StartedAt  time.Time          `yaml:"started_at"`
	FinishedAt time.Time          `yaml:"finished_at"`
	Cancelled  bool               `yaml:"cancelled,omitempty"`
	Rates      map[string]float64 `yaml:"success_rates"`
	Folders    []yamlFolder       `yaml:"folders"`
}

func (r Report) WriteYAML(w io.Writer) error {
	out := yamlReport{
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Cancelled:  r.Cancelled,
		Rates:      r.SuccessRates(),
		Folders:    make([]yamlFolder, 0, len(r.Folders)),
	}

	for _, f := range r.Folders {
		yf := yamlFolder{
			Name:        f.Name,
			SuccessRate: f.SuccessRate(),
			Total:       f.Total,
			Successes:   f.Successes,
			Night:       f.Night,
			Day:         f.Day(),
			Error:       errString(f.Err),
		}
		for _, res := range f.Results {
			yf.Images = append(yf.Images, yamlResult{
				Image:    res.Image,
				Night:    res.Night,
				Accuracy: roundTo(res.Metrics.Accuracy, 4),
				IoU:      roundTo(res.Metrics.IoU, 4),
				Dice:     roundTo(res.Metrics.Dice, 4),
				Success:  res.Success,
				Output:   res.OutputPath,
				Error:    errString(res.Err),
			})
		}
		out.Folders = append(out.Folders, yf)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
