package pipeline

import (
	"context"
	"image"
	"time"

	"skyline-detector/internal/opencv/safe"
	"skyline-detector/internal/skyline"
)

type Logger interface {
	Debug(component string, message string, fields map[string]interface{})
	Info(component string, message string, fields map[string]interface{})
	Warning(component string, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

type TimingTracker interface {
	StartTiming(operation string) context.Context
	EndTiming(ctx context.Context)
	Record(operation string, duration time.Duration)
}

// NightClassifier decides which reconstruction branch an image takes.
type NightClassifier interface {
	IsNight(bgr *safe.Mat) (bool, error)
}

// DaySkyDetector produces the rough sky mask of a day-time grayscale image.
type DaySkyDetector interface {
	SkyRegion(ctx context.Context, gray *safe.Mat) (*skyline.Mask, error)
}

// ImageLoader decodes one input image as BGR. The caller owns the result.
type ImageLoader interface {
	Load(path string) (*safe.Mat, error)
}

// GroundTruthStore returns the labelled sky mask of a folder.
type GroundTruthStore interface {
	Load(folder string) (*skyline.Mask, error)
}

// ArtifactSaver persists the boundary ring of one image and returns where it went.
type ArtifactSaver interface {
	Save(folder, name string, ring *skyline.Mask) (string, error)
}

// Frame is a decoded snapshot of one processed image, detached from OpenCV memory.
type Frame struct {
	Folder      string
	Image       string
	Accuracy    float64
	Night       bool
	GroundTruth *image.Gray
	Mask        *image.Gray
	Skyline     *image.Gray
}

// Observer is notified after every successfully scored image.
type Observer interface {
	ImageProcessed(frame Frame)
}
