package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"skyline-detector/internal/opencv/conversion"
	"skyline-detector/internal/opencv/safe"
	"skyline-detector/internal/skyline"
)

type Options struct {
	DataDir          string
	SuccessThreshold float64
}

// Dependencies wires the collaborators of a Coordinator. Observer and Timing are optional.
type Dependencies struct {
	Classifier  NightClassifier
	Night       *skyline.NightReconstructor
	Day         DaySkyDetector
	DayPost     *skyline.DayPostProcessor
	Loader      ImageLoader
	GroundTruth GroundTruthStore
	Saver       ArtifactSaver
	Logger      Logger
	Timing      TimingTracker
	Observer    Observer
}

// Coordinator runs the batch: every folder under DataDir, every entry in each
// folder, in name order, one image at a time.
type Coordinator struct {
	opts Options
	deps Dependencies
}

func NewCoordinator(opts Options, deps Dependencies) (*Coordinator, error) {
	switch {
	case deps.Classifier == nil:
		return nil, fmt.Errorf("night classifier is required")
	case deps.Night == nil:
		return nil, fmt.Errorf("night reconstructor is required")
	case deps.Day == nil:
		return nil, fmt.Errorf("day sky detector is required")
	case deps.Loader == nil || deps.GroundTruth == nil || deps.Saver == nil:
		return nil, fmt.Errorf("loader, ground truth store and saver are required")
	}
	if deps.DayPost == nil {
		deps.DayPost = skyline.NewDayPostProcessor()
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}

	if deps.Timing != nil {
		deps.Night.SetObserver(deps.Timing.Record)
		deps.DayPost.SetObserver(deps.Timing.Record)
	}

	return &Coordinator{opts: opts, deps: deps}, nil
}

// Run processes the whole dataset. Per-image failures are recorded in the report and
// never stop the batch. Cancelling ctx stops between images; the partial report is
// returned together with ctx.Err().
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	report := Report{StartedAt: time.Now()}

	entries, err := os.ReadDir(c.opts.DataDir)
	if err != nil {
		return report, fmt.Errorf("failed to list data directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		folder := c.processFolder(ctx, entry.Name())
		report.Folders = append(report.Folders, folder)
	}

	if err := ctx.Err(); err != nil {
		report.Cancelled = true
		report.FinishedAt = time.Now()
		c.deps.Logger.Warning("Coordinator", "batch cancelled", map[string]interface{}{
			"folders_done": len(report.Folders),
		})
		return report, err
	}

	report.FinishedAt = time.Now()
	return report, nil
}

func (c *Coordinator) processFolder(ctx context.Context, name string) FolderReport {
	log := c.deps.Logger
	folder := FolderReport{Name: name}

	if c.deps.Timing != nil {
		tctx := c.deps.Timing.StartTiming("folder")
		defer c.deps.Timing.EndTiming(tctx)
	}

	log.Info("Coordinator", "processing folder", map[string]interface{}{"folder": name})

	entries, err := os.ReadDir(filepath.Join(c.opts.DataDir, name))
	if err != nil {
		folder.Err = err
		log.Error("Coordinator", err, map[string]interface{}{"folder": name})
		return folder
	}
	folder.Total = len(entries)

	truth, err := c.deps.GroundTruth.Load(name)
	if err != nil {
		folder.Err = err
		log.Error("Coordinator", err, map[string]interface{}{"folder": name})
		return folder
	}
	defer truth.Close()

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		res := c.processImage(ctx, name, entry.Name(), truth)
		if res.Night {
			folder.Night++
		}
		if res.Success {
			folder.Successes++
		}
		switch {
		case res.Err == nil:
		case IsRecoverable(res.Err):
			log.Warning("Coordinator", "image skipped", map[string]interface{}{
				"folder": name,
				"image":  entry.Name(),
				"error":  res.Err.Error(),
			})
		default:
			log.Error("Coordinator", res.Err, map[string]interface{}{
				"folder": name,
				"image":  entry.Name(),
			})
		}
		folder.Results = append(folder.Results, res)
	}

	log.Info("Coordinator", "folder done", map[string]interface{}{
		"folder":       name,
		"success_rate": folder.SuccessRate(),
		"night":        folder.Night,
		"day":          folder.Day(),
	})

	return folder
}

// processImage never panics; a panic in any stage becomes the result's error.
func (c *Coordinator) processImage(ctx context.Context, folder, name string, truth *skyline.Mask) (res Result) {
	res = Result{Folder: folder, Image: name}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic while processing %s/%s: %v", folder, name, r)
			res.Success = false
		}
		res.Duration = time.Since(start)
		if c.deps.Timing != nil {
			c.deps.Timing.Record("image", res.Duration)
		}
	}()

	img, err := c.deps.Loader.Load(filepath.Join(c.opts.DataDir, folder, name))
	if err != nil {
		res.Err = err
		return res
	}
	defer img.Close()

	night, err := c.deps.Classifier.IsNight(img)
	if err != nil {
		res.Err = fmt.Errorf("night classification failed: %w", err)
		return res
	}
	res.Night = night

	gray, err := conversion.ConvertToGrayscale(img)
	if err != nil {
		res.Err = err
		return res
	}
	defer gray.Close()

	mask, err := c.skyMask(ctx, gray, night)
	if err != nil {
		res.Err = err
		return res
	}
	defer mask.Close()

	metrics, err := CalculateMaskMetrics(mask, truth)
	if err != nil {
		res.Err = err
		return res
	}
	res.Metrics = metrics
	res.Success = metrics.Accuracy > c.opts.SuccessThreshold

	ring, err := skyline.DetectSkyline(mask)
	if err != nil {
		res.Err = err
		return res
	}
	defer ring.Close()

	res.OutputPath, err = c.deps.Saver.Save(folder, name, ring)
	if err != nil {
		res.Err = err
		return res
	}

	c.deps.Logger.Debug("Coordinator", "image scored", map[string]interface{}{
		"folder":   folder,
		"image":    name,
		"night":    night,
		"accuracy": metrics.Accuracy,
		"success":  res.Success,
	})

	if c.deps.Observer != nil {
		if frame, err := newFrame(res, truth, mask, ring); err == nil {
			c.deps.Observer.ImageProcessed(frame)
		} else {
			c.deps.Logger.Warning("Coordinator", "preview frame dropped", map[string]interface{}{
				"image": name,
				"error": err.Error(),
			})
		}
	}

	return res
}

func (c *Coordinator) skyMask(ctx context.Context, gray *safe.Mat, night bool) (*skyline.Mask, error) {
	if night {
		return c.deps.Night.Reconstruct(ctx, gray)
	}

	raw, err := c.deps.Day.SkyRegion(ctx, gray)
	if err != nil {
		return nil, fmt.Errorf("day sky detection failed: %w", err)
	}
	defer raw.Close()

	return c.deps.DayPost.Process(ctx, raw)
}

func newFrame(res Result, truth, mask, ring *skyline.Mask) (Frame, error) {
	var images [3]*image.Gray
	for i, m := range []*skyline.Mask{truth, mask, ring} {
		img, err := conversion.MatToGrayScaled(m.Mat(), 255)
		if err != nil {
			return Frame{}, err
		}
		images[i] = img
	}

	return Frame{
		Folder:      res.Folder,
		Image:       res.Image,
		Accuracy:    res.Metrics.Accuracy,
		Night:       res.Night,
		GroundTruth: images[0],
		Mask:        images[1],
		Skyline:     images[2],
	}, nil
}

// IsRecoverable reports whether err stems from the input data rather than the code.
// Shape mismatches are programming errors: the image is still skipped, but logged as
// an error.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrDecodeFailure) || errors.Is(err, ErrGroundTruth)
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{})   {}
func (nopLogger) Info(string, string, map[string]interface{})    {}
func (nopLogger) Warning(string, string, map[string]interface{}) {}
func (nopLogger) Error(string, error, map[string]interface{})    {}
