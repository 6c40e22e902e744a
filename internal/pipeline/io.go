package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"skyline-detector/internal/opencv/safe"
	"skyline-detector/internal/skyline"

	"gocv.io/x/gocv"
)

var (
	ErrDecodeFailure = errors.New("image could not be decoded")
	ErrGroundTruth   = errors.New("ground truth unavailable")
)

// GroundTruthSuffix is appended to a folder name to locate its labelled mask.
const GroundTruthSuffix = "_GT.png"

type FileLoader struct{}

func (FileLoader) Load(path string) (*safe.Mat, error) {
	m := gocv.IMRead(path, gocv.IMReadColor)
	if m.Empty() {
		m.Close()
		return nil, fmt.Errorf("%w: %s", ErrDecodeFailure, path)
	}
	return safe.Adopt(m, filepath.Base(path))
}

// DirGroundTruth reads <Dir>/<folder>_GT.png and thresholds it at Threshold.
type DirGroundTruth struct {
	Dir       string
	Threshold uint8
}

func (g DirGroundTruth) Path(folder string) string {
	return filepath.Join(g.Dir, folder+GroundTruthSuffix)
}

func (g DirGroundTruth) Load(folder string) (*skyline.Mask, error) {
	path := g.Path(folder)

	raw := gocv.IMRead(path, gocv.IMReadGrayScale)
	if raw.Empty() {
		raw.Close()
		return nil, fmt.Errorf("%w: %s", ErrGroundTruth, path)
	}
	defer raw.Close()

	thresh := g.Threshold
	if thresh == 0 {
		thresh = skyline.BinaryThreshold
	}

	binary := gocv.NewMat()
	gocv.Threshold(raw, &binary, float32(thresh), 255, gocv.ThresholdBinary)

	img, err := safe.Adopt(binary, "ground_truth")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGroundTruth, err)
	}
	defer img.Close()

	return skyline.MaskFromBinaryImage(img)
}

// DirSaver mirrors the input tree under Root: <Root>/<folder>/<name>.
type DirSaver struct {
	Root string
}

func (s DirSaver) Save(folder, name string, ring *skyline.Mask) (string, error) {
	dir := filepath.Join(s.Root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	img, err := ring.BinaryImage()
	if err != nil {
		return "", err
	}
	defer img.Close()

	path := filepath.Join(dir, name)
	if ok := gocv.IMWrite(path, img.GetMat()); !ok {
		return "", fmt.Errorf("failed to write %s", path)
	}
	return path, nil
}
