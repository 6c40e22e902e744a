// Package skyline turns noisy sky/ground masks into a single per-column skyline,
// reconstructs sky masks from night imagery and scores masks against ground truth.
//
// Every Mask holds {0,1} samples: 1 is sky, 0 is ground. Images using the
// {0,255} encoding are plain *safe.Mat values and only become Masks through
// MaskFromBinaryImage.
package skyline

import (
	"errors"
	"fmt"

	"skyline-detector/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const (
	Sky    uint8 = 1
	Ground uint8 = 0

	// BinaryThreshold splits 8-bit images into sky and ground.
	BinaryThreshold uint8 = 127
)

var (
	ErrShapeMismatch      = safe.ErrShapeMismatch
	ErrNotBinary          = safe.ErrNotBinary
	ErrEmptyImage         = safe.ErrEmptyImage
	ErrIncompleteBoundary = errors.New("boundary does not cover every column")
)

type Mask struct {
	mat *safe.Mat
}

// NewMask takes ownership of m when it is a single-channel {0,1} image.
// On error the caller keeps ownership.
func NewMask(m *safe.Mat) (*Mask, error) {
	if err := safe.ValidateMaxValue(m, Sky, "NewMask"); err != nil {
		return nil, err
	}
	return &Mask{mat: m}, nil
}

// NewFilledMask returns a rows x cols mask where every pixel has value.
func NewFilledMask(rows, cols int, value uint8) (*Mask, error) {
	if value > Sky {
		return nil, fmt.Errorf("%w: fill value %d", ErrNotBinary, value)
	}
	m, err := safe.NewFilledMat(rows, cols, value)
	if err != nil {
		return nil, err
	}
	return &Mask{mat: m}, nil
}

// MaskFromBinaryImage thresholds an 8-bit image at BinaryThreshold into a {0,1} Mask.
// The input is not modified.
func MaskFromBinaryImage(img *safe.Mat) (*Mask, error) {
	if err := safe.ValidateGray8(img, "MaskFromBinaryImage"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.Threshold(img.GetMat(), &dst, float32(BinaryThreshold), float32(Sky), gocv.ThresholdBinary)

	m, err := safe.Adopt(dst, "mask")
	if err != nil {
		return nil, err
	}
	return &Mask{mat: m}, nil
}

// BinaryImage converts the mask to the {0,255} encoding. The caller owns the result.
func (m *Mask) BinaryImage() (*safe.Mat, error) {
	if err := safe.ValidateGray8(m.mat, "BinaryImage"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.Threshold(m.mat.GetMat(), &dst, 0, 255, gocv.ThresholdBinary)
	return safe.Adopt(dst, "binary_image")
}

func (m *Mask) Rows() int {
	return m.mat.Rows()
}

func (m *Mask) Cols() int {
	return m.mat.Cols()
}

func (m *Mask) At(row, col int) (uint8, error) {
	return m.mat.GetUCharAt(row, col)
}

// Mat exposes the backing Mat. It stays owned by the mask and must hold {0,1} values.
func (m *Mask) Mat() *safe.Mat {
	return m.mat
}

func (m *Mask) Clone() (*Mask, error) {
	c, err := m.mat.Clone()
	if err != nil {
		return nil, err
	}
	return &Mask{mat: c}, nil
}

func (m *Mask) Close() {
	if m != nil && m.mat != nil {
		m.mat.Close()
	}
}

// samples returns the backing bytes of a continuous 8-bit single-channel Mat.
// Writes through the slice modify the Mat.
func samples(m *safe.Mat, operation string) ([]uint8, error) {
	if err := safe.ValidateGray8(m, operation); err != nil {
		return nil, err
	}

	raw := m.GetMat()
	if !raw.IsContinuous() {
		return nil, fmt.Errorf("operation %s requires a continuous Mat", operation)
	}

	data, err := raw.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", operation, err)
	}
	return data, nil
}
