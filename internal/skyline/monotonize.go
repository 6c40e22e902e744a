package skyline

import (
	"context"

	"skyline-detector/internal/opencv/safe"
)

// Monotonize returns a copy of m where, in every column, all rows from the first
// ground pixel downwards are ground. Columns without ground are left unchanged.
func Monotonize(m *Mask) (*Mask, error) {
	out, err := m.Clone()
	if err != nil {
		return nil, err
	}

	if err := groundBelowFirstGround(out.mat); err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}

// groundBelowFirstGround edits img in place. Only zero samples are treated as ground,
// so it works for both binary encodings.
func groundBelowFirstGround(img *safe.Mat) error {
	data, err := samples(img, "Monotonize")
	if err != nil {
		return err
	}

	rows, cols := img.Rows(), img.Cols()
	for col := 0; col < cols; col++ {
		row := 0
		for ; row < rows; row++ {
			if data[row*cols+col] == Ground {
				break
			}
		}
		for ; row < rows; row++ {
			data[row*cols+col] = Ground
		}
	}

	return nil
}

// MonotonizeStep applies the same rule to an intermediate binary image inside a chain.
type MonotonizeStep struct{}

func (MonotonizeStep) Name() string {
	return "monotonize"
}

func (MonotonizeStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	out, err := input.Clone()
	if err != nil {
		return nil, err
	}

	if err := groundBelowFirstGround(out); err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}
