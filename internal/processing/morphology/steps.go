package morphology

import (
	"context"
	"fmt"

	"skyline-detector/internal/opencv/safe"
)

type DilateSubtractStep struct {
	Kernel     Kernel
	Iterations int
}

func (s DilateSubtractStep) Name() string {
	return fmt.Sprintf("dilate_subtract_%s_x%d", s.Kernel, s.Iterations)
}

func (s DilateSubtractStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	return DilateSubtract(input, s.Kernel, s.Iterations)
}

type CloseStep struct {
	Kernel     Kernel
	Iterations int
}

func (s CloseStep) Name() string {
	return fmt.Sprintf("close_%s_x%d", s.Kernel, s.Iterations)
}

func (s CloseStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	return Close(input, s.Kernel, s.Iterations)
}

type ErodeStep struct {
	Kernel     Kernel
	Iterations int
}

func (s ErodeStep) Name() string {
	return fmt.Sprintf("erode_%s_x%d", s.Kernel, s.Iterations)
}

func (s ErodeStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	return Erode(input, s.Kernel, s.Iterations)
}

type InvertStep struct{}

func (InvertStep) Name() string {
	return "invert"
}

func (InvertStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	return Invert(input)
}

type ThresholdStep struct {
	Thresh   uint8
	MaxValue uint8
}

func (s ThresholdStep) Name() string {
	return fmt.Sprintf("threshold_%d_%d", s.Thresh, s.MaxValue)
}

func (s ThresholdStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	return Threshold(input, s.Thresh, s.MaxValue)
}
