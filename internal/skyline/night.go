package skyline

import (
	"context"
	"fmt"

	"skyline-detector/internal/opencv/safe"
	"skyline-detector/internal/processing/chain"
	"skyline-detector/internal/processing/morphology"
)

// NightParams tunes the light-halo reconstruction. DefaultNightParams matches the
// reference dataset.
type NightParams struct {
	HaloKernel       int
	HaloIterations   int
	CloseKernel      int
	CloseIterations  int
	ShrinkKernel     int
	ShrinkIterations int
	Threshold        uint8
	GapPolicy        GapPolicy
}

func DefaultNightParams() NightParams {
	return NightParams{
		HaloKernel:       5,
		HaloIterations:   3,
		CloseKernel:      5,
		CloseIterations:  3,
		ShrinkKernel:     7,
		ShrinkIterations: 1,
		Threshold:        BinaryThreshold,
		GapPolicy:        GapInterpolate,
	}
}

// NightReconstructor rebuilds a sky mask from a grayscale night image, where the
// skyline is outlined by artificial lights rather than a brightness gradient.
type NightReconstructor struct {
	params NightParams
	chain  *chain.ProcessingChain
}

func NewNightReconstructor(params NightParams) (*NightReconstructor, error) {
	halo, err := morphology.NewKernel(params.HaloKernel)
	if err != nil {
		return nil, fmt.Errorf("halo kernel: %w", err)
	}
	closing, err := morphology.NewKernel(params.CloseKernel)
	if err != nil {
		return nil, fmt.Errorf("close kernel: %w", err)
	}
	shrink, err := morphology.NewKernel(params.ShrinkKernel)
	if err != nil {
		return nil, fmt.Errorf("shrink kernel: %w", err)
	}
	if _, err := ParseGapPolicy(string(params.GapPolicy)); err != nil {
		return nil, err
	}
	if params.GapPolicy == "" {
		params.GapPolicy = GapInterpolate
	}

	steps := []chain.ProcessingStep{
		// halos around lights, without the lights' cores
		morphology.DilateSubtractStep{Kernel: halo, Iterations: params.HaloIterations},
		morphology.CloseStep{Kernel: closing, Iterations: params.CloseIterations},
		morphology.ErodeStep{Kernel: shrink, Iterations: params.ShrinkIterations},
		morphology.InvertStep{},
		morphology.ThresholdStep{Thresh: params.Threshold, MaxValue: 255},
		// rebuild one coherent ground region under the extracted boundary
		ContourFillStep{Policy: params.GapPolicy},
		morphology.InvertStep{},
		MonotonizeStep{},
	}

	return &NightReconstructor{
		params: params,
		chain:  chain.NewProcessingChain("night", steps...),
	}, nil
}

func (r *NightReconstructor) Params() NightParams {
	return r.params
}

func (r *NightReconstructor) SetObserver(observer chain.StepObserver) {
	r.chain.SetObserver(observer)
}

// Reconstruct returns the sky mask for a grayscale night image. gray is not modified.
func (r *NightReconstructor) Reconstruct(ctx context.Context, gray *safe.Mat) (*Mask, error) {
	if err := safe.ValidateGray8(gray, "NightReconstructor"); err != nil {
		return nil, err
	}

	binary, err := r.chain.Execute(ctx, gray)
	if err != nil {
		return nil, err
	}
	defer binary.Close()

	return MaskFromBinaryImage(binary)
}
