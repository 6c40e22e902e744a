package skyline

import (
	"context"
	"fmt"

	"skyline-detector/internal/processing/chain"
	"skyline-detector/internal/processing/morphology"
)

// DayPostProcessor cleans the rough mask of a day-time sky detector:
// closing 5x5, erosion 7x7, then Monotonize.
type DayPostProcessor struct {
	chain *chain.ProcessingChain
}

func NewDayPostProcessor() *DayPostProcessor {
	return &DayPostProcessor{
		chain: chain.NewProcessingChain("day",
			morphology.CloseStep{Kernel: morphology.MustKernel(5), Iterations: 1},
			morphology.ErodeStep{Kernel: morphology.MustKernel(7), Iterations: 1},
			MonotonizeStep{},
		),
	}
}

func (d *DayPostProcessor) SetObserver(observer chain.StepObserver) {
	d.chain.SetObserver(observer)
}

// Process returns a cleaned copy of raw.
func (d *DayPostProcessor) Process(ctx context.Context, raw *Mask) (*Mask, error) {
	out, err := d.chain.Execute(ctx, raw.mat)
	if err != nil {
		return nil, err
	}

	m, err := NewMask(out)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("day post-processing produced a non-binary mask: %w", err)
	}
	return m, nil
}
