package chain

import (
	"context"
	"fmt"
	"time"

	"skyline-detector/internal/opencv/safe"
)

// ProcessingStep transforms one Mat into a new Mat. Steps never mutate their input.
type ProcessingStep interface {
	Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error)
	Name() string
}

// StepObserver is told how long each executed step took.
type StepObserver func(step string, elapsed time.Duration)

type ProcessingChain struct {
	name     string
	steps    []ProcessingStep
	observer StepObserver
}

func NewProcessingChain(name string, steps ...ProcessingStep) *ProcessingChain {
	return &ProcessingChain{
		name:  name,
		steps: steps,
	}
}

func (pc *ProcessingChain) SetObserver(observer StepObserver) {
	pc.observer = observer
}

// Execute runs every step in order. Intermediate Mats are closed; the input is left
// untouched and the caller owns the returned Mat. A step may return its input
// unchanged.
func (pc *ProcessingChain) Execute(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if len(pc.steps) == 0 {
		return input.Clone()
	}

	current := input
	release := func() {
		if current != input {
			current.Close()
		}
	}

	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		result, err := step.Apply(ctx, current)
		if err != nil {
			release()
			return nil, fmt.Errorf("%s: step %s failed: %w", pc.name, step.Name(), err)
		}
		if pc.observer != nil {
			pc.observer(pc.name+"/"+step.Name(), time.Since(start))
		}

		if result != current {
			release()
		}
		current = result
	}

	if current == input {
		return input.Clone()
	}
	return current, nil
}

func (pc *ProcessingChain) Name() string {
	return pc.name
}

func (pc *ProcessingChain) StepCount() int {
	return len(pc.steps)
}

func (pc *ProcessingChain) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}

// StepFunc adapts a plain function to ProcessingStep.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, input *safe.Mat) (*safe.Mat, error)
}

func (s StepFunc) Name() string {
	return s.StepName
}

func (s StepFunc) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	return s.Fn(ctx, input)
}
