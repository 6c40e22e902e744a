package gui

import (
	"sync"

	"skyline-detector/internal/pipeline"
)

// FrameCollector keeps processed frames for the preview window. It satisfies
// pipeline.Observer. Once Limit frames are held, later ones are dropped.
type FrameCollector struct {
	mu      sync.Mutex
	frames  []pipeline.Frame
	limit   int
	dropped int
}

func NewFrameCollector(limit int) *FrameCollector {
	return &FrameCollector{limit: limit}
}

func (c *FrameCollector) ImageProcessed(frame pipeline.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limit > 0 && len(c.frames) >= c.limit {
		c.dropped++
		return
	}
	c.frames = append(c.frames, frame)
}

func (c *FrameCollector) Frames() []pipeline.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]pipeline.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *FrameCollector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
