package timing

import (
	"context"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

type timingKey struct{}

type TimingInfo struct {
	Operation string
	StartTime time.Time
}

// Stats summarises the recorded durations of one operation.
type Stats struct {
	Operation string
	Count     int
	Total     time.Duration
	Mean      time.Duration
	StdDev    time.Duration
	Max       time.Duration
}

// Tracker collects wall-clock durations per named operation.
type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
	enabled bool
}

func NewTracker() *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		enabled: true,
	}
}

func (tt *Tracker) StartTiming(operation string) context.Context {
	tt.mu.RLock()
	enabled := tt.enabled
	tt.mu.RUnlock()
	if !enabled {
		return context.Background()
	}

	return context.WithValue(context.Background(), timingKey{}, TimingInfo{
		Operation: operation,
		StartTime: time.Now(),
	})
}

func (tt *Tracker) EndTiming(ctx context.Context) {
	info, ok := ctx.Value(timingKey{}).(TimingInfo)
	if !ok {
		return
	}
	tt.Record(info.Operation, time.Since(info.StartTime))
}

// Record adds a measured duration. Its signature matches chain.StepObserver.
func (tt *Tracker) Record(operation string, duration time.Duration) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if !tt.enabled {
		return
	}
	tt.timings[operation] = append(tt.timings[operation], duration)
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

func (tt *Tracker) GetAverageTime(operation string) time.Duration {
	return tt.Stats(operation).Mean
}

func (tt *Tracker) Stats(operation string) Stats {
	timings := tt.GetTimings(operation)
	s := Stats{Operation: operation, Count: len(timings)}
	if len(timings) == 0 {
		return s
	}

	values := make([]float64, len(timings))
	for i, d := range timings {
		values[i] = float64(d)
		s.Total += d
		if d > s.Max {
			s.Max = d
		}
	}

	mean, std := stat.MeanStdDev(values, nil)
	s.Mean = time.Duration(mean)
	if len(values) > 1 {
		s.StdDev = time.Duration(std)
	}
	return s
}

// Summary returns stats for every operation, ordered by name.
func (tt *Tracker) Summary() []Stats {
	tt.mu.RLock()
	operations := make([]string, 0, len(tt.timings))
	for op := range tt.timings {
		operations = append(operations, op)
	}
	tt.mu.RUnlock()

	sort.Strings(operations)
	out := make([]Stats, 0, len(operations))
	for _, op := range operations {
		out = append(out, tt.Stats(op))
	}
	return out
}

func (tt *Tracker) SetEnabled(enabled bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.enabled = enabled
}

func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}
