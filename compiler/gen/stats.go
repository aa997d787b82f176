package gen

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// RunStats holds generation execution statistics.
type RunStats struct {
	// TotalCells is the total number of cells rendered.
	TotalCells atomic.Int64
	// TotalBytes is the total size of all rendered artifacts.
	TotalBytes atomic.Int64
	// TotalDuration is the total time spent rendering cells.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowCells is the count of cells exceeding the slow threshold.
	SlowCells atomic.Int64
	// Failures is the count of cell errors.
	Failures atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *RunStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalCells:    s.TotalCells.Load(),
		TotalBytes:    s.TotalBytes.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowCells:     s.SlowCells.Load(),
		Failures:      s.Failures.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *RunStats) Reset() {
	s.TotalCells.Store(0)
	s.TotalBytes.Store(0)
	s.TotalDuration.Store(0)
	s.SlowCells.Store(0)
	s.Failures.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of generation statistics.
type StatsSnapshot struct {
	TotalCells    int64         `json:"total_cells"`
	TotalBytes    int64         `json:"total_bytes"`
	TotalDuration time.Duration `json:"total_duration"`
	SlowCells     int64         `json:"slow_cells"`
	Failures      int64         `json:"failures"`
}

// AvgCellDuration returns the average cell rendering duration.
func (s StatsSnapshot) AvgCellDuration() time.Duration {
	if s.TotalCells == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalCells)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"cells=%d bytes=%d duration=%s avg=%s slow=%d failures=%d",
		s.TotalCells, s.TotalBytes, s.TotalDuration, s.AvgCellDuration(),
		s.SlowCells, s.Failures,
	)
}

// SlowCellHook is a function called when a slow cell is detected.
type SlowCellHook func(t *Type, duration time.Duration)

// statsOptions configures the statistics hook.
type statsOptions struct {
	slowThreshold time.Duration
	slowHook      SlowCellHook
}

// StatsOption configures the statistics hook.
type StatsOption func(*statsOptions)

// WithSlowThreshold sets the threshold for slow cell detection.
// Cells taking longer than this duration will be counted as slow.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(o *statsOptions) {
		o.slowThreshold = d
	}
}

// WithSlowCellHook sets a callback function for slow cells.
// The hook is called whenever a cell exceeds the slow threshold.
func WithSlowCellHook(hook SlowCellHook) StatsOption {
	return func(o *statsOptions) {
		o.slowHook = hook
	}
}

// WithSlowCellLog logs slow cells to the default logger.
// This is a convenience wrapper around WithSlowCellHook.
func WithSlowCellLog() StatsOption {
	return WithSlowCellHook(func(t *Type, duration time.Duration) {
		slog.Warn("slow generation cell", "entity", t.Name, "duration", duration)
	})
}

// StatsHook returns a generation hook that records per-cell
// statistics into stats.
//
// Example:
//
//	stats := &gen.RunStats{}
//	cfg, _ := gen.NewConfig(
//	    gen.WithHooks(gen.StatsHook(stats, gen.WithSlowCellLog())),
//	)
//
//	// Later, check statistics:
//	fmt.Println(stats.Stats())
func StatsHook(stats *RunStats, opts ...StatsOption) Hook {
	o := &statsOptions{slowThreshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(o)
	}
	return func(next Generator) Generator {
		return GenerateFunc(func(t *Type) ([]byte, error) {
			start := time.Now()
			b, err := next.Generate(t)
			duration := time.Since(start)
			stats.TotalCells.Add(1)
			stats.TotalBytes.Add(int64(len(b)))
			stats.TotalDuration.Add(int64(duration))
			if err != nil {
				stats.Failures.Add(1)
			}
			if duration > o.slowThreshold {
				stats.SlowCells.Add(1)
				if o.slowHook != nil {
					o.slowHook(t, duration)
				}
			}
			return b, err
		})
	}
}
