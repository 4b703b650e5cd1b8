package metrics

import (
	"time"

	"github.com/kilianp07/clsprm/core/mip"
)

// SolveEvent describes one finished solve.
type SolveEvent struct {
	RunID       string
	Model       string
	SetupCost   string
	Linkage     string
	Status      mip.Status
	Objective   float64
	Nodes       int
	Duration    time.Duration
	Products    int
	Periods     int
	Variables   int
	Constraints int
	// Err is set when the backend failed without a status.
	Err  error
	Time time.Time
}

// MetricsSink records solve runs for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// Utilization is the capacity usage of one period of a solved plan.
type Utilization struct {
	RunID           string
	Period          int
	Production      float64
	ProductionCap   float64
	Remanufacturing float64
	RemanufactCap   float64
}

// UtilizationRecorder records capacity usage.
type UtilizationRecorder interface {
	RecordUtilization(u []Utilization) error
}

// Flusher is implemented by sinks that buffer or export on demand.
type Flusher interface {
	Flush() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error          { return nil }
func (NopSink) RecordUtilization([]Utilization) error { return nil }
func (NopSink) Flush() error                          { return nil }
