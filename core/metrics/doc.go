// Package metrics defines how solve runs are reported. A MetricsSink
// receives one SolveEvent per run; sinks that also implement
// UtilizationRecorder get the per-period capacity usage of solved plans.
// Several configured sinks are combined with NewMultiSink, and sinks
// implementing Flusher persist their state when the run ends.
package metrics
