package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/clsprm/core/metrics"
)

// PromSink records solve runs in Prometheus metrics. When a textfile path is
// set, Flush writes the gathered registry there in the node exporter textfile
// format, which suits one-shot CLI runs that are never scraped.
type PromSink struct {
	solves      *prometheus.CounterVec
	failures    prometheus.Counter
	duration    *prometheus.HistogramVec
	nodes       prometheus.Counter
	objective   prometheus.Gauge
	utilization *prometheus.GaugeVec

	gatherer prometheus.Gatherer
	textfile string
}

// NewPromSink registers solve metrics on the default Prometheus registerer.
func NewPromSink(textfile string) (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, textfile)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer, and a nil
// gatherer to the global gatherer.
func NewPromSinkWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer, textfile string) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	s := &PromSink{gatherer: g, textfile: textfile}
	var err error
	if s.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clsprm_solves_total",
		Help: "Total number of lot-sizing solves by final status",
	}, []string{"status", "setup_cost", "linkage"})); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clsprm_solve_errors_total",
		Help: "Solves that ended with a backend error",
	})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clsprm_solve_duration_seconds",
		Help:    "Wall time of build and solve",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.nodes, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clsprm_search_nodes_total",
		Help: "Branch-and-bound nodes explored",
	})); err != nil {
		return nil, err
	}
	if s.objective, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clsprm_last_objective",
		Help: "Objective value of the last solved plan",
	})); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clsprm_capacity_utilization_ratio",
		Help: "Used over available capacity per period of the last plan",
	}, []string{"resource", "period"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg or reuses the collector already registered there.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the run and, when a plan was found, its objective.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	if ev.Err != nil {
		s.failures.Inc()
	}
	s.solves.WithLabelValues(ev.Status.String(), ev.SetupCost, ev.Linkage).Inc()
	s.duration.WithLabelValues(ev.Status.String()).Observe(ev.Duration.Seconds())
	s.nodes.Add(float64(ev.Nodes))
	if ev.Status.HasSolution() {
		s.objective.Set(ev.Objective)
	}
	return nil
}

// RecordUtilization sets the per-period utilization gauges. Periods with no
// capacity report zero.
func (s *PromSink) RecordUtilization(us []coremetrics.Utilization) error {
	for _, u := range us {
		p := strconv.Itoa(u.Period)
		s.utilization.WithLabelValues("production", p).Set(ratio(u.Production, u.ProductionCap))
		s.utilization.WithLabelValues("remanufacturing", p).Set(ratio(u.Remanufacturing, u.RemanufactCap))
	}
	return nil
}

// Flush writes the textfile export when configured.
func (s *PromSink) Flush() error {
	if s.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.textfile, s.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func ratio(used, available float64) float64 {
	if available <= 0 {
		return 0
	}
	return used / available
}
