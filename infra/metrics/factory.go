package metrics

import (
	"fmt"
	"path/filepath"

	"github.com/kilianp07/clsprm/core/factory"
	coremetrics "github.com/kilianp07/clsprm/core/metrics"
)

// Sink types accepted in metrics.sinks.
const (
	SinkNop        = "nop"
	SinkPrometheus = "prometheus"
)

// promConf is the conf block of a prometheus sink.
type promConf struct {
	// Textfile is written on Flush for the node exporter textfile
	// collector, which only reads *.prom files.
	Textfile string `json:"textfile"`
}

func (c promConf) validate() error {
	if c.Textfile != "" && filepath.Ext(c.Textfile) != ".prom" {
		return fmt.Errorf("textfile %s must have the .prom extension", c.Textfile)
	}
	return nil
}

func init() {
	_ = coremetrics.RegisterMetricsSink(SinkNop, func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = coremetrics.RegisterMetricsSink(SinkPrometheus, func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c promConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return NewPromSink(c.Textfile)
	})
}
